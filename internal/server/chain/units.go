package chain

import (
	"math/big"
	"strings"

	"github.com/dmitrijs2005/tipkeeper/internal/common"
)

// FormatEther renders a wei amount as a decimal ether string. The output
// always carries a fractional part: 1e18 is "1.0", 5e16 is "0.05".
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0.0"
	}

	sign := ""
	v := new(big.Int).Set(wei)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}

	s := v.String()
	if len(s) <= common.WeiDecimals {
		s = strings.Repeat("0", common.WeiDecimals-len(s)+1) + s
	}
	whole, frac := s[:len(s)-common.WeiDecimals], strings.TrimRight(s[len(s)-common.WeiDecimals:], "0")
	if frac == "" {
		frac = "0"
	}
	return sign + whole + "." + frac
}
