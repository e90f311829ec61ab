package chain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func weiFromString(s string) *big.Int {
	v, _ := new(big.Int).SetString(s, 10)
	return v
}

func TestFormatEther(t *testing.T) {
	tests := []struct {
		name string
		wei  *big.Int
		want string
	}{
		{"nil", nil, "0.0"},
		{"zero", big.NewInt(0), "0.0"},
		{"one wei", big.NewInt(1), "0.000000000000000001"},
		{"one ether", weiFromString("1000000000000000000"), "1.0"},
		{"tip amount", weiFromString("50000000000000000"), "0.05"},
		{"tip fee", weiFromString("1000000000000000"), "0.001"},
		{"large", weiFromString("1234500000000000000000"), "1234.5"},
		{"negative", weiFromString("-250000000000000000"), "-0.25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatEther(tt.wei))
		})
	}
}
