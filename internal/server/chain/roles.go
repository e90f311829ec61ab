package chain

import (
	"fmt"

	"github.com/dmitrijs2005/tipkeeper/internal/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role is an access-control role of the tips contract.
type Role string

const (
	// RoleDefaultAdmin doubles as "no role required" in request gating.
	RoleDefaultAdmin Role = "DEFAULT_ADMIN_ROLE"
	RoleAdmin        Role = "ADMIN_ROLE"
	RoleUpgrader     Role = "UPGRADER_ROLE"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleDefaultAdmin, RoleAdmin, RoleUpgrader:
		return r, nil
	case "":
		return RoleDefaultAdmin, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", common.ErrValidation, s)
	}
}

// RoleID returns the bytes32 identifier the contract stores for r:
// all zeroes for the default admin role, keccak256 of the name otherwise.
func RoleID(r Role) [32]byte {
	if r == RoleDefaultAdmin {
		return [32]byte{}
	}
	return crypto.Keccak256Hash([]byte(r))
}
