package custody

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/dmitrijs2005/tipkeeper/internal/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Local chain account #9 of the standard hardhat/anvil mnemonic.
const (
	DevAddress    = "0xa0Ee7A142d267C1f36714E4a8F75612F20a79720"
	devPrivateKey = "0x2a871d0798f97d79848a013d4936a73bf4cc922c825d33c1cf7073dff6d409c6"
)

// GenerateDevKey returns the fixed local-chain account. The caller owns the
// returned slice and must wipe it.
func GenerateDevKey() (ethcommon.Address, []byte, error) {
	key, err := hexutil.Decode(devPrivateKey)
	if err != nil {
		return ethcommon.Address{}, nil, err
	}
	addr, err := AddressOf(key)
	if err != nil {
		common.WipeByteArray(key)
		return ethcommon.Address{}, nil, err
	}
	return addr, key, nil
}

// GenerateKey draws a random secp256k1 key from crypto/rand.
func GenerateKey() (ethcommon.Address, []byte, error) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		return ethcommon.Address{}, nil, fmt.Errorf("generate key: %w", err)
	}
	defer ZeroKey(pk)

	return crypto.PubkeyToAddress(pk.PublicKey), crypto.FromECDSA(pk), nil
}

// AddressOf derives the account address of a raw 32-byte key.
func AddressOf(key []byte) (ethcommon.Address, error) {
	pk, err := crypto.ToECDSA(key)
	if err != nil {
		return ethcommon.Address{}, fmt.Errorf("%w: invalid private key", common.ErrIntegrityViolation)
	}
	defer ZeroKey(pk)
	return crypto.PubkeyToAddress(pk.PublicKey), nil
}

// ZeroKey clears the private scalar of k in place.
func ZeroKey(k *ecdsa.PrivateKey) {
	if k == nil || k.D == nil {
		return
	}
	b := k.D.Bits()
	for i := range b {
		b[i] = 0
	}
	k.D.SetUint64(0)
}
