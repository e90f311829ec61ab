package custody

import "context"

// EncryptRequest mirrors the envelope provider's encrypt call. Checksum
// pointers are nil when integrity checking is off.
type EncryptRequest struct {
	KeyName         string
	Plaintext       []byte
	PlaintextCRC32C *int64
}

type EncryptResponse struct {
	Ciphertext              []byte
	CiphertextCRC32C        *int64
	VerifiedPlaintextCRC32C bool
}

type DecryptRequest struct {
	KeyName          string
	Ciphertext       []byte
	CiphertextCRC32C *int64
}

type DecryptResponse struct {
	Plaintext                []byte
	PlaintextCRC32C          *int64
	VerifiedCiphertextCRC32C bool
}

// Provider is an external envelope encryption service holding keys that
// are never exported.
type Provider interface {
	Encrypt(ctx context.Context, req *EncryptRequest) (*EncryptResponse, error)
	Decrypt(ctx context.Context, req *DecryptRequest) (*DecryptResponse, error)
}

// KeyAdmin provisions key rings and crypto keys. It is only used by the
// admin CLI, never on the request path.
type KeyAdmin interface {
	CreateKeyRing(ctx context.Context, ref KeyRef) (string, error)
	CreateCryptoKey(ctx context.Context, ref KeyRef, spec CryptoKeySpec) (string, error)
}
