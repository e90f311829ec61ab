package custody

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tipkeeper/internal/common"
	"github.com/dmitrijs2005/tipkeeper/internal/cryptox"
	"github.com/dmitrijs2005/tipkeeper/internal/logging"
	"github.com/dmitrijs2005/tipkeeper/internal/server/metrics"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// EncryptedSecret is the base64 outer ciphertext stored with a wallet.
type EncryptedSecret string

// Service owns the two-layer pipeline. It is safe for concurrent use; the
// plaintext keys it handles live only on the caller's stack.
type Service struct {
	provider  Provider
	keyName   string
	appSecret []byte
	profile   Profile
	metrics   *metrics.Registry
	logger    logging.Logger
}

// NewService wires the pipeline. The local provider is refused outside
// development.
func NewService(p Provider, keyName string, appSecret []byte, profile Profile, m *metrics.Registry, l logging.Logger) (*Service, error) {
	if len(appSecret) == 0 {
		return nil, cryptox.ErrEmptySecret
	}
	if keyName == "" {
		return nil, errors.New("custody: empty key name")
	}
	if _, local := p.(developmentOnly); local && !profile.AllowsLocalProvider() {
		return nil, fmt.Errorf("%w: local envelope provider in %s", common.ErrProfileForbidden, profile)
	}
	return &Service{
		provider:  p,
		keyName:   keyName,
		appSecret: appSecret,
		profile:   profile,
		metrics:   m,
		logger:    l.With("module", "custody"),
	}, nil
}

func (s *Service) Profile() Profile { return s.profile }

// GenerateDevKey returns the fixed test account, refused outside development.
func (s *Service) GenerateDevKey() (ethcommon.Address, []byte, error) {
	if !s.profile.UsesDevKey() {
		return ethcommon.Address{}, nil, fmt.Errorf("%w: dev key in %s", common.ErrProfileForbidden, s.profile)
	}
	return GenerateDevKey()
}

// GenerateKey returns a fresh random account.
func (s *Service) GenerateKey() (ethcommon.Address, []byte, error) {
	return GenerateKey()
}

// Generate picks the generator for the active profile.
func (s *Service) Generate() (ethcommon.Address, []byte, error) {
	if s.profile.UsesDevKey() {
		return s.GenerateDevKey()
	}
	return s.GenerateKey()
}

// EncryptLayered seals key under the application secret and then asks the
// provider to envelope the result. With integrity checking on, the request
// digest must be acknowledged and the returned ciphertext must match the
// reported digest.
func (s *Service) EncryptLayered(ctx context.Context, key []byte) (EncryptedSecret, error) {
	out, err := s.encryptLayered(ctx, key)
	s.record(ctx, "encrypt", err)
	return out, err
}

func (s *Service) encryptLayered(ctx context.Context, key []byte) (EncryptedSecret, error) {
	inner, err := cryptox.Seal(key, s.appSecret)
	if err != nil {
		return "", fmt.Errorf("inner layer: %w", err)
	}

	req := &EncryptRequest{KeyName: s.keyName, Plaintext: inner}
	if s.profile.CheckIntegrity() {
		sum := cryptox.Checksum(inner)
		req.PlaintextCRC32C = &sum
	}

	resp, err := s.provider.Encrypt(ctx, req)
	if err != nil {
		return "", fmt.Errorf("envelope encrypt: %w", err)
	}

	if s.profile.CheckIntegrity() {
		if !resp.VerifiedPlaintextCRC32C {
			return "", fmt.Errorf("%w: encrypt request checksum not verified", common.ErrIntegrityViolation)
		}
		if resp.CiphertextCRC32C == nil || *resp.CiphertextCRC32C != cryptox.Checksum(resp.Ciphertext) {
			return "", fmt.Errorf("%w: encrypt response checksum mismatch", common.ErrIntegrityViolation)
		}
	}

	return EncryptedSecret(base64.StdEncoding.EncodeToString(resp.Ciphertext)), nil
}

// DecryptLayered undoes EncryptLayered. The caller owns the returned key
// and must wipe it once signing is done.
func (s *Service) DecryptLayered(ctx context.Context, secret EncryptedSecret) ([]byte, error) {
	out, err := s.decryptLayered(ctx, secret)
	s.record(ctx, "decrypt", err)
	return out, err
}

func (s *Service) decryptLayered(ctx context.Context, secret EncryptedSecret) ([]byte, error) {
	outer, err := base64.StdEncoding.DecodeString(string(secret))
	if err != nil {
		return nil, fmt.Errorf("%w: stored secret is not base64", common.ErrLayerMismatch)
	}

	req := &DecryptRequest{KeyName: s.keyName, Ciphertext: outer}
	if s.profile.CheckIntegrity() {
		sum := cryptox.Checksum(outer)
		req.CiphertextCRC32C = &sum
	}

	resp, err := s.provider.Decrypt(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("envelope decrypt: %w", err)
	}
	if resp == nil || len(resp.Plaintext) == 0 {
		return nil, common.ErrSecretUnavailable
	}

	if s.profile.CheckIntegrity() {
		if !resp.VerifiedCiphertextCRC32C {
			common.WipeByteArray(resp.Plaintext)
			return nil, fmt.Errorf("%w: decrypt request checksum not verified", common.ErrIntegrityViolation)
		}
		if resp.PlaintextCRC32C == nil || *resp.PlaintextCRC32C != cryptox.Checksum(resp.Plaintext) {
			common.WipeByteArray(resp.Plaintext)
			return nil, fmt.Errorf("%w: decrypt response checksum mismatch", common.ErrIntegrityViolation)
		}
	}

	key, err := cryptox.Open(resp.Plaintext, s.appSecret)
	common.WipeByteArray(resp.Plaintext)
	if err != nil {
		if errors.Is(err, cryptox.ErrMalformed) {
			return nil, fmt.Errorf("%w: %v", common.ErrLayerMismatch, err)
		}
		return nil, fmt.Errorf("inner layer: %w", err)
	}
	return key, nil
}

func (s *Service) record(ctx context.Context, op string, err error) {
	if err == nil {
		s.metrics.CustodyOp(op, metrics.OutcomeOK)
		return
	}
	s.metrics.CustodyOp(op, metrics.OutcomeError)
	if errors.Is(err, common.ErrIntegrityViolation) {
		s.logger.Error(ctx, "custody integrity failure", "op", op, "error", err)
	}
}
