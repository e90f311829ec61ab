package custody

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/tipkeeper/internal/cryptox"
)

var (
	ErrKeyNotFound      = errors.New("crypto key not found")
	ErrChecksumMismatch = errors.New("request checksum mismatch")
)

// LocalProvider is an in-process envelope provider for development and
// tests. It behaves like a remote KMS: keys are addressed by resource name,
// request checksums are verified and response checksums are reported.
type LocalProvider struct {
	secret []byte

	mu       sync.RWMutex
	keyRings map[string]struct{}
	keys     map[string]CryptoKeySpec
}

// NewLocalProvider registers keyNames so they can be used without
// provisioning.
func NewLocalProvider(secret []byte, keyNames ...string) *LocalProvider {
	p := &LocalProvider{
		secret:   secret,
		keyRings: map[string]struct{}{},
		keys:     map[string]CryptoKeySpec{},
	}
	for _, n := range keyNames {
		p.keys[n] = CryptoKeySpec{}
	}
	return p
}

// developmentOnly marks providers that must not serve production-like
// profiles.
type developmentOnly interface {
	developmentOnly()
}

func (p *LocalProvider) developmentOnly() {}

func (p *LocalProvider) keySecret(name string) ([]byte, error) {
	p.mu.RLock()
	_, ok := p.keys[name]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
	}
	out := make([]byte, 0, len(p.secret)+1+len(name))
	out = append(out, p.secret...)
	out = append(out, '/')
	return append(out, name...), nil
}

func (p *LocalProvider) Encrypt(_ context.Context, req *EncryptRequest) (*EncryptResponse, error) {
	secret, err := p.keySecret(req.KeyName)
	if err != nil {
		return nil, err
	}
	if req.PlaintextCRC32C != nil && *req.PlaintextCRC32C != cryptox.Checksum(req.Plaintext) {
		return nil, ErrChecksumMismatch
	}

	ct, err := cryptox.Seal(req.Plaintext, secret)
	if err != nil {
		return nil, err
	}
	sum := cryptox.Checksum(ct)
	return &EncryptResponse{
		Ciphertext:              ct,
		CiphertextCRC32C:        &sum,
		VerifiedPlaintextCRC32C: req.PlaintextCRC32C != nil,
	}, nil
}

func (p *LocalProvider) Decrypt(_ context.Context, req *DecryptRequest) (*DecryptResponse, error) {
	secret, err := p.keySecret(req.KeyName)
	if err != nil {
		return nil, err
	}
	if req.CiphertextCRC32C != nil && *req.CiphertextCRC32C != cryptox.Checksum(req.Ciphertext) {
		return nil, ErrChecksumMismatch
	}

	pt, err := cryptox.Open(req.Ciphertext, secret)
	if err != nil {
		return nil, err
	}
	sum := cryptox.Checksum(pt)
	return &DecryptResponse{
		Plaintext:                pt,
		PlaintextCRC32C:          &sum,
		VerifiedCiphertextCRC32C: req.CiphertextCRC32C != nil,
	}, nil
}

func (p *LocalProvider) CreateKeyRing(_ context.Context, ref KeyRef) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	name := ref.KeyRingName()
	p.keyRings[name] = struct{}{}
	return name, nil
}

func (p *LocalProvider) CreateCryptoKey(_ context.Context, ref KeyRef, spec CryptoKeySpec) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.keyRings[ref.KeyRingName()]; !ok {
		return "", fmt.Errorf("%w: key ring %s", ErrKeyNotFound, ref.KeyRingName())
	}
	p.keys[ref.Name()] = spec
	return ref.Name(), nil
}
