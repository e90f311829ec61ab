package custody

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type fakeKMS struct {
	kmsAPI

	encReq  *kmspb.EncryptRequest
	encResp *kmspb.EncryptResponse
	decReq  *kmspb.DecryptRequest
	decResp *kmspb.DecryptResponse
	ringReq *kmspb.CreateKeyRingRequest
	keyReq  *kmspb.CreateCryptoKeyRequest
	err     error
	closed  bool
}

func (f *fakeKMS) Encrypt(_ context.Context, req *kmspb.EncryptRequest, _ ...gax.CallOption) (*kmspb.EncryptResponse, error) {
	f.encReq = req
	return f.encResp, f.err
}

func (f *fakeKMS) Decrypt(_ context.Context, req *kmspb.DecryptRequest, _ ...gax.CallOption) (*kmspb.DecryptResponse, error) {
	f.decReq = req
	return f.decResp, f.err
}

func (f *fakeKMS) CreateKeyRing(_ context.Context, req *kmspb.CreateKeyRingRequest, _ ...gax.CallOption) (*kmspb.KeyRing, error) {
	f.ringReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &kmspb.KeyRing{Name: req.GetParent() + "/keyRings/" + req.GetKeyRingId()}, nil
}

func (f *fakeKMS) CreateCryptoKey(_ context.Context, req *kmspb.CreateCryptoKeyRequest, _ ...gax.CallOption) (*kmspb.CryptoKey, error) {
	f.keyReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &kmspb.CryptoKey{Name: req.GetParent() + "/cryptoKeys/" + req.GetCryptoKeyId()}, nil
}

func (f *fakeKMS) Close() error {
	f.closed = true
	return nil
}

func TestGCPProvider_EncryptMapsChecksums(t *testing.T) {
	f := &fakeKMS{encResp: &kmspb.EncryptResponse{
		Ciphertext:              []byte("ct"),
		CiphertextCrc32C:        wrapperspb.Int64(99),
		VerifiedPlaintextCrc32C: true,
	}}
	p := &GCPProvider{client: f}

	sum := int64(42)
	resp, err := p.Encrypt(context.Background(), &EncryptRequest{KeyName: testKeyName, Plaintext: []byte("pt"), PlaintextCRC32C: &sum})
	require.NoError(t, err)

	assert.Equal(t, testKeyName, f.encReq.GetName())
	assert.Equal(t, int64(42), f.encReq.GetPlaintextCrc32C().GetValue())
	assert.Equal(t, []byte("ct"), resp.Ciphertext)
	assert.Equal(t, int64(99), *resp.CiphertextCRC32C)
	assert.True(t, resp.VerifiedPlaintextCRC32C)
}

func TestGCPProvider_EncryptWithoutChecksum(t *testing.T) {
	f := &fakeKMS{encResp: &kmspb.EncryptResponse{Ciphertext: []byte("ct")}}
	p := &GCPProvider{client: f}

	resp, err := p.Encrypt(context.Background(), &EncryptRequest{KeyName: testKeyName, Plaintext: []byte("pt")})
	require.NoError(t, err)
	assert.Nil(t, f.encReq.GetPlaintextCrc32C())
	assert.Nil(t, resp.CiphertextCRC32C)
	assert.False(t, resp.VerifiedPlaintextCRC32C)
}

func TestGCPProvider_Decrypt(t *testing.T) {
	f := &fakeKMS{decResp: &kmspb.DecryptResponse{Plaintext: []byte("pt"), PlaintextCrc32C: wrapperspb.Int64(7)}}
	p := &GCPProvider{client: f}

	sum := int64(5)
	resp, err := p.Decrypt(context.Background(), &DecryptRequest{KeyName: testKeyName, Ciphertext: []byte("ct"), CiphertextCRC32C: &sum})
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.decReq.GetCiphertextCrc32C().GetValue())
	assert.Equal(t, []byte("pt"), resp.Plaintext)
	assert.Equal(t, int64(7), *resp.PlaintextCRC32C)
	assert.True(t, resp.VerifiedCiphertextCRC32C)

	resp, err = p.Decrypt(context.Background(), &DecryptRequest{KeyName: testKeyName, Ciphertext: []byte("ct")})
	require.NoError(t, err)
	assert.False(t, resp.VerifiedCiphertextCRC32C)
}

func TestGCPProvider_Errors(t *testing.T) {
	f := &fakeKMS{err: errors.New("permission denied")}
	p := &GCPProvider{client: f}

	_, err := p.Encrypt(context.Background(), &EncryptRequest{KeyName: testKeyName})
	assert.EqualError(t, err, "permission denied")
	_, err = p.Decrypt(context.Background(), &DecryptRequest{KeyName: testKeyName})
	assert.EqualError(t, err, "permission denied")
	_, err = p.CreateKeyRing(context.Background(), KeyRef{})
	assert.ErrorContains(t, err, "create key ring")
}

func TestGCPProvider_Provisioning(t *testing.T) {
	f := &fakeKMS{}
	p := &GCPProvider{client: f}
	ref := KeyRef{Project: "acme", Location: "us-east1", KeyRing: "wallets", CryptoKey: "wallet-key"}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ring, err := p.CreateKeyRing(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "projects/acme/locations/us-east1/keyRings/wallets", ring)
	assert.Equal(t, "wallets", f.ringReq.GetKeyRingId())

	name, err := p.CreateCryptoKey(context.Background(), ref, DefaultCryptoKeySpec(now))
	require.NoError(t, err)
	assert.Equal(t, ref.Name(), name)

	ck := f.keyReq.GetCryptoKey()
	assert.Equal(t, kmspb.CryptoKey_ENCRYPT_DECRYPT, ck.GetPurpose())
	assert.Equal(t, kmspb.CryptoKeyVersion_GOOGLE_SYMMETRIC_ENCRYPTION, ck.GetVersionTemplate().GetAlgorithm())
	assert.Equal(t, 240*time.Hour, ck.GetRotationPeriod().AsDuration())
	assert.Equal(t, now.Add(24*time.Hour), ck.GetNextRotationTime().AsTime())

	require.NoError(t, p.Close())
	assert.True(t, f.closed)
}

func TestNewGCPProvider_EmulatorOptions(t *testing.T) {
	orig := newKMSClient
	t.Cleanup(func() { newKMSClient = orig })

	var got int
	newKMSClient = func(ctx context.Context, opts ...option.ClientOption) (kmsAPI, error) {
		got = len(opts)
		return &fakeKMS{}, nil
	}

	_, err := NewGCPProvider(context.Background(), "localhost:9010")
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	_, err = NewGCPProvider(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	newKMSClient = func(ctx context.Context, opts ...option.ClientOption) (kmsAPI, error) {
		return nil, errors.New("no credentials")
	}
	_, err = NewGCPProvider(context.Background(), "")
	assert.ErrorContains(t, err, "kms client: no credentials")
}
