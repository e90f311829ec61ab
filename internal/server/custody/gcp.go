package custody

import (
	"context"
	"fmt"

	kms "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// kmsAPI is the part of *kms.KeyManagementClient used here.
type kmsAPI interface {
	Encrypt(ctx context.Context, req *kmspb.EncryptRequest, opts ...gax.CallOption) (*kmspb.EncryptResponse, error)
	Decrypt(ctx context.Context, req *kmspb.DecryptRequest, opts ...gax.CallOption) (*kmspb.DecryptResponse, error)
	CreateKeyRing(ctx context.Context, req *kmspb.CreateKeyRingRequest, opts ...gax.CallOption) (*kmspb.KeyRing, error)
	CreateCryptoKey(ctx context.Context, req *kmspb.CreateCryptoKeyRequest, opts ...gax.CallOption) (*kmspb.CryptoKey, error)
	Close() error
}

// GCPProvider talks to Cloud KMS over gRPC.
type GCPProvider struct {
	client kmsAPI
}

// newKMSClient is a seam for tests.
var newKMSClient = func(ctx context.Context, opts ...option.ClientOption) (kmsAPI, error) {
	return kms.NewKeyManagementClient(ctx, opts...)
}

// NewGCPProvider dials Cloud KMS. A non-empty endpoint targets an emulator
// over plaintext gRPC without credentials.
func NewGCPProvider(ctx context.Context, endpoint string) (*GCPProvider, error) {
	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts,
			option.WithEndpoint(endpoint),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	c, err := newKMSClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("kms client: %w", err)
	}
	return &GCPProvider{client: c}, nil
}

func (p *GCPProvider) Close() error {
	return p.client.Close()
}

func (p *GCPProvider) Encrypt(ctx context.Context, req *EncryptRequest) (*EncryptResponse, error) {
	in := &kmspb.EncryptRequest{Name: req.KeyName, Plaintext: req.Plaintext}
	if req.PlaintextCRC32C != nil {
		in.PlaintextCrc32C = wrapperspb.Int64(*req.PlaintextCRC32C)
	}

	out, err := p.client.Encrypt(ctx, in)
	if err != nil {
		return nil, err
	}

	resp := &EncryptResponse{
		Ciphertext:              out.GetCiphertext(),
		VerifiedPlaintextCRC32C: out.GetVerifiedPlaintextCrc32C(),
	}
	if out.GetCiphertextCrc32C() != nil {
		v := out.GetCiphertextCrc32C().GetValue()
		resp.CiphertextCRC32C = &v
	}
	return resp, nil
}

// Decrypt reports VerifiedCiphertextCRC32C when a checksum was sent and the
// call succeeded: Cloud KMS rejects a mismatching ciphertext checksum with
// INVALID_ARGUMENT instead of returning a flag.
func (p *GCPProvider) Decrypt(ctx context.Context, req *DecryptRequest) (*DecryptResponse, error) {
	in := &kmspb.DecryptRequest{Name: req.KeyName, Ciphertext: req.Ciphertext}
	if req.CiphertextCRC32C != nil {
		in.CiphertextCrc32C = wrapperspb.Int64(*req.CiphertextCRC32C)
	}

	out, err := p.client.Decrypt(ctx, in)
	if err != nil {
		return nil, err
	}

	resp := &DecryptResponse{
		Plaintext:                out.GetPlaintext(),
		VerifiedCiphertextCRC32C: req.CiphertextCRC32C != nil,
	}
	if out.GetPlaintextCrc32C() != nil {
		v := out.GetPlaintextCrc32C().GetValue()
		resp.PlaintextCRC32C = &v
	}
	return resp, nil
}

func (p *GCPProvider) CreateKeyRing(ctx context.Context, ref KeyRef) (string, error) {
	kr, err := p.client.CreateKeyRing(ctx, &kmspb.CreateKeyRingRequest{
		Parent:    ref.LocationName(),
		KeyRingId: ref.KeyRing,
		KeyRing:   &kmspb.KeyRing{},
	})
	if err != nil {
		return "", fmt.Errorf("create key ring: %w", err)
	}
	return kr.GetName(), nil
}

func (p *GCPProvider) CreateCryptoKey(ctx context.Context, ref KeyRef, spec CryptoKeySpec) (string, error) {
	ck, err := p.client.CreateCryptoKey(ctx, &kmspb.CreateCryptoKeyRequest{
		Parent:      ref.KeyRingName(),
		CryptoKeyId: ref.CryptoKey,
		CryptoKey: &kmspb.CryptoKey{
			Purpose: kmspb.CryptoKey_ENCRYPT_DECRYPT,
			VersionTemplate: &kmspb.CryptoKeyVersionTemplate{
				Algorithm: kmspb.CryptoKeyVersion_GOOGLE_SYMMETRIC_ENCRYPTION,
			},
			RotationSchedule: &kmspb.CryptoKey_RotationPeriod{
				RotationPeriod: durationpb.New(spec.RotationPeriod),
			},
			NextRotationTime: timestamppb.New(spec.NextRotationTime),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create crypto key: %w", err)
	}
	return ck.GetName(), nil
}
