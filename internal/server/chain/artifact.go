package chain

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	sc "github.com/dmitrijs2005/tipkeeper/internal/server/config"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

//go:embed tips.abi.json
var defaultABI []byte

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3Getter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type s3Getter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Artifact is a deployed contract: where it lives and how to talk to it.
type Artifact struct {
	Address ethcommon.Address
	ABI     abi.ABI
}

type artifactJSON struct {
	Address string          `json:"address"`
	ABI     json.RawMessage `json:"abi"`
}

// ParseArtifact reads the {address, abi} document produced by the
// contract deployment scripts. fallbackAddress is used when the document
// carries no address.
func ParseArtifact(data []byte, fallbackAddress string) (*Artifact, error) {
	var doc artifactJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	if len(doc.ABI) == 0 {
		return nil, fmt.Errorf("artifact: no abi")
	}
	return newArtifact(doc.ABI, firstNonEmpty(doc.Address, fallbackAddress))
}

// DefaultArtifact pairs the built-in tips ABI with address.
func DefaultArtifact(address string) (*Artifact, error) {
	return newArtifact(defaultABI, address)
}

func newArtifact(rawABI []byte, address string) (*Artifact, error) {
	if !ethcommon.IsHexAddress(address) {
		return nil, fmt.Errorf("artifact: invalid contract address %q", address)
	}
	parsed, err := abi.JSON(bytes.NewReader(rawABI))
	if err != nil {
		return nil, fmt.Errorf("artifact abi: %w", err)
	}
	return &Artifact{Address: ethcommon.HexToAddress(address), ABI: parsed}, nil
}

// LoadArtifact resolves cfg.ContractArtifact: empty means the built-in
// ABI, s3://bucket/key is fetched from object storage, anything else is a
// local file path.
func LoadArtifact(ctx context.Context, cfg *sc.Config) (*Artifact, error) {
	src := cfg.ContractArtifact
	switch {
	case src == "":
		return DefaultArtifact(cfg.ContractAddress)
	case strings.HasPrefix(src, "s3://"):
		data, err := fetchS3(ctx, cfg, src)
		if err != nil {
			return nil, err
		}
		return ParseArtifact(data, cfg.ContractAddress)
	default:
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("artifact: %w", err)
		}
		return ParseArtifact(data, cfg.ContractAddress)
	}
}

func fetchS3(ctx context.Context, cfg *sc.Config, src string) ([]byte, error) {
	u, err := url.Parse(src)
	if err != nil || u.Host == "" || strings.Trim(u.Path, "/") == "" {
		return nil, fmt.Errorf("artifact: bad object url %q", src)
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.S3Region)}
	if cfg.S3RootUser != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(strings.TrimPrefix(u.Path, "/")),
	})
	if err != nil {
		return nil, fmt.Errorf("artifact: get %s: %w", src, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
