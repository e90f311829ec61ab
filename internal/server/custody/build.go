package custody

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/tipkeeper/internal/server/config"
)

// Backend names accepted in config.KMSBackend.
const (
	BackendLocal = "local"
	BackendGCP   = "gcp"
)

// KeyRefFromConfig builds the configured key reference.
func KeyRefFromConfig(c *config.Config) KeyRef {
	return KeyRef{
		Project:   c.KMSProject,
		Location:  c.KMSLocation,
		KeyRing:   c.KMSKeyRing,
		CryptoKey: c.KMSCryptoKey,
	}
}

// ProviderBundle is a provider that can also provision keys and be closed.
type ProviderBundle interface {
	Provider
	KeyAdmin
	io.Closer
}

// NewProviderFromConfig builds the configured envelope provider.
func NewProviderFromConfig(ctx context.Context, c *config.Config) (ProviderBundle, error) {
	switch c.KMSBackend {
	case BackendLocal:
		return localBundle{NewLocalProvider([]byte(c.KMSLocalSecret), KeyRefFromConfig(c).Name())}, nil
	case BackendGCP:
		return NewGCPProvider(ctx, c.KMSEndpoint)
	default:
		return nil, fmt.Errorf("unknown kms backend %q", c.KMSBackend)
	}
}

type localBundle struct {
	*LocalProvider
}

func (localBundle) Close() error { return nil }
