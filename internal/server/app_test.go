package server

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/tipkeeper/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_RefusesDevelopmentSecretsInProduction(t *testing.T) {
	c := &config.Config{}
	c.LoadDefaults()
	c.Environment = config.EnvProduction
	// unreachable DSN: the secret check must fail before any dial
	c.DatabaseDSN = "postgres://nobody@127.0.0.1:1/none?connect_timeout=1"

	app, err := NewApp(context.Background(), c)

	require.ErrorIs(t, err, config.ErrInsecureSecrets)
	assert.Nil(t, app)
}

func TestNewApp_UnknownEnvironment(t *testing.T) {
	c := &config.Config{}
	c.LoadDefaults()
	c.Environment = "staging"

	_, err := NewApp(context.Background(), c)
	assert.ErrorContains(t, err, `unknown environment "staging"`)
}
