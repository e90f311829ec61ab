package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestNew_WritesToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tipkeeper.log")

	log, closer := New(Options{Level: "info", File: path, MaxSizeMB: 1})
	log.Info(context.Background(), "hello-file", "k", "v")
	log.Debug(context.Background(), "filtered-out")
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"hello-file"`)
	assert.Contains(t, string(b), `"k":"v"`)
	assert.NotContains(t, string(b), "filtered-out")
}

func TestNew_StdoutOnly(t *testing.T) {
	log, closer := New(Options{})
	require.NotNil(t, log)
	assert.NoError(t, closer.Close())
}
