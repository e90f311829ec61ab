package custody

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfile(t *testing.T) {
	tests := []struct {
		env       string
		want      Profile
		integrity bool
		devKey    bool
		notify    bool
		local     bool
	}{
		{"development", ProfileDevelopment, false, true, false, true},
		{"test", ProfileTest, true, false, true, false},
		{"production", ProfileProduction, true, false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			p, err := ParseProfile(tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
			assert.Equal(t, tt.env, p.String())
			assert.Equal(t, tt.integrity, p.CheckIntegrity())
			assert.Equal(t, tt.devKey, p.UsesDevKey())
			assert.Equal(t, tt.notify, p.NotifiesAddresses())
			assert.Equal(t, tt.local, p.AllowsLocalProvider())
		})
	}
}

func TestParseProfile_Unknown(t *testing.T) {
	_, err := ParseProfile("staging")
	require.Error(t, err)
	assert.Equal(t, "Profile(0)", Profile(0).String())
}
