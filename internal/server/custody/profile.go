// Package custody generates wallet keys and wraps them in two layers: an
// inner AES-GCM seal under the application secret and an outer envelope
// from an external key management provider.
//
// Environment differences are captured once in a Profile so no call site
// branches on the environment name.
package custody

import (
	"fmt"

	"github.com/dmitrijs2005/tipkeeper/internal/server/config"
)

// Profile is the custody behaviour selected for the whole process.
type Profile int

const (
	ProfileDevelopment Profile = iota + 1
	ProfileTest
	ProfileProduction
)

// ParseProfile resolves the profile for an environment name.
func ParseProfile(env string) (Profile, error) {
	switch env {
	case config.EnvDevelopment:
		return ProfileDevelopment, nil
	case config.EnvTest:
		return ProfileTest, nil
	case config.EnvProduction:
		return ProfileProduction, nil
	default:
		return 0, fmt.Errorf("unknown environment %q", env)
	}
}

func (p Profile) String() string {
	switch p {
	case ProfileDevelopment:
		return config.EnvDevelopment
	case ProfileTest:
		return config.EnvTest
	case ProfileProduction:
		return config.EnvProduction
	default:
		return fmt.Sprintf("Profile(%d)", int(p))
	}
}

// CheckIntegrity reports whether envelope calls carry and verify CRC32C
// digests.
func (p Profile) CheckIntegrity() bool {
	return p != ProfileDevelopment
}

// UsesDevKey reports whether new wallets get the fixed local-chain key.
func (p Profile) UsesDevKey() bool {
	return p == ProfileDevelopment
}

// NotifiesAddresses reports whether new addresses go to the tracking webhook.
func (p Profile) NotifiesAddresses() bool {
	return p != ProfileDevelopment
}

// AllowsLocalProvider reports whether the in-process envelope provider may
// be used. Only development runs without a real KMS.
func (p Profile) AllowsLocalProvider() bool {
	return p == ProfileDevelopment
}
