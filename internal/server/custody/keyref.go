package custody

import (
	"fmt"
	"time"
)

// Rotation policy applied to newly provisioned crypto keys.
const (
	RotationPeriod     = 10 * 24 * time.Hour
	FirstRotationDelay = 24 * time.Hour
)

// KeyRef names a crypto key inside the provider.
type KeyRef struct {
	Project   string
	Location  string
	KeyRing   string
	CryptoKey string
}

// LocationName is the parent of key rings.
func (r KeyRef) LocationName() string {
	return fmt.Sprintf("projects/%s/locations/%s", r.Project, r.Location)
}

// KeyRingName is the parent of crypto keys.
func (r KeyRef) KeyRingName() string {
	return fmt.Sprintf("%s/keyRings/%s", r.LocationName(), r.KeyRing)
}

// Name is the full resource name used in encrypt and decrypt calls.
func (r KeyRef) Name() string {
	return fmt.Sprintf("%s/cryptoKeys/%s", r.KeyRingName(), r.CryptoKey)
}

// CryptoKeySpec carries the rotation schedule for CreateCryptoKey.
type CryptoKeySpec struct {
	RotationPeriod   time.Duration
	NextRotationTime time.Time
}

// DefaultCryptoKeySpec rotates every RotationPeriod starting one day after now.
func DefaultCryptoKeySpec(now time.Time) CryptoKeySpec {
	return CryptoKeySpec{
		RotationPeriod:   RotationPeriod,
		NextRotationTime: now.Add(FirstRotationDelay),
	}
}
