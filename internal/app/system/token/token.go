// internal/app/system/token/token.go
package token

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

const (
	// Length is the number of random bytes in a token (32 bytes = 256 bits
	// of entropy, encoded as 64 hex characters).
	Length = 32
	// DefaultTTL is how long an invite token is valid after issuance.
	DefaultTTL = 7 * 24 * time.Hour
)

// Issuer mints single-use invite tokens with a fixed time-to-live.
// It holds no state beyond the configured TTL.
type Issuer struct {
	ttl time.Duration
}

// NewIssuer creates an Issuer with the given TTL.
// If ttl is 0 or negative, DefaultTTL (7 days) is used.
func NewIssuer(ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{ttl: ttl}
}

// TTL returns the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns a fresh token and its absolute expiry (now + TTL).
func (i *Issuer) Issue() (string, time.Time) {
	return Generate(), time.Now().UTC().Add(i.ttl)
}

// Generate returns a random token drawn from the system CSPRNG.
// Panics if the random source fails; there is no weaker fallback.
func Generate() string {
	b := make([]byte, Length)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
