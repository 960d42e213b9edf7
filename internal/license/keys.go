package license

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

const (
	// KeyLength is the number of hex characters kept from the digest
	KeyLength = 24
	// KeyGroupSize is the width of each dash-separated group
	KeyGroupSize = 4
	// DateLayout is the expiry date format bound into the digest and the license file
	DateLayout = "2006-01-02"
)

// Key is a formatted license key such as 0FCC-1E00-0613-730B-2B91-F356
type Key string

// String returns the formatted key
func (k Key) String() string {
	return string(k)
}

// DeriveKey computes the key bound to email and the calendar date of expiry.
// Only the date part of expiry in its own location is used.
func DeriveKey(email string, expiry time.Time, secret string) Key {
	sum := sha256.Sum256([]byte(email + "|" + expiry.Format(DateLayout) + "|" + secret))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))[:KeyLength]

	groups := make([]string, 0, KeyLength/KeyGroupSize)
	for i := 0; i < KeyLength; i += KeyGroupSize {
		groups = append(groups, digest[i:i+KeyGroupSize])
	}
	return Key(strings.Join(groups, "-"))
}

// NormalizeKey applies the comparison form used during validation
func NormalizeKey(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Generate issues a key valid until now plus durationDays
func Generate(email string, durationDays int, secret string, now time.Time) (Key, time.Time) {
	expiry := addDays(startOfDay(now), durationDays)
	return DeriveKey(email, expiry, secret), expiry
}

// MaskKey hides the middle of a key for logs
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func addDays(day time.Time, n int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, day.Location())
}

// daysBetween counts calendar days from a to b, ignoring clock time and DST shifts
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
