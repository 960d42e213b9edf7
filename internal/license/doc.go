// Package license implements the offline license key scheme.
//
// A key is the first 24 hex characters of
//
//	sha256(email + "|" + YYYY-MM-DD + "|" + secret)
//
// upper-cased and grouped in fours. The expiry date is not carried by the
// key itself: validation searches forward from today, one calendar day at a
// time, for the date that reproduces the key.
//
// The activated license is stored as base64 of {"email","expiry"} JSON in a
// single file that is always read and rewritten whole. A missing, corrupt
// or expired file all mean "not licensed".
//
//	m, _ := license.NewManager(license.Config{Secret: secret, LicenseFile: path})
//	rec, err := m.Activate(ctx, "ana@example.com", "0FCC-1E00-0613-730B-2B91-F356")
package license
