package middleware

import "context"

// LicenseChecker reports whether a usable license is present.
// It returns errors.ErrNoLicense when it is not.
type LicenseChecker interface {
	RequireLicense(ctx context.Context) error
}
