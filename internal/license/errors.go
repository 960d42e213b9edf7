package license

import apperrors "labelcli/internal/errors"

// Errors returned by Activate. They alias the shared sentinels so the HTTP
// layer can map them without importing this package.
var (
	ErrInvalidKey   = apperrors.ErrInvalidKey
	ErrMissingEmail = apperrors.ErrMissingEmail
	ErrMissingKey   = apperrors.ErrMissingKey
)
