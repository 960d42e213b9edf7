// Package shared holds code used across packages that belongs to no
// single layer. Its testutil subpackage provides a capturing slog handler
// and license file fixtures for tests that run the application end to end.
package shared
