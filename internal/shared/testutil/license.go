package testutil

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"labelcli/internal/config"
	"labelcli/internal/license"
)

// TestEmail is the customer used by the fixtures
const TestEmail = "ana@example.com"

// LicenseFixture manages a license file in a per-test directory
type LicenseFixture struct {
	Path   string
	Secret string
}

// NewLicenseFixture returns a fixture whose license file does not exist yet
func NewLicenseFixture(t *testing.T) *LicenseFixture {
	t.Helper()
	return &LicenseFixture{
		Path:   filepath.Join(t.TempDir(), config.DefaultLicenseFileName),
		Secret: config.DefaultLicenseSecret,
	}
}

// Key returns a key for email that validates today and expires in days
func (f *LicenseFixture) Key(email string, days int) string {
	key, _ := license.Generate(email, days, f.Secret, time.Now())
	return key.String()
}

// Write stores a license expiring days from today; negative days write an expired one
func (f *LicenseFixture) Write(t *testing.T, email string, days int) {
	t.Helper()
	m, err := license.NewManager(license.Config{Secret: f.Secret, LicenseFile: f.Path})
	require.NoError(t, err)
	require.NoError(t, m.SaveLicense(email, time.Now().AddDate(0, 0, days)))
}

// WriteRaw stores content as the license file, for corrupt-file cases
func (f *LicenseFixture) WriteRaw(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.Path, []byte(content), 0o600))
}

// CorruptLicenses are license file bodies that must be treated as absent
func CorruptLicenses() map[string]string {
	enc := base64.StdEncoding.EncodeToString
	return map[string]string{
		"empty":        "",
		"not base64":   "%%%not-base64%%%",
		"not json":     enc([]byte("email=ana@example.com")),
		"missing date": enc([]byte(`{"email":"ana@example.com"}`)),
		"bad date":     enc([]byte(`{"email":"ana@example.com","expiry":"10/03/2026"}`)),
	}
}

// Config returns the default configuration pointed at the fixture, with
// throttling off and an ephemeral port
func (f *LicenseFixture) Config(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.LicenseFile = f.Path
	cfg.Paths.LogsDir = t.TempDir()
	cfg.License.Secret = f.Secret
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.Security.RateLimit.Enabled = false
	return cfg
}
