package license

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultWindowDays bounds the expiry search performed by ValidateKey
const DefaultWindowDays = 730

// Config carries everything the manager needs. Nothing is read from
// process-wide state.
type Config struct {
	Secret      string
	LicenseFile string
	// Window is the number of days searched from today, default DefaultWindowDays
	Window int
	// Now returns the current time, default time.Now
	Now    func() time.Time
	Logger *slog.Logger
}

// Manager validates keys and owns the license file
type Manager struct {
	secret      string
	licenseFile string
	window      int
	now         func() time.Time
	log         *Logger

	// mu serializes whole-file reads and writes
	mu sync.Mutex
}

// Info summarizes the current license for status displays
type Info struct {
	Licensed      bool      `json:"licensed"`
	Email         string    `json:"email,omitempty"`
	Expiry        time.Time `json:"expiry,omitempty"`
	DaysRemaining int       `json:"days_remaining"`
	Level         string    `json:"level"`
}

// NewManager creates a manager from cfg
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("license secret must not be empty")
	}
	if cfg.LicenseFile == "" {
		return nil, errors.New("license file path must not be empty")
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindowDays
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Manager{
		secret:      cfg.Secret,
		licenseFile: cfg.LicenseFile,
		window:      cfg.Window,
		now:         cfg.Now,
		log:         NewLogger(cfg.Logger),
	}, nil
}

// LicensePath returns the file the manager reads and writes
func (m *Manager) LicensePath() string {
	return m.licenseFile
}

func (m *Manager) today() time.Time {
	return startOfDay(m.now())
}

// ValidateKey searches today and the following window-1 days for the expiry
// date the key was derived from. The first matching day wins.
func (m *Manager) ValidateKey(email, key string) (time.Time, bool) {
	expiry, _, ok := m.search(email, key)
	return expiry, ok
}

func (m *Manager) search(email, key string) (time.Time, int, bool) {
	want := Key(NormalizeKey(key))
	today := m.today()
	for d := 0; d < m.window; d++ {
		candidate := addDays(today, d)
		if DeriveKey(email, candidate, m.secret) == want {
			return candidate, d, true
		}
	}
	return time.Time{}, m.window, false
}

// SaveLicense overwrites the license file with email and expiry
func (m *Manager) SaveLicense(email string, expiry time.Time) error {
	data, err := encodeLicense(Record{Email: email, Expiry: expiry})
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if dir := filepath.Dir(m.licenseFile); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create license directory: %w", err)
		}
	}
	if err := os.WriteFile(m.licenseFile, data, 0o600); err != nil {
		return fmt.Errorf("write license file: %w", err)
	}
	return nil
}

// LoadLicense returns the stored record when it is present, well formed and
// not expired. The three failure cases are indistinguishable to callers.
func (m *Manager) LoadLicense() (Record, bool) {
	rec, status := m.load()
	return rec, status == StatusPresent
}

func (m *Manager) load() (Record, LoadStatus) {
	m.mu.Lock()
	data, err := os.ReadFile(m.licenseFile)
	m.mu.Unlock()

	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.log.Log(context.Background(), LogEntry{
				Level:  WarnLevel,
				Action: "license_load",
				Result: "license file unreadable",
				Error:  err,
			})
		}
		return Record{}, StatusAbsent
	}

	rec, status := decodeLicense(data, m.today())
	m.log.Log(context.Background(), LogEntry{
		Level:     DebugLevel,
		Action:    "license_load",
		Result:    "license file decoded",
		UserEmail: rec.Email,
		Metadata:  map[string]interface{}{"status": status.String()},
	})
	return rec, status
}

// Activate validates email and key, persists the license and returns it
func (m *Manager) Activate(ctx context.Context, email, key string) (Record, error) {
	start := m.now()
	email = strings.TrimSpace(email)
	key = NormalizeKey(key)

	if email == "" {
		return Record{}, ErrMissingEmail
	}
	if key == "" {
		return Record{}, ErrMissingKey
	}

	expiry, scanned, ok := m.search(email, key)
	if !ok {
		m.log.Log(ctx, LogEntry{
			Level:      WarnLevel,
			Action:     "license_activate",
			Result:     "license key rejected",
			LicenseKey: key,
			UserEmail:  email,
			Duration:   m.now().Sub(start),
		})
		return Record{}, fmt.Errorf("activate %s: %w", email, ErrInvalidKey)
	}

	if err := m.SaveLicense(email, expiry); err != nil {
		return Record{}, err
	}

	m.log.Log(ctx, LogEntry{
		Level:      InfoLevel,
		Action:     "license_activate",
		Result:     "license activated",
		LicenseKey: key,
		UserEmail:  email,
		Duration:   m.now().Sub(start),
		Metadata: map[string]interface{}{
			"expiry":       expiry.Format(DateLayout),
			"days_scanned": scanned + 1,
		},
	})
	return Record{Email: email, Expiry: expiry}, nil
}

// DaysRemaining returns whole calendar days until expiry, or 0 without a license
func (m *Manager) DaysRemaining() int {
	rec, ok := m.LoadLicense()
	if !ok {
		return 0
	}
	return max(0, daysBetween(m.today(), rec.Expiry))
}

// Status describes the current license with a renewal level:
// active, warning (30 days or fewer), critical (7 or fewer) or unlicensed.
func (m *Manager) Status() Info {
	rec, ok := m.LoadLicense()
	if !ok {
		return Info{Level: "unlicensed"}
	}

	days := max(0, daysBetween(m.today(), rec.Expiry))
	level := "active"
	switch {
	case days <= 7:
		level = "critical"
	case days <= 30:
		level = "warning"
	}

	return Info{
		Licensed:      true,
		Email:         rec.Email,
		Expiry:        rec.Expiry,
		DaysRemaining: days,
		Level:         level,
	}
}
