package license

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ManagerTestSuite struct {
	suite.Suite
	licenseFile string
	now         time.Time
	logs        *bytes.Buffer
	manager     *Manager
}

func (s *ManagerTestSuite) SetupTest() {
	s.licenseFile = filepath.Join(s.T().TempDir(), "nested", ".labelprinterlicense.dat")
	s.now = time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)
	s.logs = &bytes.Buffer{}

	m, err := NewManager(Config{
		Secret:      testSecret,
		LicenseFile: s.licenseFile,
		Now:         func() time.Time { return s.now },
		Logger:      slog.New(slog.NewJSONHandler(s.logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	s.Require().NoError(err)
	s.manager = m
}

func (s *ManagerTestSuite) TestValidateKeyFindsExpiry() {
	expiry, ok := s.manager.ValidateKey("ana@example.com", "0FCC-1E00-0613-730B-2B91-F356")
	s.True(ok)
	s.Equal(date(2026, time.March, 10), expiry)
}

func (s *ManagerTestSuite) TestValidateKeyNormalizesInput() {
	_, ok := s.manager.ValidateKey("ana@example.com", "  0fcc-1e00-0613-730b-2b91-f356 \t")
	s.True(ok)
}

func (s *ManagerTestSuite) TestValidateKeyRejects() {
	tests := []struct {
		name  string
		email string
		key   string
	}{
		{"wrong email", "bob@example.com", "0FCC-1E00-0613-730B-2B91-F356"},
		{"garbage", "ana@example.com", "not-a-key"},
		{"empty", "ana@example.com", ""},
		{"expired yesterday", "ana@example.com", DeriveKey("ana@example.com", date(2025, time.March, 9), testSecret).String()},
		{"beyond window", "ana@example.com", DeriveKey("ana@example.com", date(2025, time.March, 10).AddDate(0, 0, 730), testSecret).String()},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			expiry, ok := s.manager.ValidateKey(tt.email, tt.key)
			s.False(ok)
			s.True(expiry.IsZero())
		})
	}
}

func (s *ManagerTestSuite) TestValidateKeyWindowEdges() {
	today := date(2025, time.March, 10)

	_, ok := s.manager.ValidateKey("a@b.c", DeriveKey("a@b.c", today, testSecret).String())
	s.True(ok, "day 0 is inside the window")

	last := today.AddDate(0, 0, 729)
	expiry, ok := s.manager.ValidateKey("a@b.c", DeriveKey("a@b.c", last, testSecret).String())
	s.True(ok, "day 729 is inside the window")
	s.Equal(last, expiry)
}

func (s *ManagerTestSuite) TestGeneratedKeysValidate() {
	for _, days := range []int{0, 1, 30, 365, 729} {
		key, expiry := Generate("ana@example.com", days, testSecret, s.now)
		got, ok := s.manager.ValidateKey("ana@example.com", key.String())
		s.True(ok, "days=%d", days)
		s.Equal(expiry, got, "days=%d", days)
	}
}

func (s *ManagerTestSuite) TestSaveLoadRoundTrip() {
	expiry := date(2026, time.March, 10)
	s.Require().NoError(s.manager.SaveLicense("ana@example.com", expiry))

	rec, ok := s.manager.LoadLicense()
	s.True(ok)
	s.Equal("ana@example.com", rec.Email)
	s.Equal(expiry, rec.Expiry)

	data, err := os.ReadFile(s.licenseFile)
	s.Require().NoError(err)
	s.Equal("eyJlbWFpbCI6ImFuYUBleGFtcGxlLmNvbSIsImV4cGlyeSI6IjIwMjYtMDMtMTAifQ==", string(data))
}

func (s *ManagerTestSuite) TestLoadFailuresLookAlike() {
	_, status := s.manager.load()
	s.Equal(StatusAbsent, status)
	_, ok := s.manager.LoadLicense()
	s.False(ok)

	s.Require().NoError(os.WriteFile(s.licenseFile, []byte("corrupted!"), 0o600))
	_, status = s.manager.load()
	s.Equal(StatusMalformed, status)
	_, ok = s.manager.LoadLicense()
	s.False(ok)

	s.Require().NoError(s.manager.SaveLicense("ana@example.com", date(2025, time.March, 9)))
	_, status = s.manager.load()
	s.Equal(StatusExpired, status)
	_, ok = s.manager.LoadLicense()
	s.False(ok)
}

func (s *ManagerTestSuite) TestExpiryFollowsClock() {
	s.Require().NoError(s.manager.SaveLicense("ana@example.com", date(2025, time.March, 12)))

	for _, tc := range []struct {
		now  time.Time
		ok   bool
		days int
	}{
		{time.Date(2025, time.March, 10, 23, 59, 0, 0, time.UTC), true, 2},
		{time.Date(2025, time.March, 12, 23, 59, 0, 0, time.UTC), true, 0},
		{time.Date(2025, time.March, 13, 0, 0, 0, 0, time.UTC), false, 0},
	} {
		s.now = tc.now
		_, ok := s.manager.LoadLicense()
		s.Equal(tc.ok, ok, tc.now.String())
		s.Equal(tc.days, s.manager.DaysRemaining(), tc.now.String())
	}
}

func (s *ManagerTestSuite) TestActivate() {
	rec, err := s.manager.Activate(context.Background(), "  ana@example.com ", " 0fcc-1e00-0613-730b-2b91-f356 ")
	s.Require().NoError(err)
	s.Equal("ana@example.com", rec.Email)
	s.Equal(date(2026, time.March, 10), rec.Expiry)

	loaded, ok := s.manager.LoadLicense()
	s.True(ok)
	s.Equal(rec, loaded)
	s.Equal(365, s.manager.DaysRemaining())

	s.Contains(s.logs.String(), "license activated")
	s.Contains(s.logs.String(), "0FCC****F356")
	s.NotContains(s.logs.String(), "1E00-0613")
}

func (s *ManagerTestSuite) TestActivateErrors() {
	ctx := context.Background()

	_, err := s.manager.Activate(ctx, "   ", "0FCC-1E00-0613-730B-2B91-F356")
	s.ErrorIs(err, ErrMissingEmail)

	_, err = s.manager.Activate(ctx, "ana@example.com", "  ")
	s.ErrorIs(err, ErrMissingKey)

	_, err = s.manager.Activate(ctx, "bob@example.com", "0FCC-1E00-0613-730B-2B91-F356")
	s.ErrorIs(err, ErrInvalidKey)

	_, statErr := os.Stat(s.licenseFile)
	s.True(errors.Is(statErr, os.ErrNotExist), "failed activation must not write a file")
}

func (s *ManagerTestSuite) TestActivateOverwritesPreviousLicense() {
	ctx := context.Background()
	first, _ := Generate("ana@example.com", 10, testSecret, s.now)
	second, _ := Generate("bob@example.com", 400, testSecret, s.now)

	_, err := s.manager.Activate(ctx, "ana@example.com", first.String())
	s.Require().NoError(err)
	_, err = s.manager.Activate(ctx, "bob@example.com", second.String())
	s.Require().NoError(err)

	rec, ok := s.manager.LoadLicense()
	s.True(ok)
	s.Equal("bob@example.com", rec.Email)
	s.Equal(400, s.manager.DaysRemaining())
}

func (s *ManagerTestSuite) TestStatusLevels() {
	s.Equal(Info{Level: "unlicensed"}, s.manager.Status())

	for _, tc := range []struct {
		days  int
		level string
	}{
		{365, "active"},
		{31, "active"},
		{30, "warning"},
		{8, "warning"},
		{7, "critical"},
		{0, "critical"},
	} {
		s.Require().NoError(s.manager.SaveLicense("ana@example.com", date(2025, time.March, 10).AddDate(0, 0, tc.days)))
		info := s.manager.Status()
		s.True(info.Licensed)
		s.Equal(tc.days, info.DaysRemaining)
		s.Equal(tc.level, info.Level, "days=%d", tc.days)
	}
}

func (s *ManagerTestSuite) TestConcurrentSaveAndLoad() {
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = s.manager.SaveLicense("ana@example.com", date(2026, time.March, 10).AddDate(0, 0, i))
		}(i)
		go func() {
			defer wg.Done()
			s.manager.LoadLicense()
		}()
	}
	wg.Wait()

	_, ok := s.manager.LoadLicense()
	s.True(ok)
}

func TestManagerTestSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager(Config{LicenseFile: "x"})
	assert.Error(t, err)

	_, err = NewManager(Config{Secret: "s"})
	assert.Error(t, err)

	m, err := NewManager(Config{Secret: "s", LicenseFile: "x"})
	require.NoError(t, err)
	assert.Equal(t, DefaultWindowDays, m.window)
	assert.Equal(t, "x", m.LicensePath())
}

func TestSmallWindow(t *testing.T) {
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	m, err := NewManager(Config{
		Secret:      testSecret,
		LicenseFile: filepath.Join(t.TempDir(), "lic.dat"),
		Window:      5,
		Now:         func() time.Time { return now },
	})
	require.NoError(t, err)

	inside, _ := Generate("a@b.c", 4, testSecret, now)
	outside, _ := Generate("a@b.c", 5, testSecret, now)

	_, ok := m.ValidateKey("a@b.c", inside.String())
	assert.True(t, ok)
	_, ok = m.ValidateKey("a@b.c", outside.String())
	assert.False(t, ok)
}
