package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the per-user application paths
type Paths struct {
	HomeDir     string
	AppDir      string
	LogsDir     string
	LicenseFile string
}

// GetPaths returns the application paths relative to the user's home directory.
// The license file sits directly in the home directory so that every
// installation of the program for that user shares it.
func GetPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	appDir := filepath.Join(home, ".labelprinter")

	return &Paths{
		HomeDir:     home,
		AppDir:      appDir,
		LogsDir:     filepath.Join(appDir, "logs"),
		LicenseFile: filepath.Join(home, DefaultLicenseFileName),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.AppDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetLicensePath returns the default license file path
func GetLicensePath() (string, error) {
	paths, err := GetPaths()
	if err != nil {
		return "", fmt.Errorf("failed to get paths: %w", err)
	}
	return paths.LicenseFile, nil
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("home", p.HomeDir),
			slog.String("app", p.AppDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("license", p.LicenseFile),
			slog.Bool("license_exists", FileExists(p.LicenseFile)),
		))
}
