package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "LABEL"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	License   LicenseConfig   `yaml:"license" envconfig:"LICENSE"`
	Layout    LayoutConfig    `yaml:"layout" envconfig:"LAYOUT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	// AllowedOrigins extends the CORS and websocket origin allow-list
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

// RateLimitConfig throttles license activation attempts
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration.
// Empty values resolve against the user's home directory.
type PathsConfig struct {
	LicenseFile string `yaml:"license_file" envconfig:"LICENSE_FILE"`
	LogsDir     string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// LicenseConfig holds the key scheme parameters shared with the key generator
type LicenseConfig struct {
	Secret           string `yaml:"secret" envconfig:"SECRET"`
	ValidationWindow int    `yaml:"validation_window" envconfig:"VALIDATION_WINDOW"`
}

// LayoutConfig holds the default label settings offered to the shell.
// Padding values are millimetres.
type LayoutConfig struct {
	LinesPerLabel    int     `yaml:"lines_per_label" envconfig:"LINES_PER_LABEL"`
	FontFamily       string  `yaml:"font_family" envconfig:"FONT_FAMILY"`
	Bold             bool    `yaml:"bold" envconfig:"BOLD"`
	UniversalPadding float64 `yaml:"universal_padding" envconfig:"UNIVERSAL_PADDING"`
	LeftColumnExtra  float64 `yaml:"left_column_extra" envconfig:"LEFT_COLUMN_EXTRA"`
	RightColumnExtra float64 `yaml:"right_column_extra" envconfig:"RIGHT_COLUMN_EXTRA"`
	VerticalPadding  float64 `yaml:"vertical_padding" envconfig:"VERTICAL_PADDING"`
}

// TelemetryConfig toggles OpenTelemetry tracing and metrics
type TelemetryConfig struct {
	EnableTracing bool   `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	Environment   string `yaml:"environment" envconfig:"ENVIRONMENT"`
}

// Load loads configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadWithFile(getConfigFilePath())
}

// LoadWithFile is Load with an explicit YAML file. An empty path skips the file.
func LoadWithFile(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// resolvePaths fills in per-user defaults for empty paths. The log file
// defaults to LogFileName inside the logs directory.
func (c *Config) resolvePaths() error {
	paths, err := c.ResolvedPaths()
	if err != nil {
		return err
	}

	c.Paths.LicenseFile = paths.LicenseFile
	c.Paths.LogsDir = paths.LogsDir
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = paths.GetLogPath(LogFileName)
	}
	return nil
}

// ResolvedPaths returns the per-user paths with the configured overrides applied
func (c *Config) ResolvedPaths() (*Paths, error) {
	paths, err := GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}

	if c.Paths.LicenseFile != "" {
		paths.LicenseFile = c.Paths.LicenseFile
	}
	if c.Paths.LogsDir != "" {
		paths.LogsDir = c.Paths.LogsDir
	}
	return paths, nil
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.License.Secret == "" {
		return fmt.Errorf("license secret must not be empty")
	}

	if c.License.ValidationWindow <= 0 {
		return fmt.Errorf("license validation window must be positive: %d", c.License.ValidationWindow)
	}

	if c.Layout.LinesPerLabel < MinLinesPerLabel || c.Layout.LinesPerLabel > MaxLinesPerLabel {
		return fmt.Errorf("lines per label must be between %d and %d: %d",
			MinLinesPerLabel, MaxLinesPerLabel, c.Layout.LinesPerLabel)
	}

	if c.Layout.UniversalPadding < 0 || c.Layout.LeftColumnExtra < 0 ||
		c.Layout.RightColumnExtra < 0 || c.Layout.VerticalPadding < 0 {
		return fmt.Errorf("layout padding must not be negative")
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  10 << 20, // 10MB
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     1,
				Burst:   5,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "console",
		},
		License: LicenseConfig{
			Secret:           DefaultLicenseSecret,
			ValidationWindow: DefaultValidationWindow,
		},
		Layout: LayoutConfig{
			LinesPerLabel:    3,
			FontFamily:       "Arial",
			UniversalPadding: 2,
		},
		Telemetry: TelemetryConfig{
			EnableTracing: false,
			EnableMetrics: true,
			TraceExporter: "stdout",
			Environment:   "development",
		},
	}
}
