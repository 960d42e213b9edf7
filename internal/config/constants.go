package config

// Application constants
const (
	AppName    = "Label Printer - Avery Zweckform 3658"
	AppVersion = "2.0.0"

	// License system
	DefaultLicenseFileName  = ".labelprinterlicense.dat"
	DefaultLicenseSecret    = "LabelPrinter2025SecretKey"
	DefaultValidationWindow = 730
	DefaultLicenseDuration  = 365

	// LogFileName is the log file created in the logs directory
	LogFileName = "app.log"

	// Label settings accepted from the shell
	MinLinesPerLabel = 1
	MaxLinesPerLabel = 6

	// API endpoints
	APIBasePath       = "/api"
	HealthEndpoint    = "/api/health"
	LicenseEndpoint   = "/api/license"
	LayoutEndpoint    = "/api/layout"
	ImportEndpoint    = "/api/import"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws/preview"
)
