// Package config provides centralized configuration management for the label printer.
// It loads configuration from multiple sources, validates it, and exposes
// typed sections to the rest of the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (config.yaml or configs/config.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern LABEL_<SECTION>_<FIELD>:
//
//	LABEL_SERVER_PORT=8080
//	LABEL_LOGGING_LEVEL=debug
//	LABEL_PATHS_LICENSE_FILE=/var/lib/labels/license.dat
//	LABEL_LAYOUT_LINES_PER_LABEL=4
//	LABEL_LAYOUT_UNIVERSAL_PADDING=2.5
//
// # Paths
//
// The license file defaults to ~/.labelprinterlicense.dat and logs to
// ~/.labelprinter/logs. Both can be overridden through the Paths section.
package config
