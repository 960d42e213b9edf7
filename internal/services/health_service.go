package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"labelcli/internal/config"
)

// SessionCounter reports the number of open live-preview sessions
type SessionCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     config.PathsConfig
	license   LicenseManager
	sessions  SessionCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a new health service. sessions may be nil when
// the live preview is not served.
func NewHealthService(version string, paths config.PathsConfig, licenseManager LicenseManager, sessions SessionCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthService{
		version:   version,
		paths:     paths,
		license:   licenseManager,
		sessions:  sessions,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check",
		slog.String("version", hs.version),
		slog.Duration("uptime", time.Since(hs.startTime)))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports whether the license file location is usable.
// A missing license does not make the server unready; activation is served.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	status.Services["license"] = hs.checkLicenseHealth()
	status.Services["storage"] = hs.checkStorageHealth()
	status.Services["preview"] = hs.checkPreviewHealth()

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"name":         config.AppName,
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkLicenseHealth() ServiceHealth {
	if hs.license == nil {
		return ServiceHealth{Status: "not_ready", Message: "license manager not initialized"}
	}

	info := hs.license.Status()
	if !info.Licensed {
		return ServiceHealth{Status: "ready", Message: "no license activated"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("licensed to %s, %d days remaining", info.Email, info.DaysRemaining),
	}
}

// checkStorageHealth verifies the license file's directory exists
func (hs *HealthService) checkStorageHealth() ServiceHealth {
	dir := filepath.Dir(hs.paths.LicenseFile)
	if dir == "" || dir == "." {
		return ServiceHealth{Status: "ready", Message: "license file in working directory"}
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("license directory not accessible: %v", err),
		}
	}
	if !fi.IsDir() {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("license directory is not a directory: %s", dir),
		}
	}

	return ServiceHealth{Status: "ready", Message: "license storage is accessible"}
}

func (hs *HealthService) checkPreviewHealth() ServiceHealth {
	if hs.sessions == nil {
		return ServiceHealth{Status: "ready", Message: "live preview disabled"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d preview sessions", hs.sessions.ClientCount()),
		Uptime:  time.Since(hs.startTime).String(),
	}
}
