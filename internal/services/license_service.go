package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	apperrors "labelcli/internal/errors"
	"labelcli/internal/infrastructure"
	"labelcli/internal/license"
)

// LicenseManager is the part of license.Manager the service depends on
type LicenseManager interface {
	LoadLicense() (license.Record, bool)
	Activate(ctx context.Context, email, key string) (license.Record, error)
	Status() license.Info
}

// LicenseService defines the interface for license operations
type LicenseService interface {
	GetStatus(ctx context.Context) (*LicenseStatusResponse, error)
	Activate(ctx context.Context, req ActivationRequest) (*LicenseStatusResponse, error)
	RequireLicense(ctx context.Context) error
}

// ActivationRequest is the registration form: the customer's email and key
type ActivationRequest struct {
	Email string `json:"email" validate:"required,max=254"`
	Key   string `json:"key" validate:"required,max=64"`
}

// LicenseStatusResponse describes the license for status displays
type LicenseStatusResponse struct {
	Licensed      bool   `json:"licensed"`
	LicenseStatus string `json:"license_status"`
	Email         string `json:"email,omitempty"`
	Expiry        string `json:"expiry,omitempty"`
	DaysRemaining int    `json:"days_remaining"`
	Message       string `json:"message"`
	TraceID       string `json:"trace_id,omitempty"`
	Timestamp     string `json:"timestamp"`
}

type licenseService struct {
	manager   LicenseManager
	validator *Validator
	metrics   *infrastructure.LabelMetrics
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewLicenseService creates a license service. metrics may be nil.
func NewLicenseService(manager LicenseManager, metrics *infrastructure.LabelMetrics, logger *slog.Logger) LicenseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &licenseService{
		manager:   manager,
		validator: NewValidator(),
		metrics:   metrics,
		tracer:    otel.Tracer(infrastructure.MeterName),
		logger:    logger.With(slog.String("service", "license")),
	}
}

// GetStatus returns the current license status
func (s *licenseService) GetStatus(ctx context.Context) (*LicenseStatusResponse, error) {
	ctx, span := s.tracer.Start(ctx, "license.status")
	defer span.End()

	resp := s.statusResponse(ctx, s.manager.Status())
	span.SetAttributes(
		attribute.Bool("license.licensed", resp.Licensed),
		attribute.String("license.level", resp.LicenseStatus),
	)

	s.logger.DebugContext(ctx, "license status checked",
		slog.String("trace_id", resp.TraceID),
		slog.String("license_status", resp.LicenseStatus),
		slog.Int("days_remaining", resp.DaysRemaining),
	)
	return resp, nil
}

// Activate validates the form, checks the key and persists the license
func (s *licenseService) Activate(ctx context.Context, req ActivationRequest) (*LicenseStatusResponse, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "license.activate")
	defer span.End()

	traceID := requestTraceID(ctx)

	if err := s.validator.Struct(req); err != nil {
		s.recordActivation(ctx, "invalid_request")
		return nil, err
	}

	rec, err := s.manager.Activate(ctx, req.Email, req.Key)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		result := "error"
		if errors.Is(err, apperrors.ErrInvalidKey) {
			result = "rejected"
		}
		s.recordActivation(ctx, result)

		s.logger.WarnContext(ctx, "license activation failed",
			slog.String("trace_id", traceID),
			slog.String("license_key", license.MaskKey(req.Key)),
			slog.String("result", result),
			slog.Duration("latency", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.recordActivation(ctx, "activated")

	info := s.manager.Status()
	if s.metrics != nil {
		// the search walks forward from today, so the match offset is the days left
		s.metrics.LicenseSearchDays.Record(ctx, int64(info.DaysRemaining+1))
	}

	s.logger.InfoContext(ctx, "license activation succeeded",
		slog.String("trace_id", traceID),
		slog.String("license_key", license.MaskKey(req.Key)),
		slog.String("expiry", rec.Expiry.Format(license.DateLayout)),
		slog.Duration("latency", time.Since(start)),
	)

	resp := s.statusResponse(ctx, info)
	resp.Message = "License activated successfully. Valid until " + rec.Expiry.Format(license.DateLayout) + "."
	return resp, nil
}

// RequireLicense returns ErrNoLicense unless a present, unexpired license is on disk
func (s *licenseService) RequireLicense(ctx context.Context) error {
	_, ok := s.manager.LoadLicense()

	result := "valid"
	if !ok {
		result = "missing"
	}
	if s.metrics != nil {
		s.metrics.LicenseValidations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}

	if !ok {
		return apperrors.ErrNoLicense
	}
	return nil
}

func (s *licenseService) recordActivation(ctx context.Context, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ActivationAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (s *licenseService) statusResponse(ctx context.Context, info license.Info) *LicenseStatusResponse {
	resp := &LicenseStatusResponse{
		Licensed:      info.Licensed,
		LicenseStatus: info.Level,
		Email:         info.Email,
		DaysRemaining: info.DaysRemaining,
		TraceID:       requestTraceID(ctx),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	if info.Licensed {
		resp.Expiry = info.Expiry.Format(license.DateLayout)
	}

	switch info.Level {
	case "unlicensed":
		resp.Message = "No license activated. Enter your email and license key to activate."
	case "critical":
		resp.Message = "License expires very soon. Renew now to avoid interruption."
	case "warning":
		resp.Message = "License expires within 30 days. Consider renewing."
	default:
		resp.Message = "License is active."
	}
	return resp
}

// requestTraceID prefers the chi request ID and falls back to the span's trace ID
func requestTraceID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	if id := infrastructure.GetTraceID(ctx); id != "" {
		return id
	}
	return infrastructure.TraceIDFromContext(ctx)
}
