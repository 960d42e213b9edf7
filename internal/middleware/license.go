package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "labelcli/internal/errors"
	"labelcli/internal/infrastructure"
)

// DefaultLicenseCacheTTL is how long a successful check is reused
const DefaultLicenseCacheTTL = 30 * time.Second

// LicenseGate refuses requests while no usable license is present.
// Successful checks are cached for a short TTL; failures never are, so a
// fresh activation unlocks the gate immediately.
type LicenseGate struct {
	checker         LicenseChecker
	errorHandler    *apperrors.ErrorHandler
	logger          *slog.Logger
	excludePaths    []string
	excludePrefixes []string

	mu        sync.RWMutex
	ttl       time.Duration
	checkedAt time.Time
	now       func() time.Time
}

// NewLicenseGate creates the gate. Health, license, metrics and static
// paths are open by default.
func NewLicenseGate(checker LicenseChecker, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *LicenseGate {
	return &LicenseGate{
		checker:      checker,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "license_gate")),
		ttl:          DefaultLicenseCacheTTL,
		now:          time.Now,
		excludePaths: []string{
			"/",
			"/metrics",
			"/favicon.ico",
		},
		excludePrefixes: []string{
			"/api/health",
			"/api/version",
			"/api/license/",
			"/static/",
		},
	}
}

// Handler returns the middleware handler function
func (g *LicenseGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.shouldExcludePath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if g.isCacheValid() {
			next.ServeHTTP(w, r)
			return
		}

		ctx, span := otel.Tracer(infrastructure.MeterName).Start(r.Context(), "license_gate.check",
			trace.WithAttributes(attribute.String("http.route", r.URL.Path)))
		err := g.checker.RequireLicense(ctx)
		span.End()

		if err != nil {
			level := slog.LevelWarn
			if !errors.Is(err, apperrors.ErrNoLicense) {
				level = slog.LevelError
			}
			g.logger.Log(ctx, level, "request blocked by license gate",
				slog.String("path", r.URL.Path),
				slog.String("trace_id", GetReqID(ctx)),
				slog.String("error", err.Error()),
			)
			g.errorHandler.HandleError(w, r, err)
			return
		}

		g.mu.Lock()
		g.checkedAt = g.now()
		g.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (g *LicenseGate) shouldExcludePath(path string) bool {
	for _, excluded := range g.excludePaths {
		if path == excluded {
			return true
		}
	}
	for _, prefix := range g.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (g *LicenseGate) isCacheValid() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return !g.checkedAt.IsZero() && g.now().Sub(g.checkedAt) < g.ttl
}

// InvalidateCache forces the next request to re-check the license
func (g *LicenseGate) InvalidateCache() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checkedAt = time.Time{}
}
