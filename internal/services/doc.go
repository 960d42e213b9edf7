// Package services implements the application layer between the HTTP
// handlers and the license and layout packages.
//
// # Services
//
//	- LicenseService: status, activation and the license gate
//	- LayoutService: request validation, full layouts and the preview row
//	- ImportService: first-column import of uploaded workbooks
//	- HealthService: health, readiness and liveness checks
//
// Each service is an interface with an unexported implementation so
// handlers can be tested against testify mocks:
//
//	svc := services.NewLayoutService(engine, cfg.Layout, metrics, logger)
//	req := svc.DefaultRequest()
//	req.Lines = []string{"Alpha", "Beta", "Gamma"}
//	result, err := svc.Compute(ctx, req)
//
// # Validation
//
// Request structs carry go-playground/validator tags. Failures come back as
// a VALIDATION_FAILED *errors.APIError whose details name each rejected
// field by its JSON name. Domain failures keep their sentinel errors
// (errors.ErrInvalidKey, errors.ErrNoLicense, errors.ErrNoData) so the
// error handler can map them to problem details.
//
// # Observability
//
// Every operation opens a span on the global tracer and, when a
// *infrastructure.LabelMetrics is supplied, records counters and
// histograms. A nil metrics value disables recording.
package services
