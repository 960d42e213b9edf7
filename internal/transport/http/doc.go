// Package http implements the HTTP handlers of the label server. Handlers
// are thin: they decode the request, call a service and render the result
// with go-chi/render. Every failure goes through errors.ErrorHandler so
// clients always receive RFC 7807 problem details.
//
// Each handler exposes Routes() returning a chi.Router that the application
// mounts under its prefix:
//
//	r.Mount("/api/license", handlers.NewLicenseHandler(licenseSvc, errorHandler, logger).Routes())
//	r.Mount("/api/layout", handlers.NewLayoutHandler(layoutSvc, errorHandler, logger).Routes())
//
// Request flow:
//
//	Chi Router -> Middleware -> Handler -> Service -> license / layout
package http
