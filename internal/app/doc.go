// Package app wires the label printer's local HTTP server together and
// manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, config.yaml and LABEL_* variables
//	2. Initialize logging and OpenTelemetry
//	3. Create the license manager, layout engine and services
//	4. Set up the chi router, middleware and handlers
//	5. Serve until the context is cancelled
//
// # Routes
//
//	GET  /api/health, /api/health/ready, /api/health/live, /api/version
//	GET  /api/license/status
//	POST /api/license/activate       (rate limited)
//	GET  /api/layout/settings
//	POST /api/layout, /api/layout/preview
//	POST /api/import                 (multipart workbook upload)
//	GET  /ws/preview                 (live preview socket)
//	GET  /metrics                    (Prometheus, when enabled)
//
// Layout, import and preview routes sit behind the license gate; health,
// license and metrics routes stay open so an unlicensed install can
// still be activated.
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	return application.Run(ctx)
//
// Initialization errors are returned to the caller; the package never
// calls os.Exit.
package app
