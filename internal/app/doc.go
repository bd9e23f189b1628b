// Package app wires the attendance summary service together: configuration
// loading, logger initialization, the service graph, HTTP routing and
// graceful shutdown.
//
// The typical entry point is:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    ...
//	}
//	if err := application.Run(); err != nil {
//	    ...
//	}
//
// Run blocks until SIGINT or SIGTERM and then drains in-flight requests
// within the configured shutdown timeout. Initialization errors are returned
// to the caller; the package never calls os.Exit directly.
package app
