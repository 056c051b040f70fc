// Package app provides application initialization and lifecycle management
// for StockPulse. It wires configuration, logging, telemetry, the upstream
// client, the stock and health services and the HTTP router together.
//
// # Initialization Flow
//
//	1. Load configuration from .env, environment and the optional YAML file
//	2. Initialize the slog logger and OpenTelemetry providers
//	3. Create the upstream client, fallback source and business metrics
//	4. Create the stock service, health service and upstream monitor
//	5. Set up middleware and routes
//	6. Create the HTTP server
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Tests build an application from an explicit configuration with New and
// drive app.Router through httptest.
//
// # Graceful Shutdown
//
// Run waits for SIGINT or SIGTERM, or for the server to fail, then:
//
//	- Lets active requests finish within the shutdown timeout
//	- Stops the upstream monitor
//	- Flushes and shuts down the telemetry providers
//
// # Error Handling
//
// All initialization errors are returned to the caller. The app does not
// call os.Exit() directly, allowing the main function to control the exit
// process.
package app
