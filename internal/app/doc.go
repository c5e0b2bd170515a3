// Package app wires configuration, logging, telemetry, the dataset and the
// HTTP and websocket surfaces into one runnable application.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, config file and AVANCO_* variables
//	2. Initialize logging and OpenTelemetry
//	3. Load and prepare the spreadsheet once
//	4. Create the dashboard and health services
//	5. Set up the router, middleware and websocket hub
//	6. Start the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// # Graceful Shutdown
//
// Run waits for SIGINT or SIGTERM, then drains HTTP requests, closes the
// websocket clients and flushes telemetry. The package never calls os.Exit.
package app
