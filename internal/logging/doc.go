// Package logging provides structured logging for the gm-ean server and CLI.
//
// This package wraps a global zap logger with convenience functions for the
// logging patterns used throughout the project: HTTP request/response pairs on
// the server, save round trips in the editor widget and live panel events.
//
// # Log Levels
//
//   - Debug: Save round trips, websocket payloads
//   - Info: Requests, responses, server lifecycle
//   - Warn: Rejected requests (CSRF, validation), dropped subscribers
//   - Error: 5xx responses, store failures, startup errors
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// An empty level falls back to the GMEAN_LOG_LEVEL environment variable. When
// that is unset too, the logger is a no-op so the CLI and the terminal panel
// stay quiet by default. Output goes to stderr in console format.
package logging
