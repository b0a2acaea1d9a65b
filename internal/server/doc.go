// Package server implements gm-ean-server, the HTTP backend the EAN editor
// widget talks to.
//
// It serves the plugin endpoints under /plugin/gm-ean over a YAML part store
// (see package config):
//
//	POST /plugin/gm-ean/set/{pk}/     store an EAN on a part
//	GET  /plugin/gm-ean/search/?code= redirect to the part carrying a code
//	GET  /plugin/gm-ean/panel/{pk}/   panel context for a part
//	POST /plugin/gm-ean/scan/         barcode scan hook
//	GET  /plugin/gm-ean/events        websocket stream of ean_saved events
//	GET  /part/{pk}/                  part detail
//
// # Save Rules
//
// A save is rejected when the part does not exist, when extra form fields
// are sent while core fields are locked, when the code is not a valid
// GTIN-8/12/13/14, or when another part already carries the code. Error
// bodies are JSON objects {"success": false, "error": "..."} whose message
// the widget shows verbatim.
//
// # CSRF
//
// POST endpoints are protected with double-submit tokens: any safe request
// sets a csrftoken cookie, and a POST must echo it in the X-CSRFToken header
// or the csrfmiddlewaretoken form field. Other methods on the set endpoint
// are answered with "POST required" before any token check.
//
// # Usage Example
//
//	srv, err := server.New(&server.Config{
//	    Host:      "",
//	    Port:      8000,
//	    StorePath: "/var/lib/gm-ean/parts.yaml",
//	    LogLevel:  "info",
//	    Advertise: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start blocks until shutdown signal or error
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The server handles SIGINT and SIGTERM: it withdraws the mDNS announcement,
// disconnects event subscribers and drains in-flight requests.
package server
