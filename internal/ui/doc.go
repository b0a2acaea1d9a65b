// Package ui provides the terminal front end of the gm-ean CLI.
//
// It uses Bubble Tea and Lipgloss. Two kinds of component live here:
//
//   - EditorModel: the interactive EAN panel for one part (text field,
//     status line, live current value)
//   - Header, Printer and the result boxes: "run once and exit" output for
//     the non-interactive commands (set, search, show, discover)
//
// # Editor
//
// The editor drives an ean.Widget. Its text field and status line are
// exposed to the widget through small adapters, so the widget's save rules
// apply unchanged. The network half of a save runs as a tea.Cmd; a second
// save key press while one is in flight is ignored.
//
//	err := ui.RunEditor(ctx, ui.EditorConfig{
//	    Panel:     panel,
//	    Client:    client,
//	    Cookies:   client.CookiesFor(serverURL),
//	    Part:      42,
//	    ServerURL: serverURL,
//	    EventsURL: eventsURL,
//	})
//
// # Logging Integration
//
// zap logging is silent unless GMEAN_LOG_LEVEL is set, so the curated UI
// output is displayed cleanly.
package ui
