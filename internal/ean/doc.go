// Package ean implements the EAN editor widget: one text field whose value is
// posted to the gm-ean server, with success or error feedback.
//
// The widget is host-agnostic. The host supplies the text field (Input), the
// feedback area (StatusView), the ambient cookie store (CookieSource) and a
// Panel carrying the endpoint URL. NewWidget attaches Save and Clear to the
// panel so the host can invoke them.
//
// # Save Flow
//
//  1. The status is cleared.
//  2. The input value is trimmed and posted as the form field "ean" with the
//     X-Requested-With: XMLHttpRequest and X-CSRFToken headers. The token comes
//     from the csrftoken cookie, then csrf, else it is empty.
//  3. The body is parsed as a JSON object; anything else counts as {}.
//  4. A 2xx status with a truthy "success" shows "Gespeichert" and updates
//     Panel.Current. Anything else shows the body's "error" or
//     "Fehler beim Speichern".
//
// A failed request (refused connection, DNS, canceled context) shows
// "Netzwerkfehler beim Speichern" and Save returns a typed *Error.
//
// # Usage Example
//
//	client := ean.NewClient()
//	ctxDoc, err := client.FetchPanel(ctx, "http://localhost:8000", 42)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	panel := ean.NewPanel(ctxDoc.SetURL, ctxDoc.EAN)
//	widget := ean.NewWidget(panel, input, statusView, client.CookiesFor(ctxDoc.SetURL), client)
//
//	if err := panel.Save(ctx); err != nil {
//	    fmt.Println(ean.ShortMessage(err))
//	}
//
// # Live Updates
//
// Watch and Follow subscribe to the server's websocket event stream so a panel
// shows EANs saved by other users.
package ean
