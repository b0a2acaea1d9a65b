package ean

import (
	"context"
	"strings"

	"github.com/grischamedia/gmean/internal/logging"
	"go.uber.org/zap"
)

// Input is the text field holding the EAN being edited
type Input interface {
	Value() string
	SetValue(string)
}

// StatusView displays the outcome of a save
type StatusView interface {
	SetStatus(Status)
}

// Widget edits one EAN field: it reads the input, posts it to the panel's
// endpoint and reflects the verdict in the status view.
//
// Overlapping Save calls are not serialized. Each runs to completion and the
// last one to finish determines the final status.
type Widget struct {
	panel   *Panel
	input   Input
	status  StatusView
	cookies CookieSource
	client  *Client
}

// NewWidget wires a widget to its panel and attaches Save and Clear to it.
// A nil client gets NewClient(); a nil cookie source sends an empty token.
func NewWidget(panel *Panel, input Input, status StatusView, cookies CookieSource, client *Client) *Widget {
	if client == nil {
		client = NewClient()
	}
	if cookies == nil {
		cookies = CookieString("")
	}

	w := &Widget{
		panel:   panel,
		input:   input,
		status:  status,
		cookies: cookies,
		client:  client,
	}

	panel.Save = w.Save
	panel.Clear = w.Clear

	return w
}

// Panel returns the panel the widget writes to
func (w *Widget) Panel() *Panel {
	return w.panel
}

// Save submits the current input value and updates the status view.
// The status is cleared before the request is sent. Server-side rejections
// are reported through the status only; a transport failure is reported
// through the status and also returned.
func (w *Widget) Save(ctx context.Context) error {
	raw := w.input.Value()
	w.status.SetStatus(NeutralStatus())

	status, err := w.Submit(ctx, raw)
	w.status.SetStatus(status)
	return err
}

// Submit is the network half of Save: it trims raw, posts it and returns the
// status to display. On success the panel's current value is updated.
// Callers that manage their own status view (the terminal panel) use it
// directly from a background command.
func (w *Widget) Submit(ctx context.Context, raw string) (Status, error) {
	value := strings.TrimSpace(raw)
	token := CSRFToken(w.cookies)

	resp, err := w.client.PostEAN(ctx, w.panel.SetURL, value, token)
	if err != nil {
		logging.Warn("EAN save failed before a response arrived",
			zap.String("set_url", w.panel.SetURL),
			zap.Error(err),
		)
		return ErrorStatus(MessageNetworkError), err
	}

	logging.LogSaveAttempt(w.panel.SetURL, value, token != "", resp.StatusCode, resp.Success())

	if resp.Success() {
		w.panel.SetCurrent(value)
	}
	return resp.Status(), nil
}

// Clear empties the input and clears the status. The panel's current value
// is left alone.
func (w *Widget) Clear() {
	w.input.SetValue("")
	w.status.SetStatus(NeutralStatus())
}
