package ean

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/grischamedia/gmean/internal/logging"
)

// EventSaved is broadcast after a part's EAN was stored
const EventSaved = "ean_saved"

// Event is a live panel update pushed by the server
type Event struct {
	Type string `json:"type"`
	Part int    `json:"part"`
	EAN  string `json:"ean"`
}

// Watch subscribes to the server's event stream at eventsURL (ws:// or
// wss://) and calls fn for every event concerning part. A part of 0 receives
// all events. Watch blocks until ctx is done or the connection fails; a
// context cancellation returns ctx.Err().
func Watch(ctx context.Context, eventsURL string, part int, header http.Header, fn func(Event)) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, eventsURL, header)
	if err != nil {
		if resp != nil {
			return NewHTTPError(eventsURL, resp.StatusCode, "websocket handshake rejected")
		}
		return ClassifyNetworkError(err, eventsURL)
	}
	defer func() { _ = conn.Close() }()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("event stream closed: %w", err)
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			logging.Debug("Ignoring malformed panel event")
			continue
		}
		logging.LogEvent("received", ev.Type, ev.Part, data)

		if part != 0 && ev.Part != part {
			continue
		}
		fn(ev)
	}
}

// Follow keeps panel.Current in step with EAN saves made elsewhere, e.g. in a
// second terminal or the web admin panel.
func Follow(ctx context.Context, eventsURL string, part int, panel *Panel, onChange func(Event)) error {
	return Watch(ctx, eventsURL, part, nil, func(ev Event) {
		if ev.Type != EventSaved {
			return
		}
		panel.SetCurrent(ev.EAN)
		if onChange != nil {
			onChange(ev)
		}
	})
}
