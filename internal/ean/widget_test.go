package ean

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type fakeInput struct {
	value string
}

func (f *fakeInput) Value() string     { return f.value }
func (f *fakeInput) SetValue(v string) { f.value = v }

type recordingStatus struct {
	mu      sync.Mutex
	history []Status
}

func (r *recordingStatus) SetStatus(s Status) {
	r.mu.Lock()
	r.history = append(r.history, s)
	r.mu.Unlock()
}

func (r *recordingStatus) last() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return Status{}
	}
	return r.history[len(r.history)-1]
}

type capturedRequest struct {
	method        string
	contentType   string
	requestedWith string
	token         string
	hasToken      bool
	form          map[string][]string
}

// newSaveServer answers every request with status and body and records what
// it received.
func newSaveServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.contentType = r.Header.Get("Content-Type")
		captured.requestedWith = r.Header.Get(HeaderRequestedWith)
		_, captured.hasToken = r.Header[http.CanonicalHeaderKey(HeaderCSRFToken)]
		captured.token = r.Header.Get(HeaderCSRFToken)
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		captured.form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func newTestWidget(setURL, current, value, cookies string) (*Widget, *Panel, *fakeInput, *recordingStatus) {
	panel := NewPanel(setURL, current)
	input := &fakeInput{value: value}
	status := &recordingStatus{}
	w := NewWidget(panel, input, status, CookieString(cookies), NewClient())
	return w, panel, input, status
}

func TestWidgetSaveSuccess(t *testing.T) {
	server, captured := newSaveServer(t, http.StatusOK, `{"success": true, "ean": "4006381333931"}`)
	_, panel, _, status := newTestWidget(server.URL+"/set/42/", "", "  4006381333931  ", "csrftoken=abc123")

	if err := panel.Save(context.Background()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if captured.method != http.MethodPost {
		t.Errorf("method = %s, want POST", captured.method)
	}
	if captured.contentType != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %s, want application/x-www-form-urlencoded", captured.contentType)
	}
	if captured.requestedWith != "XMLHttpRequest" {
		t.Errorf("X-Requested-With = %s, want XMLHttpRequest", captured.requestedWith)
	}
	if captured.token != "abc123" {
		t.Errorf("X-CSRFToken = %q, want abc123", captured.token)
	}
	if got := captured.form["ean"]; len(got) != 1 || got[0] != "4006381333931" {
		t.Errorf("form ean = %v, want [4006381333931]", got)
	}
	if len(captured.form) != 1 {
		t.Errorf("form has %d fields, want 1", len(captured.form))
	}

	got := status.last()
	if got.Message != MessageSaved || got.ClassName() != "text-success" {
		t.Errorf("status = %+v, want %q with text-success", got, MessageSaved)
	}
	if panel.Current() != "4006381333931" {
		t.Errorf("Current() = %q, want 4006381333931", panel.Current())
	}
}

func TestWidgetSaveClearsStatusBeforeRequest(t *testing.T) {
	status := &recordingStatus{}
	var seen Status
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = status.last()
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	panel := NewPanel(server.URL, "")
	NewWidget(panel, &fakeInput{value: "96385074"}, status, nil, nil)

	// A stale error from a previous attempt
	status.SetStatus(ErrorStatus("alt"))

	if err := panel.Save(context.Background()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !seen.IsNeutral() {
		t.Errorf("status during request = %+v, want neutral", seen)
	}
	if seen.ClassName() != "" {
		t.Errorf("class during request = %q, want none", seen.ClassName())
	}
}

func TestWidgetSaveResults(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantClass   string
		wantCurrent string
	}{
		{
			name:        "server error message",
			status:      http.StatusBadRequest,
			body:        `{"error": "Ungültige EAN/GTIN"}`,
			wantMessage: "Ungültige EAN/GTIN",
			wantClass:   "text-danger",
			wantCurrent: "old",
		},
		{
			name:        "duplicate",
			status:      http.StatusBadRequest,
			body:        `{"error": "EAN bereits vergeben (Teil #7)"}`,
			wantMessage: "EAN bereits vergeben (Teil #7)",
			wantClass:   "text-danger",
			wantCurrent: "old",
		},
		{
			name:        "2xx without success",
			status:      http.StatusOK,
			body:        `{"ean": "123"}`,
			wantMessage: MessageSaveFailed,
			wantClass:   "text-danger",
			wantCurrent: "old",
		},
		{
			name:        "2xx with success false",
			status:      http.StatusOK,
			body:        `{"success": false, "error": ""}`,
			wantMessage: MessageSaveFailed,
			wantClass:   "text-danger",
			wantCurrent: "old",
		},
		{
			name:        "success on non-2xx",
			status:      http.StatusInternalServerError,
			body:        `{"success": true}`,
			wantMessage: MessageSaveFailed,
			wantClass:   "text-danger",
			wantCurrent: "old",
		},
		{
			name:        "invalid json",
			status:      http.StatusOK,
			body:        `<html>Server Error</html>`,
			wantMessage: MessageSaveFailed,
			wantClass:   "text-danger",
			wantCurrent: "old",
		},
		{
			name:        "json array",
			status:      http.StatusOK,
			body:        `[1, 2]`,
			wantMessage: MessageSaveFailed,
			wantClass:   "text-danger",
			wantCurrent: "old",
		},
		{
			name:        "empty body with 204",
			status:      http.StatusNoContent,
			body:        ``,
			wantMessage: MessageSaveFailed,
			wantClass:   "text-danger",
			wantCurrent: "old",
		},
		{
			name:        "truthy success string",
			status:      http.StatusCreated,
			body:        `{"success": "yes"}`,
			wantMessage: MessageSaved,
			wantClass:   "text-success",
			wantCurrent: "96385074",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newSaveServer(t, tt.status, tt.body)
			w, panel, _, status := newTestWidget(server.URL, "old", "96385074", "")

			if err := w.Save(context.Background()); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			got := status.last()
			if got.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMessage)
			}
			if got.ClassName() != tt.wantClass {
				t.Errorf("ClassName() = %q, want %q", got.ClassName(), tt.wantClass)
			}
			if panel.Current() != tt.wantCurrent {
				t.Errorf("Current() = %q, want %q", panel.Current(), tt.wantCurrent)
			}
		})
	}
}

func TestWidgetSaveTokenSelection(t *testing.T) {
	tests := []struct {
		name    string
		cookies string
		want    string
	}{
		{"csrftoken", "sessionid=s; csrftoken=abc", "abc"},
		{"csrf fallback", "sessionid=s; csrf=xyz", "xyz"},
		{"csrftoken preferred", "csrf=xyz; csrftoken=abc", "abc"},
		{"none", "sessionid=s", ""},
		{"empty cookie string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, captured := newSaveServer(t, http.StatusOK, `{"success": true}`)
			w, _, _, _ := newTestWidget(server.URL, "", "96385074", tt.cookies)

			if err := w.Save(context.Background()); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if !captured.hasToken {
				t.Error("X-CSRFToken header missing, want it sent even when empty")
			}
			if captured.token != tt.want {
				t.Errorf("X-CSRFToken = %q, want %q", captured.token, tt.want)
			}
		})
	}
}

func TestWidgetSaveEmptyInputIsSubmitted(t *testing.T) {
	server, captured := newSaveServer(t, http.StatusBadRequest, `{"error": "Ungültige EAN/GTIN"}`)
	w, _, _, status := newTestWidget(server.URL, "", "   ", "")

	if err := w.Save(context.Background()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got := captured.form["ean"]; len(got) != 1 || got[0] != "" {
		t.Errorf("form ean = %v, want [\"\"]", got)
	}
	if status.last().Message != "Ungültige EAN/GTIN" {
		t.Errorf("Message = %q, want server error", status.last().Message)
	}
}

func TestWidgetSaveNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	w, panel, _, status := newTestWidget(url, "old", "96385074", "")

	err := w.Save(context.Background())
	if err == nil {
		t.Fatal("Save() error = nil, want network error")
	}
	if !IsNetworkError(err) {
		t.Errorf("IsNetworkError(%v) = false, want true", err)
	}

	got := status.last()
	if got.Message != MessageNetworkError || got.Kind != StatusError {
		t.Errorf("status = %+v, want network error status", got)
	}
	if panel.Current() != "old" {
		t.Errorf("Current() = %q, want old", panel.Current())
	}
}

func TestWidgetSaveCanceled(t *testing.T) {
	server, _ := newSaveServer(t, http.StatusOK, `{"success": true}`)
	w, _, _, _ := newTestWidget(server.URL, "", "96385074", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Save(ctx)
	if !IsCanceled(err) {
		t.Errorf("Save() error = %v, want canceled", err)
	}

	var eanErr *Error
	if !errors.As(err, &eanErr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
}

func TestWidgetClear(t *testing.T) {
	panel := NewPanel("http://unused.invalid/", "4006381333931")
	input := &fakeInput{value: "123"}
	status := &recordingStatus{}
	NewWidget(panel, input, status, nil, nil)

	status.SetStatus(SuccessStatus())

	for i := 0; i < 2; i++ {
		panel.Clear()

		if input.Value() != "" {
			t.Errorf("input = %q, want empty", input.Value())
		}
		if !status.last().IsNeutral() {
			t.Errorf("status = %+v, want neutral", status.last())
		}
		if panel.Current() != "4006381333931" {
			t.Errorf("Current() = %q, want unchanged", panel.Current())
		}
	}
}

func TestNewWidgetAttachesOperations(t *testing.T) {
	panel := NewPanel("http://example.invalid/", "")
	w := NewWidget(panel, &fakeInput{}, &recordingStatus{}, nil, nil)

	if panel.Save == nil || panel.Clear == nil {
		t.Fatal("NewWidget() did not attach Save and Clear")
	}
	if w.Panel() != panel {
		t.Error("Panel() returned a different panel")
	}
}
