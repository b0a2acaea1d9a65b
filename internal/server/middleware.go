package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/grischamedia/gmean/internal/logging"
)

// RequestIDHeader carries the request ID back to the client
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID returns the ID assigned to the request by the logging middleware
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// responseRecorder captures the status and size of a response
type responseRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (rr *responseRecorder) WriteHeader(status int) {
	if rr.status == 0 {
		rr.status = status
	}
	rr.ResponseWriter.WriteHeader(status)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if rr.status == 0 {
		rr.status = http.StatusOK
	}
	n, err := rr.ResponseWriter.Write(b)
	rr.size += n
	return n, err
}

// Hijack lets the websocket upgrader take over the connection
func (rr *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	if rr.status == 0 {
		rr.status = http.StatusSwitchingProtocols
	}
	return hijacker.Hijack()
}

// logMiddleware assigns each request an ID and logs it with its outcome
func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		logging.LogHTTPRequest(requestID, r.RemoteAddr, r.Method, r.URL.RequestURI())

		rec := &responseRecorder{ResponseWriter: w}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next.ServeHTTP(rec, r.WithContext(ctx))

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		logging.LogHTTPResponse(requestID, status, rec.size)
	})
}
