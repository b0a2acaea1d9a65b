package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grischamedia/gmean/internal/ean"
	"github.com/grischamedia/gmean/internal/logging"
)

const (
	// CSRFCookieName is the cookie holding the CSRF token
	CSRFCookieName = "csrftoken"

	msgCSRFFailed = "CSRF-Überprüfung fehlgeschlagen"
)

// newCSRFToken returns a fresh 32-character token
func newCSRFToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// csrfCookieMiddleware issues a csrftoken cookie to safe requests that do
// not carry one yet.
func csrfCookieMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) && !hasCSRFCookie(r) {
			http.SetCookie(w, &http.Cookie{
				Name:     CSRFCookieName,
				Value:    newCSRFToken(),
				Path:     "/",
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r)
	})
}

// requireCSRF implements double-submit CSRF protection for one route:
// unsafe requests must echo the cookie in the X-CSRFToken header or the
// csrfmiddlewaretoken form field.
func requireCSRF(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(CSRFCookieName)
		if err != nil || cookie.Value == "" {
			rejectCSRF(w, r, "missing cookie")
			return
		}

		submitted := r.Header.Get(ean.HeaderCSRFToken)
		if submitted == "" {
			submitted = r.PostFormValue(csrfFormField)
		}
		if submitted == "" {
			rejectCSRF(w, r, "missing token")
			return
		}
		if subtle.ConstantTimeCompare([]byte(submitted), []byte(cookie.Value)) != 1 {
			rejectCSRF(w, r, "token mismatch")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func hasCSRFCookie(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFCookieName)
	return err == nil && cookie.Value != ""
}

func rejectCSRF(w http.ResponseWriter, r *http.Request, reason string) {
	logging.Warn("CSRF check failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("reason", reason),
	)
	writeJSON(w, http.StatusForbidden, errorBody(msgCSRFFailed))
}
