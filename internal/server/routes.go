package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/grischamedia/gmean/internal/urls"
)

// routes builds the router. Request logging runs first, then CSRF cookie
// issuing. Every unsafe route is wrapped in requireCSRF.
func (s *Server) routes() http.Handler {
	r := mux.NewRouter()

	r.Handle(urls.SetRoute, requireCSRF(s.handleSetEAN)).Methods(http.MethodPost)
	// Any other method on the set endpoint gets the plugin's own error
	r.HandleFunc(urls.SetRoute, s.handleSetEAN)

	r.HandleFunc(urls.SearchRoute, s.handleSearch).Methods(http.MethodGet)
	r.HandleFunc(urls.PanelRoute, s.handlePanel).Methods(http.MethodGet)
	r.Handle(urls.ScanRoute, requireCSRF(s.handleScan)).Methods(http.MethodPost)
	r.HandleFunc(urls.EventsRoute, s.hub.ServeHTTP).Methods(http.MethodGet)
	r.HandleFunc(urls.PartDetailRoute, s.handlePartDetail).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody(msgNotFound))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody(msgMethodNotAllowed))
	})

	return logMiddleware(csrfCookieMiddleware(r))
}
