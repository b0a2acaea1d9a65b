package urls

import (
	"fmt"
	"net/url"
	"strings"
)

// PluginSlug is the URL namespace of all EAN endpoints
const PluginSlug = "gm-ean"

// PluginPrefix is the path prefix every plugin endpoint lives under
const PluginPrefix = "/plugin/" + PluginSlug

// Route patterns for gorilla/mux. {pk} is restricted to digits.
const (
	SetRoute        = PluginPrefix + "/set/{pk:[0-9]+}/"
	SearchRoute     = PluginPrefix + "/search/"
	PanelRoute      = PluginPrefix + "/panel/{pk:[0-9]+}/"
	ScanRoute       = PluginPrefix + "/scan/"
	EventsRoute     = PluginPrefix + "/events"
	PartDetailRoute = "/part/{pk:[0-9]+}/"
)

// SetPath is the endpoint the editor widget posts the EAN to
func SetPath(pk int) string {
	return fmt.Sprintf("%s/set/%d/", PluginPrefix, pk)
}

// SearchPath returns the search endpoint for a code
func SearchPath(code string) string {
	return SearchRoute + "?" + url.Values{"code": {code}}.Encode()
}

// PanelPath returns the panel context endpoint for a part
func PanelPath(pk int) string {
	return fmt.Sprintf("%s/panel/%d/", PluginPrefix, pk)
}

// PartDetailPath is where search redirects to
func PartDetailPath(pk int) string {
	return fmt.Sprintf("/part/%d/", pk)
}

// Join appends path to base, tolerating a trailing slash on base
func Join(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

// WebSocketURL converts an http(s) base URL plus path into a ws(s) URL
func WebSocketURL(base, path string) (string, error) {
	u, err := url.Parse(Join(base, path))
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	return u.String(), nil
}
