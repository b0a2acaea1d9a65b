// Package urls provides centralized constants and builders for every URL the
// gm-ean server exposes and the client calls.
//
// Server routes and client requests are both built from this package, so a
// path change only has to be made in one place.
//
// Usage:
//
//	import "github.com/grischamedia/gmean/internal/urls"
//
//	setURL := urls.Join(baseURL, urls.SetPath(42))
package urls
