package ean

import (
	"net/http"
	"net/url"
	"strings"
)

// Cookie names the CSRF token is looked up under, in order
var csrfCookieNames = []string{"csrftoken", "csrf"}

// CookieSource provides a document.cookie style string ("a=1; b=2").
type CookieSource interface {
	Cookies() string
}

// CookieString is a fixed cookie string
type CookieString string

// Cookies implements CookieSource
func (s CookieString) Cookies() string {
	return string(s)
}

// JarCookies exposes the cookies a jar would send to URL, the way a browser
// exposes document.cookie for the current page.
type JarCookies struct {
	Jar http.CookieJar
	URL *url.URL
}

// Cookies implements CookieSource
func (j JarCookies) Cookies() string {
	if j.Jar == nil || j.URL == nil {
		return ""
	}
	cookies := j.Jar.Cookies(j.URL)
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// CookieValue looks up name in a document.cookie string, where segments are
// separated by "; ". It returns the value up to the next ';'. A name that
// appears more than once is ambiguous and reported as absent.
func CookieValue(cookies, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	parts := strings.Split("; "+cookies, "; "+name+"=")
	if len(parts) != 2 {
		return "", false
	}
	value, _, _ := strings.Cut(parts[1], ";")
	return value, true
}

// CSRFToken returns the csrftoken cookie, falling back to csrf, or "" when
// neither holds a value. A missing token never blocks a request.
func CSRFToken(source CookieSource) string {
	if source == nil {
		return ""
	}
	cookies := source.Cookies()
	for _, name := range csrfCookieNames {
		if v, ok := CookieValue(cookies, name); ok && v != "" {
			return v
		}
	}
	return ""
}
