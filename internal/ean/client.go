package ean

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/grischamedia/gmean/internal/logging"
	"github.com/grischamedia/gmean/internal/urls"
	"github.com/grischamedia/gmean/internal/version"
)

// Header names sent with every save
const (
	HeaderRequestedWith = "X-Requested-With"
	HeaderCSRFToken     = "X-CSRFToken"
	RequestedWithAJAX   = "XMLHttpRequest"
)

// FormField is the single form field the EAN is submitted in
const FormField = "ean"

// maxBodySize bounds how much of a response body is read
const maxBodySize = 1 << 20

// Client is the HTTP side of the widget. It performs no retries and imposes
// no timeout of its own; callers bound a save through the context.
type Client struct {
	// HTTPClient is the underlying HTTP client. Its Jar, if any, doubles as
	// the cookie store for CSRF tokens.
	HTTPClient *http.Client

	// UserAgent is sent on every request
	UserAgent string
}

// NewClient creates a client with a fresh cookie jar and no timeout
func NewClient() *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		HTTPClient: &http.Client{Jar: jar},
		UserAgent:  version.UserAgent(),
	}
}

// SetTimeout sets an overall HTTP timeout. Zero disables it.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// CookiesFor returns a CookieSource over the client's jar for base
func (c *Client) CookiesFor(base string) CookieSource {
	u, err := url.Parse(base)
	if err != nil || c.HTTPClient.Jar == nil {
		return CookieString("")
	}
	return JarCookies{Jar: c.HTTPClient.Jar, URL: u}
}

// SaveResponse is the server's answer to a save.
// Body is the parsed JSON object, or empty when the body was not one.
type SaveResponse struct {
	StatusCode int
	Body       map[string]any
}

// OK reports whether the HTTP status is 2xx
func (r *SaveResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Success reports whether the save was accepted: 2xx and a truthy success
func (r *SaveResponse) Success() bool {
	return r.OK() && truthy(r.Body["success"])
}

// ErrorMessage returns the body's error field when it is truthy, else ""
func (r *SaveResponse) ErrorMessage() string {
	v := r.Body["error"]
	if !truthy(v) {
		return ""
	}
	return displayString(v)
}

// Status converts the response into what the status display should show
func (r *SaveResponse) Status() Status {
	if r.Success() {
		return SuccessStatus()
	}
	return ErrorStatus(r.ErrorMessage())
}

// PostEAN form-posts value to setURL with the AJAX and CSRF headers.
// Only transport failures are returned as errors; every HTTP response,
// whatever its status or body, yields a *SaveResponse.
func (c *Client) PostEAN(ctx context.Context, setURL, value, token string) (*SaveResponse, error) {
	form := url.Values{}
	form.Set(FormField, value)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, setURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, NewRequestError(setURL, err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(HeaderRequestedWith, RequestedWithAJAX)
	req.Header.Set(HeaderCSRFToken, token)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, ClassifyNetworkError(err, setURL)
	}
	defer func() { _ = resp.Body.Close() }()

	// An unreadable body is treated like an empty one
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))

	return &SaveResponse{
		StatusCode: resp.StatusCode,
		Body:       parseObject(body),
	}, nil
}

// FetchPanel loads the panel context for a part. The request also primes
// the cookie jar with the server's csrftoken cookie.
func (c *Client) FetchPanel(ctx context.Context, baseURL string, pk int) (*PanelContext, error) {
	endpoint := urls.Join(baseURL, urls.PanelPath(pk))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewRequestError(endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, ClassifyNetworkError(err, endpoint)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, ClassifyNetworkError(err, endpoint)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(endpoint, resp.StatusCode, fmt.Sprintf("panel request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var panel PanelContext
	if err := json.Unmarshal(body, &panel); err != nil {
		return nil, NewParseError(endpoint, err)
	}

	// set_url is relative to the server, like a link on the admin page
	resolved, err := resolve(baseURL, panel.SetURL)
	if err != nil {
		return nil, NewParseError(endpoint, err)
	}
	panel.SetURL = resolved

	return &panel, nil
}

// SearchResult is the outcome of an EAN search
type SearchResult struct {
	Found    bool
	Location string // part detail URL when found
	Message  string // server message when not found
}

// Search asks the server which part carries code. Redirects are not
// followed; a redirect means the part was found.
func (c *Client) Search(ctx context.Context, baseURL, code string) (*SearchResult, error) {
	endpoint := urls.Join(baseURL, urls.SearchPath(code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewRequestError(endpoint, err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	noRedirect := *c.HTTPClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := noRedirect.Do(req)
	if err != nil {
		return nil, ClassifyNetworkError(err, endpoint)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		location, err := resolve(baseURL, resp.Header.Get("Location"))
		if err != nil {
			return nil, NewParseError(endpoint, err)
		}
		return &SearchResult{Found: true, Location: location}, nil
	case resp.StatusCode == http.StatusNotFound:
		result := &SaveResponse{StatusCode: resp.StatusCode, Body: parseObject(body)}
		return &SearchResult{Found: false, Message: result.ErrorMessage()}, nil
	default:
		return nil, NewHTTPError(endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

func resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

// parseObject decodes body as a JSON object. Anything else, including an
// empty body, JSON null, arrays and scalars, yields an empty map.
func parseObject(body []byte) map[string]any {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		logging.Debug("Response body is not JSON, treating as empty object")
		return map[string]any{}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return obj
}

// truthy applies JavaScript truthiness to a decoded JSON value
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		// objects and arrays
		return true
	}
}

// displayString renders a decoded JSON value the way a DOM textContent
// assignment would
func displayString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		return "[object Object]"
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			if item != nil {
				parts[i] = displayString(item)
			}
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}
