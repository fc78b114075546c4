// client.go
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cs50/review50/pkg/core"
)

var linkNext = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// Client handles HTTP requests to the GitHub REST API
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
	limiter    *rate.Limiter
}

// NewClient creates a new GitHub HTTP client from cfg
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r, burst := cfg.Rate, cfg.Burst
	if r <= 0 {
		r = DefaultRate
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	baseURL := cfg.APIURL
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(rate.Limit(r), burst),
	}
}

// URL joins path segments onto the API base, escaping each segment.
func (c *Client) URL(query url.Values, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u := c.baseURL + "/" + strings.Join(escaped, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Do performs a request and maps non-2xx responses to errors.
// The caller closes the body of a successful response.
func (c *Client) Do(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", MediaType)
	req.Header.Set("X-GitHub-Api-Version", APIVersion)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}

	if err := checkResponse(resp); err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}

	return resp, nil
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var doc apiError
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &doc)
	msg := doc.Message
	for _, e := range doc.Errors {
		if e.Message != "" {
			msg += ": " + e.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &StatusError{Code: resp.StatusCode, Message: msg, kind: core.ErrUnauthorized}
	case http.StatusNotFound:
		return &StatusError{Code: resp.StatusCode, Message: msg, kind: core.ErrNotFound}
	case http.StatusUnprocessableEntity:
		return &StatusError{Code: resp.StatusCode, Message: msg, kind: core.ErrUnprocessable}
	default:
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}
}

// StatusError is a non-2xx API response
type StatusError struct {
	Code    int
	Message string
	kind    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

// GetJSON fetches a URL and unmarshals the JSON response. It returns
// the URL of the next page when the response is paginated.
func (c *Client) GetJSON(ctx context.Context, url string, v interface{}) (string, error) {
	resp, err := c.Do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return "", fmt.Errorf("decoding JSON: %w", err)
	}

	return nextPage(resp.Header.Get("Link")), nil
}

// PostJSON sends in as JSON and decodes the response into out, if non-nil
func (c *Client) PostJSON(ctx context.Context, url string, in, out interface{}) error {
	return c.SendJSON(ctx, http.MethodPost, url, in, out)
}

// PatchJSON is PostJSON with the PATCH method
func (c *Client) PatchJSON(ctx context.Context, url string, in, out interface{}) error {
	return c.SendJSON(ctx, http.MethodPatch, url, in, out)
}

// SendJSON sends in as JSON with method and decodes the response into out
func (c *Client) SendJSON(ctx context.Context, method, url string, in, out interface{}) error {
	resp, err := c.Do(ctx, method, url, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding JSON: %w", err)
	}
	return nil
}

// GetAll follows pagination and concatenates every page.
func GetAll[T any](ctx context.Context, c *Client, url string) ([]T, error) {
	var all []T
	for url != "" {
		var page []T
		next, err := c.GetJSON(ctx, url, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		url = next
	}
	return all, nil
}

func nextPage(link string) string {
	if m := linkNext.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}

// IsAlreadyExists reports whether err is GitHub's 422 for a ref or
// pull request that already exists.
func IsAlreadyExists(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnprocessableEntity {
		return false
	}
	return strings.Contains(strings.ToLower(se.Message), "already exists")
}
