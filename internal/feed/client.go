package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDataURL     = "https://status.aws.amazon.com/data.json"
	DefaultServicesURL = "https://status.aws.amazon.com/services.json"

	defaultTimeout = 30 * time.Second
)

// FetchError wraps any network, status or decode failure against a
// remote feed so callers can distinguish it from record-level errors.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UnixSeconds decodes a Unix timestamp that the feed serves
// inconsistently as either a JSON number or a numeric string.
type UnixSeconds int64

func (u *UnixSeconds) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*u = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("invalid unix timestamp %q", s)
		}
		n = int64(f)
	}
	*u = UnixSeconds(n)
	return nil
}

// RawIssue is one record of the status feed, untouched apart from JSON
// decoding. Description holds raw HTML.
type RawIssue struct {
	Service     string      `json:"service"`
	ServiceName string      `json:"service_name"`
	Summary     string      `json:"summary"`
	Date        UnixSeconds `json:"date"`
	Description string      `json:"description"`
}

// StatusFeed is the decoded data.json document.
type StatusFeed struct {
	Current []RawIssue `json:"current"`
	Archive []RawIssue `json:"archive"`
}

// ServiceEntry is one record of the service catalog feed.
type ServiceEntry struct {
	ServiceName string `json:"service_name"`
	Service     string `json:"service"`
	RegionID    string `json:"region_id"`
	RegionName  string `json:"region_name"`
}

// Fetcher is the remote collaborator surface the store and catalog
// depend on, kept small so tests can swap in canned feeds.
type Fetcher interface {
	FetchStatus(ctx context.Context) (*StatusFeed, error)
	FetchServices(ctx context.Context) ([]ServiceEntry, error)
}

// Client fetches the status and service-catalog feeds over HTTP.
type Client struct {
	httpClient  *http.Client
	dataURL     string
	servicesURL string
}

// Option adjusts a Client at construction time.
type Option func(*Client)

// WithURLs overrides the feed endpoints (used by tests and mirrors).
func WithURLs(dataURL, servicesURL string) Option {
	return func(c *Client) {
		if dataURL != "" {
			c.dataURL = dataURL
		}
		if servicesURL != "" {
			c.servicesURL = servicesURL
		}
	}
}

// WithTimeout overrides the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a feed client pointed at the public endpoints.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		dataURL:     DefaultDataURL,
		servicesURL: DefaultServicesURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchStatus retrieves and decodes the issue feed.
func (c *Client) FetchStatus(ctx context.Context) (*StatusFeed, error) {
	body, err := c.get(ctx, c.dataURL)
	if err != nil {
		return nil, err
	}

	var feed StatusFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, &FetchError{URL: c.dataURL, Err: fmt.Errorf("decode: %w", err)}
	}
	return &feed, nil
}

// FetchServices retrieves and decodes the service catalog feed.
func (c *Client) FetchServices(ctx context.Context) ([]ServiceEntry, error) {
	body, err := c.get(ctx, c.servicesURL)
	if err != nil {
		return nil, err
	}

	var entries []ServiceEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &FetchError{URL: c.servicesURL, Err: fmt.Errorf("decode: %w", err)}
	}
	return entries, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return body, nil
}
