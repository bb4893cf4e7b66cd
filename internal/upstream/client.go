package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vidstats/internal/logging"
	"vidstats/internal/services"
)

// Failure kinds returned by Fetch. Callers treat every one of them as "no new
// information" for the sub-resource; errors.Is tells them apart.
var (
	ErrTransport = errors.New("upstream transport failure")
	ErrStatus    = errors.New("upstream returned non-success status")
	ErrDecode    = errors.New("upstream returned undecodable body")
	ErrNoData    = errors.New("upstream response has no data")
)

const maxErrorBody = 512

// Links carries the pagination cursor of a listing response.
type Links struct {
	Next *string `json:"next"`
}

// Envelope is the {data, links} wrapper every endpoint responds with.
type Envelope struct {
	Data  json.RawMessage `json:"data"`
	Links *Links          `json:"links"`
}

// Client performs authenticated GET requests against the analytics API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	maxPages   int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithLogger sets the logger used for fetch warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxPages caps the number of listing pages ListAllVideos will request.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// New creates an upstream client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "upstream", "new client", "api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "upstream", "new client", "base url required", nil)
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.NewNop(),
		maxPages:   defaultMaxPages,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "upstream")
	return client, nil
}

// Fetch requests path and returns the response envelope. A missing or empty
// data field (null, [], {}, "", 0, false) yields ErrNoData. Failures are
// logged once here; callers only decide whether to skip.
func (c *Client) Fetch(ctx context.Context, path string, params url.Values) (*Envelope, error) {
	env, err := c.get(ctx, path, params)
	if err == nil && isEmptyData(env.Data) {
		err = fmt.Errorf("%w: %s", ErrNoData, path)
	}
	if err != nil {
		c.logFailure(ctx, path, err)
		return nil, err
	}
	return env, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*Envelope, error) {
	body, err := c.do(ctx, path, params)
	if err != nil {
		return nil, err
	}
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return &env, nil
}

// do issues the GET and returns the raw body of a 2xx response.
func (c *Client) do(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("%w: parse url %s: %w", ErrTransport, path, err)
	}
	if len(params) > 0 {
		endpoint.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (latency=%v): %w", ErrTransport, path, latency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrTransport, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: %s returned %d (latency=%v): %s", ErrStatus, path, resp.StatusCode, latency, snippet)
	}
	return body, nil
}

func (c *Client) logFailure(ctx context.Context, path string, err error) {
	logger := logging.WithContext(ctx, c.logger)
	if errors.Is(err, ErrNoData) {
		logger.Debug("upstream returned no data", logging.Args(logging.String("path", path))...)
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	logging.WarnWithContext(logger, "upstream fetch failed", "upstream_fetch_failed",
		logging.String("path", path),
		logging.String("reason", failureReason(err)),
		logging.Error(err),
	)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrStatus):
		return "status"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrNoData):
		return "no_data"
	default:
		return "unknown"
	}
}

// isEmptyData mirrors the falsy-data contract of the API: absent, null, empty
// collections, empty strings, zero, and false all mean "nothing to apply".
func isEmptyData(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return true
	}
	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return false
	}
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case float64:
		return v == 0
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

// decodeData unmarshals env.Data into dst, tagging failures as ErrDecode.
func (c *Client) decodeData(ctx context.Context, path string, env *Envelope, dst any) error {
	if err := json.Unmarshal(env.Data, dst); err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
		c.logFailure(ctx, path, err)
		return err
	}
	return nil
}
