package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/five82/swiftrun/internal/booking"
)

// ErrNotFound is returned when the remote store has no blob for a key,
// usually because it expired.
var ErrNotFound = errors.New("blob not found")

// Remote is the subset of the blob protocol the sync engine needs.
// *Client implements it; tests substitute fakes.
type Remote interface {
	Create(ctx context.Context, items []booking.Booking) (string, error)
	Fetch(ctx context.Context, key string) ([]booking.Booking, error)
	Update(ctx context.Context, key string, items []booking.Booking) error
}

var _ Remote = (*Client)(nil)

// Client talks to a JSON blob store over HTTP.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	DefaultBaseURL        = "http://127.0.0.1:7490/api/blobs"
	DefaultRequestTimeout = 8 * time.Second

	// maxResponseBytes caps how much of a blob body is read.
	maxResponseBytes = 16 << 20
)

// Version is reported in the User-Agent header.
var Version = "0.1"

// NewClient builds a Client for the blob collection at baseURL. A zero
// timeout uses DefaultRequestTimeout.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: "swiftrun/" + Version,
	}, nil
}

// BaseURL returns the blob collection URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Create stores items as a new blob and returns its key.
func (c *Client) Create(ctx context.Context, items []booking.Booking) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	resp, err := c.send(ctx, http.MethodPost, c.baseURL, items)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if loc := strings.TrimSpace(resp.Header.Get("Location")); loc != "" {
		if key := lastSegment(loc); key != "" {
			return key, nil
		}
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&created); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(created.ID) == "" {
		return "", fmt.Errorf("api %s returned no blob id", c.baseURL.Path)
	}
	return created.ID, nil
}

// Fetch reads the blob for key.
func (c *Client) Fetch(ctx context.Context, key string) ([]booking.Booking, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	u, err := c.blobURL(key)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	items, err := booking.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return items, nil
}

// Update overwrites the blob for key with items.
func (c *Client) Update(ctx context.Context, key string, items []booking.Booking) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	u, err := c.blobURL(key)
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, http.MethodPut, u, items)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	return resp.Body.Close()
}

// send executes one request. Non-2xx responses are closed and returned
// as errors; 404 maps to ErrNotFound.
func (c *Client) send(ctx context.Context, method string, u *url.URL, items []booking.Booking) (*http.Response, error) {
	var body io.Reader
	if method != http.MethodGet {
		data, err := booking.Encode(items)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("api %s: %w", u.Path, ErrNotFound)
	}
	if resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("api %s returned status %d", u.Path, resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) blobURL(key string) (*url.URL, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, "/?#") {
		return nil, fmt.Errorf("invalid blob key %q", key)
	}
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + url.PathEscape(key)
	u.RawPath = ""
	return &u, nil
}

func lastSegment(location string) string {
	if u, err := url.Parse(location); err == nil {
		location = u.Path
	}
	seg := path.Base(strings.TrimSuffix(location, "/"))
	if seg == "." || seg == "/" {
		return ""
	}
	return seg
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse remote_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse remote_url %q: missing host", raw)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
