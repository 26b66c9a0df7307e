package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/dataload/internal/record"
)

// DefaultBaseURL is where the integration backend listens by default.
const DefaultBaseURL = "http://localhost:8000"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Credentials is the opaque credential object handed to the backend.
type Credentials map[string]any

// Client loads records from the integration backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client, e.g. with an httptest client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the overall request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, log *slog.Logger, opts ...Option) *Client {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   4,
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Load asks the backend for the current records of integration t.
// The credentials travel JSON-encoded in the "credentials" form field.
// Any failure, including non-2xx responses, is a *LoadError, except for an
// unknown integration type which fails with ErrUnknownIntegration before any
// request is made.
func (c *Client) Load(ctx context.Context, t Type, creds Credentials) ([]record.Record, error) {
	path, err := LoadPath(t)
	if err != nil {
		return nil, err
	}

	if creds == nil {
		creds = Credentials{}
	}
	credJSON, err := json.Marshal(creds)
	if err != nil {
		return nil, &LoadError{Integration: t, Err: fmt.Errorf("encode credentials: %w", err)}
	}
	form := url.Values{}
	form.Set("credentials", string(credJSON))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &LoadError{Integration: t, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	log := c.log.With("integration", string(t), "request_id", requestID)
	start := time.Now()
	log.Debug("loading integration data", "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("load request failed", "error", err)
		return nil, &LoadError{Integration: t, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		le := &LoadError{Integration: t, Status: resp.StatusCode, Detail: parseDetail(body)}
		log.Debug("load rejected", "status", resp.StatusCode, "detail", le.Detail)
		return nil, le
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &LoadError{Integration: t, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	records, err := record.DecodeList(bytes.NewReader(body))
	if err != nil {
		return nil, &LoadError{Integration: t, Status: resp.StatusCode, Err: err}
	}

	log.Debug("loaded integration data", "records", len(records), "duration", time.Since(start))
	return records, nil
}

// Source binds a client to one integration and credential set so it can be
// driven without arguments.
type Source struct {
	Client      *Client
	Integration Type
	Credentials Credentials
}

// Load implements the loader's source contract.
func (s *Source) Load(ctx context.Context) ([]record.Record, error) {
	return s.Client.Load(ctx, s.Integration, s.Credentials)
}

// Ping checks that the backend answers on its root route.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend answered %s", resp.Status)
	}
	return nil
}
