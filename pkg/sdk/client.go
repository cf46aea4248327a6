package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/metric"
)

// DefaultRefreshTimeout bounds a single call to the refresh endpoint. Every
// request queued behind the refresh waits at most this long for a decision.
const DefaultRefreshTimeout = 10 * time.Second

// Client talks to the ICU dashboard API on behalf of a Session. Every call
// carries the session's bearer token; a 401 triggers one shared token
// refresh after which the failed calls are replayed with the new token.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	session    *Session
	logger     *slog.Logger
	metrics    *clientMetrics

	refresh        refreshGroup
	refreshTimeout time.Duration
	devFallback    bool

	patients *lru.Cache[int, Patient]
}

// ClientOptions configures SDK client construction.
type ClientOptions struct {
	HTTPClient     *http.Client
	Logger         *slog.Logger
	MeterProvider  metric.MeterProvider
	RefreshTimeout time.Duration
	// DevelopmentLoginFallback fabricates a local session when login fails.
	// Never enable it against a production API.
	DevelopmentLoginFallback bool
	PatientCacheSize         int
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client. The client should carry a cookie
// jar, otherwise the refresh cookie set at login is lost.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithLogger sets the structured logger used by the client.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(opts *ClientOptions) {
		opts.Logger = logger
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for client metrics.
func WithMeterProvider(mp metric.MeterProvider) ClientOption {
	return func(opts *ClientOptions) {
		opts.MeterProvider = mp
	}
}

// WithRefreshTimeout bounds the refresh call. Zero disables the bound.
func WithRefreshTimeout(d time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.RefreshTimeout = d
	}
}

// WithDevelopmentLoginFallback enables the local fake session on login failure.
func WithDevelopmentLoginFallback(enabled bool) ClientOption {
	return func(opts *ClientOptions) {
		opts.DevelopmentLoginFallback = enabled
	}
}

// WithPatientCacheSize sets how many patient records GetPatient memoizes.
func WithPatientCacheSize(size int) ClientOption {
	return func(opts *ClientOptions) {
		opts.PatientCacheSize = size
	}
}

// NewClient creates a client for the API at baseURL bound to session. When
// no HTTP client is supplied one is built with a cookie jar persisted in the
// session's storage.
func NewClient(baseURL string, session *Session, optFns ...ClientOption) (*Client, error) {
	opts := ClientOptions{
		RefreshTimeout:   DefaultRefreshTimeout,
		PatientCacheSize: 256,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: scheme and host are required", baseURL)
	}

	if session == nil {
		session = NewSession(nil, WithSessionLogger(opts.Logger))
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		jar, err := newPersistentJar(u, session.storage, opts.Logger)
		if err != nil {
			return nil, err
		}
		httpClient = &http.Client{Jar: jar}
	}

	if opts.PatientCacheSize <= 0 {
		opts.PatientCacheSize = 1
	}
	patients, err := lru.New[int, Patient](opts.PatientCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create patient cache: %w", err)
	}
	// Patient data must not outlive the token that was allowed to read it.
	// A new token may belong to another user.
	session.Subscribe(func(ev SessionEvent) {
		if ev.Kind == EventCleared || ev.Kind == EventTokenChanged {
			patients.Purge()
		}
	})

	return &Client{
		baseURL:        u,
		httpClient:     httpClient,
		session:        session,
		logger:         opts.Logger,
		metrics:        newClientMetrics(opts.MeterProvider),
		refreshTimeout: opts.RefreshTimeout,
		devFallback:    opts.DevelopmentLoginFallback,
		patients:       patients,
	}, nil
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session {
	return c.session
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// request is a replayable description of an API call. The body is kept as
// bytes so the call can be re-issued after a refresh.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string

	// noRecover surfaces a 401 as-is instead of refreshing (credential checks).
	noRecover bool
	// retried is set once the request has been through a refresh cycle.
	retried bool
}

func (c *Client) newHTTPRequest(ctx context.Context, r *request, token string) (*http.Request, error) {
	u := c.baseURL.JoinPath(r.path)
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request %s %s: %w", r.method, r.path, err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		bearer(token).SetAuthHeader(req)
	}
	return req, nil
}

// send issues r once with the given token on the bare transport. It applies
// no recovery of any kind.
func (c *Client) send(ctx context.Context, r *request, token string) (*http.Response, error) {
	req, err := c.newHTTPRequest(ctx, r, token)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	return resp, nil
}

// do issues r with the session's current token and recovers from a single
// expired-token failure.
func (c *Client) do(ctx context.Context, r *request) (*http.Response, error) {
	resp, err := c.send(ctx, r, c.session.Token())
	if err != nil {
		return nil, err
	}
	if isSuccess(resp) {
		return resp, nil
	}
	if resp.StatusCode != http.StatusUnauthorized || r.retried || r.noRecover {
		return nil, newAPIError(r.method, r.path, resp)
	}
	discard(resp)

	r.retried = true
	token, err := c.awaitRefresh(ctx)
	if err != nil {
		return nil, err
	}
	return c.replay(ctx, r, token)
}

// replay re-issues r with the refreshed token. Its failures, a second 401
// included, are final.
func (c *Client) replay(ctx context.Context, r *request, token string) (*http.Response, error) {
	c.metrics.recordReplay(ctx, r.method)
	resp, err := c.send(ctx, r, token)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp) {
		return nil, newAPIError(r.method, r.path, resp)
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, &request{method: http.MethodGet, path: path, query: query})
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	r := &request{method: method, path: path}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s body: %w", method, path, err)
		}
		r.body = data
		r.contentType = "application/json"
	}
	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

func isSuccess(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}

// decodeJSON decodes the response body into out and closes it. A nil out
// discards the body.
func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", resp.Request.URL.Path, err)
	}
	return nil
}
