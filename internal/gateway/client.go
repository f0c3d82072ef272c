// Package gateway is the single HTTP client used to talk to the Gemora
// backend. It attaches the session token to every call and turns a 401 into a
// session invalidation that subscribers can react to.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/gemora/internal/log"
	"github.com/felixgeelhaar/gemora/internal/metrics"
	"github.com/felixgeelhaar/gemora/internal/telemetry"
	"github.com/felixgeelhaar/gemora/internal/version"
)

const (
	// DefaultBaseURL is the backend used when none is configured.
	DefaultBaseURL = "http://localhost:8080/api"
	// DefaultTimeout bounds every call, including reading the body.
	DefaultTimeout = 15 * time.Second
)

// TokenSource provides the bearer token and accepts invalidations.
// session.Store implements it.
type TokenSource interface {
	Snapshot() (token string, generation uint64)
	Invalidate(generation uint64) bool
}

// Config holds the per-client settings.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig returns the stock backend settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		UserAgent: version.UserAgent(),
	}
}

// RequestOptions adjusts a single call.
type RequestOptions struct {
	Headers    map[string]string
	Query      url.Values
	OnProgress ProgressFunc
}

// Client is the Gemora backend client
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	tokens     TokenSource
	logger     *log.Logger
	metrics    *metrics.Metrics

	listenersMu sync.Mutex
	listeners   map[int]func(Invalidation)
	nextID      int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Timeout is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for rejected calls.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics records request metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client for cfg. tokens may be nil for anonymous use.
func New(cfg Config, tokens TokenSource, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
		logger:     log.DefaultLogger(),
		listeners:  make(map[int]func(Invalidation)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type call struct {
	method      string
	path        string
	body        []byte
	contentType string
	opts        *RequestOptions
	sink        io.Writer
}

func (c *Client) snapshot() (string, uint64) {
	if c.tokens == nil {
		return "", 0
	}
	return c.tokens.Snapshot()
}

func (c *Client) newRequest(ctx context.Context, cl call, token string) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + cl.path)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL: %w", err)
	}
	if cl.opts != nil && len(cl.opts.Query) > 0 {
		q := u.Query()
		for k, vs := range cl.opts.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
		if cl.opts != nil && cl.opts.OnProgress != nil {
			body = &progressReader{r: body, total: int64(len(cl.body)), fn: cl.opts.OnProgress}
		}
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if cl.body != nil {
		req.ContentLength = int64(len(cl.body))
	}

	// Caller headers go first; Content-Type and Authorization are always ours
	// so a multipart boundary or the bearer token cannot be replaced.
	if cl.opts != nil {
		for k, v := range cl.opts.Headers {
			req.Header.Set(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		accept := "application/json"
		if cl.sink != nil {
			accept = "*/*"
		}
		req.Header.Set("Accept", accept)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	contentType := cl.contentType
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Del("Authorization")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, cl call) (*Response, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, cl.method, cl.path)
	defer span.End()
	start := time.Now()

	token, generation := c.snapshot()

	req, err := c.newRequest(ctx, cl, token)
	if err != nil {
		gerr := &Error{Kind: KindRequest, Method: cl.method, Path: cl.path, Cause: err}
		c.logger.WithError(err).ErrorContext(ctx, "failed to build request", "method", cl.method, "path", cl.path)
		c.record(cl.method, 0, start, gerr)
		telemetry.RecordError(span, gerr)
		return nil, gerr
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		gerr := &Error{Kind: KindNetwork, Method: cl.method, Path: cl.path, Cause: err}
		c.logger.WithError(err).ErrorContext(ctx, "no response from server", "method", cl.method, "path", cl.path)
		c.record(cl.method, 0, start, gerr)
		telemetry.RecordError(span, gerr)
		return nil, gerr
	}
	defer resp.Body.Close()
	telemetry.RecordStatus(span, resp.StatusCode)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		out, err := c.readSuccess(resp, cl)
		if err != nil {
			gerr := &Error{Kind: KindNetwork, StatusCode: resp.StatusCode, Method: cl.method, Path: cl.path, Cause: err}
			c.logger.WithError(err).ErrorContext(ctx, "failed to read response", "method", cl.method, "path", cl.path)
			c.record(cl.method, resp.StatusCode, start, gerr)
			telemetry.RecordError(span, gerr)
			return nil, gerr
		}
		c.record(cl.method, resp.StatusCode, start, nil)
		telemetry.RecordSuccess(span)
		return out, nil
	}

	body, _ := io.ReadAll(resp.Body)
	gerr := &Error{
		Kind:       KindServer,
		StatusCode: resp.StatusCode,
		Message:    backendMessage(body),
		Method:     cl.method,
		Path:       cl.path,
		Body:       body,
	}
	logger := c.logger.With("method", cl.method, "path", cl.path, "status", resp.StatusCode, "message", gerr.Message)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		c.invalidate(ctx, cl, generation)
	case http.StatusForbidden:
		logger.WarnContext(ctx, "access forbidden")
	case http.StatusNotFound:
		logger.ErrorContext(ctx, "resource not found")
	case http.StatusInternalServerError:
		logger.ErrorContext(ctx, "server error")
	default:
		logger.ErrorContext(ctx, "request rejected")
	}

	c.record(cl.method, resp.StatusCode, start, gerr)
	telemetry.RecordError(span, gerr)
	return nil, gerr
}

func (c *Client) readSuccess(resp *http.Response, cl call) (*Response, error) {
	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header}

	if cl.sink == nil {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		out.Body = body
		return out, nil
	}

	w := cl.sink
	if cl.opts != nil && cl.opts.OnProgress != nil {
		w = &progressWriter{w: w, total: resp.ContentLength, fn: cl.opts.OnProgress}
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return nil, err
	}
	return out, nil
}

// invalidate clears the session the rejected request was sent under. A 401
// for a superseded generation leaves the newer session alone, and a session
// another 401 already cleared is not announced twice.
func (c *Client) invalidate(ctx context.Context, cl call, generation uint64) {
	if c.tokens == nil {
		return
	}
	if !c.tokens.Invalidate(generation) {
		c.logger.DebugContext(ctx, "ignoring 401 for a superseded or cleared session",
			"method", cl.method, "path", cl.path, "generation", generation)
		if c.metrics != nil {
			c.metrics.SessionInvalidations.WithLabelValues("fenced").Inc()
		}
		return
	}

	c.logger.InfoContext(ctx, "session invalidated by server",
		"method", cl.method, "path", cl.path, "generation", generation)
	if c.metrics != nil {
		c.metrics.SessionInvalidations.WithLabelValues("applied").Inc()
	}
	c.emit(Invalidation{Method: cl.method, Path: cl.path, Generation: generation})
}

func (c *Client) record(method string, status int, start time.Time, gerr *Error) {
	if c.metrics == nil {
		return
	}
	c.metrics.GatewayRequests.WithLabelValues(method, metrics.StatusClass(status)).Inc()
	c.metrics.GatewayLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if gerr != nil {
		c.metrics.GatewayErrors.WithLabelValues(string(gerr.Kind)).Inc()
	}
}
