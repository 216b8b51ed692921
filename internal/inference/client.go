// Package inference provides a typed client for the churn, fraud and
// segmentation inference service.
package inference

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the development address of the inference service.
	DefaultBaseURL = "http://localhost:8000"

	// HeaderRequestID carries the per-request correlation id.
	HeaderRequestID = "X-Request-ID"

	maxResponseBody = 16 << 20
	userAgent       = "finsight/1.0"
)

// Compile-time interface check.
var _ service.InferenceAPI = (*Client)(nil)

var validate = validator.New(validator.WithRequiredStructEnabled())

var errCustomerIDRequired = errors.New("customer id is required")

// Client talks to the inference service over HTTP.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      service.Cache
	logger     *slog.Logger
	baseURL    string
	retry      service.RetryOptions
	cacheTTL   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTransport builds the HTTP client from transport options.
func WithTransport(opts ...TransportOption) Option {
	return func(c *Client) {
		c.httpClient = NewHTTPClient(opts...)
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRateLimit throttles outgoing requests. A non-positive rate disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetry enables retries for idempotent GET requests.
func WithRetry(opts service.RetryOptions) Option {
	return func(c *Client) { c.retry = opts }
}

// WithCache caches successful GET analytics responses for ttl.
func WithCache(cache service.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", common.ErrInvalidConfig, baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: NewHTTPClient(),
		logger:     slog.Default(),
		retry:      service.RetryOptions{MaxAttempts: 1},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service address the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes a single request to the service.
type call struct {
	body      any
	query     url.Values
	method    string
	path      string
	route     string
	cacheable bool
}

func (c *Client) get(ctx context.Context, route, path string, query url.Values, dest any) error {
	return c.do(ctx, call{method: http.MethodGet, route: route, path: path, query: query}, dest)
}

func (c *Client) post(ctx context.Context, route, path string, body, dest any) error {
	return c.do(ctx, call{method: http.MethodPost, route: route, path: path, body: body}, dest)
}

func (c *Client) do(ctx context.Context, cl call, dest any) error {
	raw, err := c.fetch(ctx, cl)
	if err != nil {
		return err
	}
	if dest == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%w: decoding %s %s: %w", common.ErrUnexpectedFormat, cl.method, cl.path, err)
	}
	return nil
}

// fetch performs the request and returns the raw response body.
func (c *Client) fetch(ctx context.Context, cl call) ([]byte, error) {
	if cl.route == "" {
		cl.route = cl.path
	}
	endpoint := c.baseURL + cl.path
	if len(cl.query) > 0 {
		endpoint += "?" + cl.query.Encode()
	}

	var payload []byte
	if cl.body != nil {
		var err error
		payload, err = json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s request: %w", cl.route, err)
		}
	}

	cacheKey := ""
	if cl.cacheable && cl.method == http.MethodGet && c.cache != nil && c.cacheTTL > 0 {
		cacheKey = responseCacheKey(endpoint)
		if data, ok := c.cacheGet(ctx, cl.route, cacheKey); ok {
			return data, nil
		}
	}

	opts := service.RetryOptions{MaxAttempts: 1}
	if cl.method == http.MethodGet {
		opts = c.retry
		opts.RetryIf = common.IsRetryable
	}

	var body []byte
	err := common.WithRetry(ctx, func() error {
		data, err := c.attempt(ctx, cl, endpoint, payload)
		if err != nil {
			return err
		}
		body = data
		return nil
	}, opts)
	if err != nil {
		var retryErr *common.RetryableError
		if errors.As(err, &retryErr) && err == error(retryErr) {
			err = retryErr.Err
		}
		return nil, err
	}

	if cacheKey != "" {
		if err := c.cache.Set(ctx, cacheKey, body, c.cacheTTL); err != nil {
			c.logger.Warn("failed to cache response", "route", cl.route, "error", err)
		}
	}
	return body, nil
}

func (c *Client) attempt(ctx context.Context, cl call, endpoint string, payload []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, common.Permanent(fmt.Errorf("rate limiter: %w", err))
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, reader)
	if err != nil {
		return nil, common.Permanent(fmt.Errorf("building request: %w", err))
	}

	requestID := uuid.NewString()
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		observe(cl.method, cl.route, "error", elapsed)
		c.logger.Debug("inference request failed",
			"method", cl.method,
			"path", cl.path,
			"request_id", requestID,
			"error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			if !errors.Is(err, ctxErr) {
				err = fmt.Errorf("%w: %w", ctxErr, err)
			}
			return nil, common.Permanent(fmt.Errorf("%s %s: %w", cl.method, cl.path, err))
		}
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("%w: %s %s: %w", common.ErrUnavailable, cl.method, cl.path, err),
			Retryable: ctx.Err() == nil,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	observe(cl.method, cl.route, strconv.Itoa(resp.StatusCode), elapsed)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, common.Transient(fmt.Errorf("reading response: %w", err))
	}

	c.logger.Debug("inference request",
		"method", cl.method,
		"path", cl.path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", elapsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(cl.method, cl.path, requestID, resp.StatusCode, data)
		return nil, &common.RetryableError{Err: apiErr, Retryable: apiErr.Temporary()}
	}
	return data, nil
}

func (c *Client) cacheGet(ctx context.Context, route, key string) ([]byte, bool) {
	data, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		cacheLookups.WithLabelValues(route, "error").Inc()
		c.logger.Warn("response cache lookup failed", "route", route, "error", err)
		return nil, false
	case !ok:
		cacheLookups.WithLabelValues(route, "miss").Inc()
		return nil, false
	default:
		cacheLookups.WithLabelValues(route, "hit").Inc()
		return data, true
	}
}

func responseCacheKey(endpoint string) string {
	sum := sha256.Sum256([]byte(endpoint))
	return "inference:" + hex.EncodeToString(sum[:16])
}

func observe(method, route, status string, elapsed time.Duration) {
	requestsTotal.WithLabelValues(method, route, status).Inc()
	requestDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}

func validateRequest(v any) error {
	if err := validate.Struct(v); err != nil {
		return common.NewValidationError(err)
	}
	return nil
}
