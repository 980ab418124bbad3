// Package http provides the transport used by the Infactory client.
// It includes a reusable HTTP client with retry logic, rate limiting, metrics,
// interceptors and the JSON/SSE response split.
package http

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/infactory-io/infactory-go/pkg/metrics"
	"github.com/infactory-io/infactory-go/pkg/ratelimit"
	"github.com/infactory-io/infactory-go/pkg/stream"
	"github.com/infactory-io/infactory-go/pkg/types"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 1 << 20

// ErrRequestTimeout is wrapped by errors for requests that got no response
// headers (or, for JSON, no complete body) within HTTPClientConfig.Timeout.
var ErrRequestTimeout = fmt.Errorf("infactory: request timed out: %w", context.DeadlineExceeded)

// HTTPClient provides a reusable HTTP client for the Infactory API
type HTTPClient struct {
	client       *http.Client
	config       HTTPClientConfig
	limiter      *rate.Limiter
	logger       *zap.Logger
	metrics      *ClientMetrics
	latency      *metrics.Histogram
	limits       *ratelimit.Tracker
	requestCount int64
	successCount int64
	errorCount   int64
	totalLatency int64 // Nanoseconds
	mu           sync.RWMutex
}

// HTTPClientConfig configures the HTTP client
type HTTPClientConfig struct {
	// Timeout bounds a request up to its response headers. JSON bodies must
	// also be read within it; SSE bodies are bounded by StreamReadTimeout.
	Timeout time.Duration `json:"timeout,omitempty"`

	// MaxRetries is the number of retries after the first attempt. Negative
	// disables retries.
	MaxRetries        int           `json:"max_retries,omitempty"`
	BaseRetryDelay    time.Duration `json:"base_retry_delay,omitempty"`
	MaxRetryDelay     time.Duration `json:"max_retry_delay,omitempty"`
	BackoffMultiplier float64       `json:"backoff_multiplier,omitempty"`

	// RetryJitter is the fraction of each retry delay that is randomized.
	// Zero uses 0.2; negative disables jitter.
	RetryJitter       float64 `json:"retry_jitter,omitempty"`
	RetryableStatuses []int   `json:"retryable_statuses,omitempty"`

	Headers   map[string]string `json:"headers,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`

	// RateLimit is requests per second; zero means unlimited.
	RateLimit rate.Limit `json:"rate_limit,omitempty"`
	RateBurst int        `json:"rate_burst,omitempty"`

	// StreamReadTimeout bounds the wait for each chunk of an SSE body.
	StreamReadTimeout time.Duration `json:"stream_read_timeout,omitempty"`

	TokenSource         oauth2.TokenSource  `json:"-"`
	Classifier          *stream.Classifier  `json:"-"`
	Logger              *zap.Logger         `json:"-"`
	RequestInterceptor  RequestInterceptor  `json:"-"`
	ResponseInterceptor ResponseInterceptor `json:"-"`

	// Transport configuration, ignored when Transport is set
	Transport           http.RoundTripper `json:"-"`
	MaxIdleConns        int               `json:"max_idle_conns,omitempty"`
	MaxIdleConnsPerHost int               `json:"max_idle_conns_per_host,omitempty"`
	IdleConnTimeout     time.Duration     `json:"idle_conn_timeout,omitempty"`
	TLSHandshakeTimeout time.Duration     `json:"tls_handshake_timeout,omitempty"`
}

// ClientMetrics tracks HTTP client performance
type ClientMetrics struct {
	TotalRequests   int64         `json:"total_requests"`
	SuccessfulReqs  int64         `json:"successful_requests"`
	FailedReqs      int64         `json:"failed_requests"`
	StreamsOpened   int64         `json:"streams_opened"`
	AvgLatency      time.Duration `json:"avg_latency"`
	LastRequestTime time.Time     `json:"last_request_time"`
	RetryCount      int64         `json:"retry_count"`
	ErrorsByStatus  map[int]int64 `json:"errors_by_status"`

	// Latency covers the time until the response (or stream) was handed back.
	Latency metrics.Latency `json:"latency"`
}

// RequestInterceptor allows modifying requests before sending
type RequestInterceptor interface {
	Intercept(req *http.Request) error
}

// ResponseInterceptor allows processing responses after receiving
type ResponseInterceptor interface {
	Intercept(resp *http.Response) error
}

// CallResult is a successful API response: either a buffered body or an
// open event stream.
type CallResult struct {
	StatusCode int
	Header     http.Header
	RequestID  string

	// Body holds the buffered payload of a non-streaming response.
	Body []byte

	// Stream is set when the server answered with an event stream. The
	// caller owns it and must drain or close it.
	Stream *stream.Stream
}

// NewHTTPClient creates a new HTTP client with common configurations
func NewHTTPClient(config HTTPClientConfig) *HTTPClient {
	// Set defaults
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.BaseRetryDelay == 0 {
		config.BaseRetryDelay = 500 * time.Millisecond
	}
	if config.MaxRetryDelay == 0 {
		config.MaxRetryDelay = 30 * time.Second
	}
	if config.BackoffMultiplier == 0 {
		config.BackoffMultiplier = 2.0
	}
	if config.RetryJitter == 0 {
		config.RetryJitter = 0.2
	}
	if len(config.RetryableStatuses) == 0 {
		config.RetryableStatuses = []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		}
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Classifier == nil {
		config.Classifier = stream.NewClassifier(stream.DefaultClassifierConfig(), config.Logger)
	}

	headers := make(map[string]string, len(config.Headers)+1)
	for k, v := range config.Headers {
		headers[k] = v
	}
	if config.UserAgent != "" {
		headers["User-Agent"] = config.UserAgent
	} else if headers["User-Agent"] == "" {
		headers["User-Agent"] = DefaultUserAgent
	}
	config.Headers = headers

	transport := config.Transport
	if transport == nil {
		transport = createTransport(config)
	}

	c := &HTTPClient{
		// No client-wide timeout: it would also cut off long-lived streams.
		client:  &http.Client{Transport: transport},
		config:  config,
		logger:  config.Logger.Named("http"),
		metrics: &ClientMetrics{ErrorsByStatus: make(map[int]int64)},
		latency: metrics.NewHistogram(0),
		limits:  ratelimit.NewTracker(),
	}
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(config.RateLimit, burst)
	}
	return c
}

func createTransport(config HTTPClientConfig) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 10
	t.IdleConnTimeout = 90 * time.Second
	t.TLSHandshakeTimeout = 10 * time.Second
	if config.MaxIdleConns > 0 {
		t.MaxIdleConns = config.MaxIdleConns
	}
	if config.MaxIdleConnsPerHost > 0 {
		t.MaxIdleConnsPerHost = config.MaxIdleConnsPerHost
	}
	if config.IdleConnTimeout > 0 {
		t.IdleConnTimeout = config.IdleConnTimeout
	}
	if config.TLSHandshakeTimeout > 0 {
		t.TLSHandshakeTimeout = config.TLSHandshakeTimeout
	}
	return t
}

// Config returns the effective configuration
func (c *HTTPClient) Config() HTTPClientConfig {
	return c.config
}

// Call executes req with auth, rate limiting and retries. Responses with
// status >= 400 become a *types.APIError. A text/event-stream response is
// returned unread as CallResult.Stream; anything else is buffered.
func (c *HTTPClient) Call(ctx context.Context, req *http.Request) (*CallResult, error) {
	startTime := time.Now()
	atomic.AddInt64(&c.requestCount, 1)

	if err := c.prepare(req); err != nil {
		c.updateMetrics(0, err, time.Since(startTime))
		return nil, err
	}
	requestID := req.Header.Get(RequestIDHeader)
	log := c.logger.With(
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("request_id", requestID))

	var lastErr error
	var retryAfter time.Duration
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			delay := retryAfter
			if delay <= 0 {
				delay = CalculateBackoff(c.backoffConfig(), attempt)
			}
			log.Warn("retrying request",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				c.updateMetrics(0, ctx.Err(), time.Since(startTime))
				return nil, ctx.Err()
			}
			c.mu.Lock()
			c.metrics.RetryCount++
			c.mu.Unlock()
		}

		if err := c.waitForWindow(ctx, log); err != nil {
			c.updateMetrics(0, err, time.Since(startTime))
			return nil, err
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				c.updateMetrics(0, err, time.Since(startTime))
				return nil, fmt.Errorf("rate limiter: %w", err)
			}
		}

		res, retryable, err := c.attempt(ctx, req, attempt)
		if err == nil {
			log.Debug("request completed",
				zap.Int("status", res.StatusCode),
				zap.Bool("stream", res.Stream != nil),
				zap.Duration("latency", time.Since(startTime)))
			c.updateMetrics(res.StatusCode, nil, time.Since(startTime))
			return res, nil
		}

		lastErr = err
		retryAfter = 0
		var apiErr *types.APIError
		if errors.As(err, &apiErr) {
			retryAfter = apiErr.RetryAfter
		}
		if !retryable || attempt >= c.config.MaxRetries || ctx.Err() != nil {
			status := 0
			if apiErr != nil {
				status = apiErr.StatusCode
			}
			log.Debug("request failed", zap.Int("attempts", attempt+1), zap.Error(err))
			c.updateMetrics(status, err, time.Since(startTime))
			return nil, err
		}
	}
}

// waitForWindow sleeps while the server reported an exhausted rate limit
// window, capped at MaxRetryDelay.
func (c *HTTPClient) waitForWindow(ctx context.Context, log *zap.Logger) error {
	wait := c.limits.WaitTime(time.Now())
	if wait <= 0 {
		return nil
	}
	if wait > c.config.MaxRetryDelay {
		wait = c.config.MaxRetryDelay
	}
	log.Info("rate limit window exhausted, waiting", zap.Duration("wait", wait))
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RateLimit returns the rate limit state of the most recent response that
// reported one.
func (c *HTTPClient) RateLimit() (ratelimit.Info, bool) {
	return c.limits.Latest()
}

// prepare applies headers, the request ID, auth and the request interceptor.
func (c *HTTPClient) prepare(req *http.Request) error {
	for key, value := range c.config.Headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if c.config.TokenSource != nil {
		tok, err := c.config.TokenSource.Token()
		if err != nil {
			return fmt.Errorf("infactory: obtain token: %w", err)
		}
		tok.SetAuthHeader(req)
	}
	if c.config.RequestInterceptor != nil {
		if err := c.config.RequestInterceptor.Intercept(req); err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}
	return nil
}

// attempt sends one try of req. The returned bool reports whether the error
// may be retried.
func (c *HTTPClient) attempt(ctx context.Context, orig *http.Request, n int) (*CallResult, bool, error) {
	req, err := cloneRequest(orig, n)
	if err != nil {
		return nil, false, err
	}

	reqCtx, cancel := context.WithCancel(ctx)
	var timedOut atomic.Bool
	timer := time.AfterFunc(c.config.Timeout, func() {
		timedOut.Store(true)
		cancel()
	})
	req = req.WithContext(reqCtx)

	fail := func(err error, retryable bool) (*CallResult, bool, error) {
		timer.Stop()
		cancel()
		if timedOut.Load() {
			return nil, ctx.Err() == nil, fmt.Errorf("%w after %s", ErrRequestTimeout, c.config.Timeout)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		return nil, retryable, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fail(fmt.Errorf("infactory: %s %s: %w", orig.Method, orig.URL.Path, err), isRetryableNetErr(err))
	}

	if c.config.ResponseInterceptor != nil {
		if err := c.config.ResponseInterceptor.Intercept(resp); err != nil {
			_ = resp.Body.Close()
			return fail(fmt.Errorf("response interceptor failed: %w", err), false)
		}
	}

	if info, ok := ratelimit.Parse(resp.Header, time.Now()); ok {
		c.limits.Update(info)
	}

	requestID := resp.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = orig.Header.Get(RequestIDHeader)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		apiErr := types.ParseAPIError(resp.StatusCode, string(body))
		apiErr.RequestID = requestID
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		return fail(apiErr, c.isRetryableStatus(resp.StatusCode))
	}

	result := &CallResult{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		RequestID:  requestID,
	}

	format := stream.DetectFromContentType(resp.Header.Get("Content-Type"))
	body := io.ReadCloser(resp.Body)
	if format == stream.FormatUnknown {
		br := bufio.NewReader(resp.Body)
		// one fill; never wait for more than the server has sent
		_, _ = br.Peek(1)
		head, _ := br.Peek(br.Buffered())
		format = stream.DetectFromBytes(head)
		body = readCloser{Reader: br, Closer: resp.Body}
	}

	if format == stream.FormatSSE {
		if !timer.Stop() {
			_ = body.Close()
			return fail(ErrRequestTimeout, true)
		}
		c.mu.Lock()
		c.metrics.StreamsOpened++
		c.mu.Unlock()
		result.Stream = stream.NewStream(
			&cancelOnClose{ReadCloser: body, cancel: cancel},
			stream.WithClassifier(c.config.Classifier),
			stream.WithReadTimeout(c.config.StreamReadTimeout),
			stream.WithID(requestID),
		)
		return result, false, nil
	}

	data, err := io.ReadAll(body)
	_ = body.Close()
	if err != nil {
		return fail(fmt.Errorf("failed to read response body: %w", err), true)
	}
	timer.Stop()
	cancel()
	result.Body = data
	return result, false, nil
}

// cloneRequest prepares orig for attempt n, replaying the body on retries.
func cloneRequest(orig *http.Request, n int) (*http.Request, error) {
	if n == 0 || orig.Body == nil || orig.Body == http.NoBody {
		return orig, nil
	}
	if orig.GetBody == nil {
		return nil, errors.New("infactory: request body cannot be replayed for retry")
	}
	body, err := orig.GetBody()
	if err != nil {
		return nil, fmt.Errorf("infactory: replay request body: %w", err)
	}
	cloned := orig.Clone(orig.Context())
	cloned.Body = body
	return cloned, nil
}

func (c *HTTPClient) isRetryableStatus(status int) bool {
	for _, s := range c.config.RetryableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (c *HTTPClient) backoffConfig() BackoffConfig {
	return BackoffConfig{
		BaseDelay:   c.config.BaseRetryDelay,
		MaxDelay:    c.config.MaxRetryDelay,
		Multiplier:  c.config.BackoffMultiplier,
		MaxAttempts: c.config.MaxRetries,
		Jitter:      c.config.RetryJitter,
	}
}

func isRetryableNetErr(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

// parseRetryAfter reads a Retry-After header in seconds or HTTP-date form.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

type readCloser struct {
	io.Reader
	io.Closer
}

// cancelOnClose ends the request context when the stream body is released.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// updateMetrics updates client metrics after a request
func (c *HTTPClient) updateMetrics(status int, err error, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.LastRequestTime = time.Now()
	if err != nil {
		atomic.AddInt64(&c.errorCount, 1)
		if status > 0 {
			c.metrics.ErrorsByStatus[status]++
		}
	} else {
		atomic.AddInt64(&c.successCount, 1)
	}

	c.latency.Add(latency)
	atomic.AddInt64(&c.totalLatency, latency.Nanoseconds())
	if total := atomic.LoadInt64(&c.requestCount); total > 0 {
		c.metrics.AvgLatency = time.Duration(atomic.LoadInt64(&c.totalLatency) / total)
	}
}

// GetMetrics returns current client metrics
func (c *HTTPClient) GetMetrics() ClientMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m := *c.metrics
	m.ErrorsByStatus = make(map[int]int64, len(c.metrics.ErrorsByStatus))
	for k, v := range c.metrics.ErrorsByStatus {
		m.ErrorsByStatus[k] = v
	}
	m.TotalRequests = atomic.LoadInt64(&c.requestCount)
	m.SuccessfulReqs = atomic.LoadInt64(&c.successCount)
	m.FailedReqs = atomic.LoadInt64(&c.errorCount)
	m.Latency = c.latency.Snapshot()
	return m
}

// ResetMetrics resets all metrics
func (c *HTTPClient) ResetMetrics() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics = &ClientMetrics{ErrorsByStatus: make(map[int]int64)}
	atomic.StoreInt64(&c.requestCount, 0)
	atomic.StoreInt64(&c.successCount, 0)
	atomic.StoreInt64(&c.errorCount, 0)
	atomic.StoreInt64(&c.totalLatency, 0)
	c.latency.Reset()
	c.limits.Reset()
}
