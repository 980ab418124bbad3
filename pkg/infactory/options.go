package infactory

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/infactory-io/infactory-go/pkg/config"
	apihttp "github.com/infactory-io/infactory-go/pkg/http"
	"github.com/infactory-io/infactory-go/pkg/stream"
)

// Option configures a Client
type Option func(*options)

type options struct {
	cfg         config.Config
	tokenSource oauth2.TokenSource
	httpClient  *apihttp.HTTPClient
	transport   http.RoundTripper
	logger      *zap.Logger
	classifier  *stream.ClassifierConfig
}

// WithConfig starts from a loaded configuration. Options given after it
// override its fields.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg != nil {
			o.cfg = *cfg
		}
	}
}

// WithAPIKey sets the API key sent as a bearer token
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.cfg.APIKey = key
	}
}

// WithBaseURL points the client at another deployment
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.cfg.BaseURL = baseURL
	}
}

// WithTimeout bounds each request up to its response headers
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.cfg.Timeout = d
	}
}

// WithStreamReadTimeout bounds the wait for each chunk of an event stream
func WithStreamReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.cfg.StreamReadTimeout = d
	}
}

// WithTokenSource replaces the static API key with a token source, e.g. one
// that refreshes short-lived tokens.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(o *options) {
		o.tokenSource = ts
	}
}

// WithHTTPClient supplies a fully configured transport. Timeout, retry and
// auth options are then ignored.
func WithHTTPClient(c *apihttp.HTTPClient) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithRoundTripper sets the underlying net/http transport
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClassifierConfig overrides the stream event markers
func WithClassifierConfig(cfg stream.ClassifierConfig) Option {
	return func(o *options) {
		o.classifier = &cfg
	}
}
