// Package infactory is the typed client for the Infactory API.
//
// Every call returns a stream.Response: the decoded JSON data, an error, or
// for streaming endpoints a live *stream.Stream the caller consumes with
// Next, All, stream.Subscribe or stream.Normalize.
package infactory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/infactory-io/infactory-go/pkg/auth"
	"github.com/infactory-io/infactory-go/pkg/config"
	apihttp "github.com/infactory-io/infactory-go/pkg/http"
	"github.com/infactory-io/infactory-go/pkg/logging"
	"github.com/infactory-io/infactory-go/pkg/ratelimit"
	"github.com/infactory-io/infactory-go/pkg/stream"
	"github.com/infactory-io/infactory-go/pkg/types"
)

// Client talks to one Infactory deployment. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *apihttp.HTTPClient
	logger  *zap.Logger

	Projects      *ProjectsService
	Datasources   *DatasourcesService
	Datalines     *DatalinesService
	QueryPrograms *QueryProgramsService
	Ontologies    *OntologiesService
	Chat          *ChatService
	Jobs          *JobsService
	Subscriptions *SubscriptionsService
	Platforms     *PlatformsService
	Credentials   *CredentialsService
}

type service struct {
	client *Client
}

// NewClient builds a client. An API key (or token source) is required.
func NewClient(opts ...Option) (*Client, error) {
	o := &options{cfg: *config.Default()}
	for _, opt := range opts {
		opt(o)
	}

	cfg := o.cfg
	if o.tokenSource != nil && cfg.APIKey == "" {
		// validation only; the token source supplies credentials
		cfg.APIKey = "token-source"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.OrNop(o.logger)
	c := &Client{
		baseURL: o.cfg.BaseURL,
		logger:  logger.Named("infactory"),
		http:    o.httpClient,
	}

	if c.http == nil {
		ts := o.tokenSource
		if ts == nil {
			ts = auth.StaticTokenSource(o.cfg.APIKey)
		}
		classifierCfg := stream.DefaultClassifierConfig()
		if o.classifier != nil {
			classifierCfg = *o.classifier
		}
		if o.cfg.NoticeText != "" {
			classifierCfg.NoticeText = o.cfg.NoticeText
		}

		maxRetries := o.cfg.MaxRetries
		if maxRetries == 0 {
			maxRetries = -1
		}
		c.http = apihttp.NewHTTPClient(apihttp.HTTPClientConfig{
			Timeout:           o.cfg.Timeout,
			MaxRetries:        maxRetries,
			UserAgent:         o.cfg.UserAgent,
			RateLimit:         rate.Limit(o.cfg.RateLimitRPS),
			RateBurst:         o.cfg.RateLimitBurst,
			StreamReadTimeout: o.cfg.StreamReadTimeout,
			TokenSource:       ts,
			Classifier:        stream.NewClassifier(classifierCfg, logger),
			Logger:            logger,
			Transport:         o.transport,
		})
	}

	s := service{client: c}
	c.Projects = (*ProjectsService)(&s)
	c.Datasources = (*DatasourcesService)(&s)
	c.Datalines = (*DatalinesService)(&s)
	c.QueryPrograms = (*QueryProgramsService)(&s)
	c.Ontologies = (*OntologiesService)(&s)
	c.Chat = (*ChatService)(&s)
	c.Jobs = (*JobsService)(&s)
	c.Subscriptions = (*SubscriptionsService)(&s)
	c.Platforms = (*PlatformsService)(&s)
	c.Credentials = (*CredentialsService)(&s)

	c.logger.Debug("client initialized",
		zap.String("base_url", c.baseURL),
		zap.String("api_key", auth.MaskToken(o.cfg.APIKey)))
	return c, nil
}

// NewClientFromEnv loads configuration with config.Load(path) and builds a
// client from it. Extra options override the loaded values.
func NewClientFromEnv(path string, opts ...Option) (*Client, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return NewClient(append([]Option{WithConfig(cfg)}, opts...)...)
}

// BaseURL returns the API root this client targets
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Metrics returns transport counters
func (c *Client) Metrics() apihttp.ClientMetrics {
	return c.http.GetMetrics()
}

// RateLimit returns the rate limit window last reported by the API
func (c *Client) RateLimit() (ratelimit.Info, bool) {
	return c.http.RateLimit()
}

// request describes one API call
type request struct {
	method string
	path   string
	query  map[string]string
	body   any
	stream bool

	upload *upload
}

type upload struct {
	field    string
	filename string
	file     io.Reader
	fields   map[string]string
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	b := apihttp.NewRequestBuilder(r.method, apihttp.JoinURL(c.baseURL, r.path)).WithContext(ctx)
	for k, v := range r.query {
		b.WithQuery(k, v)
	}
	switch {
	case r.upload != nil:
		b.WithMultipartFile(r.upload.field, r.upload.filename, r.upload.file, r.upload.fields)
	case r.body != nil:
		b.WithJSONBody(r.body)
	}
	if r.stream {
		b.AcceptStream()
	}
	return b.Build()
}

// do performs r and hands back the raw response arm, which may be a live
// stream for streaming endpoints.
func do[T any](ctx context.Context, c *Client, r request) stream.Response[T] {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return stream.Failure[T](err)
	}
	return apihttp.ToResponse[T](c.http.Call(ctx, req))
}

// call performs a JSON endpoint. If the server answers with an event stream
// anyway, the stream is drained and its last status message decoded into T.
func call[T any](ctx context.Context, c *Client, r request) stream.Response[T] {
	return stream.Normalize(ctx, do[T](ctx, c, r), FoldStatus[T])
}

// FoldStatus decodes the last status message of a stream into T.
func FoldStatus[T any](res stream.Result) (T, error) {
	var out T
	if len(res.Status) == 0 {
		return out, fmt.Errorf("infactory: stream ended without a status message after %d events", res.EventCount)
	}
	if err := decodeJSON(res.Status, &out); err != nil {
		return out, err
	}
	return out, nil
}

func decodeJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &apihttp.DecodeError{Err: err, Body: string(data)}
	}
	return nil
}

// endpoint formats an API path, escaping each ID. An empty ID fails with
// types.ErrMissingID before any request is made.
func endpoint(format string, ids ...string) (string, error) {
	args := make([]any, len(ids))
	for i, id := range ids {
		if id == "" {
			return "", types.ErrMissingID
		}
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...), nil
}
