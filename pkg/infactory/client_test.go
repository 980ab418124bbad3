package infactory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/infactory-io/infactory-go/pkg/config"
	"github.com/infactory-io/infactory-go/pkg/stream"
	"github.com/infactory-io/infactory-go/pkg/types"
)

// recorded is one request seen by the test server
type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
	Header http.Header
}

type recorder struct {
	mu       sync.Mutex
	requests []recorded
}

func (r *recorder) add(req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	req.Body = io.NopCloser(bytes.NewReader(body))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, recorded{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.RawQuery,
		Auth:   req.Header.Get("Authorization"),
		Body:   string(body),
		Header: req.Header.Clone(),
	})
}

func (r *recorder) last(t *testing.T) recorded {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.requests, "no request recorded")
	return r.requests[len(r.requests)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

// newTestClient starts a server that records each request and answers with
// handler, and returns a client pointed at it with retries disabled.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.MaxRetries = 0
	c, err := NewClient(WithConfig(cfg), WithAPIKey("nf-test"), WithBaseURL(srv.URL))
	require.NoError(t, err)
	return c, rec
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func sseHandler(frames ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for _, f := range frames {
			_, _ = io.WriteString(w, f)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func delta(text string) string {
	b, _ := json.Marshal(text)
	return "event: LLMContent\ndata: {\"content\":" + string(b) + "}\n\n"
}

func frame(eventType, data string) string {
	return "event: " + eventType + "\ndata: " + data + "\n\n"
}

func TestNewClient(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		_, err := NewClient()
		assert.ErrorIs(t, err, types.ErrMissingAPIKey)
	})

	t.Run("invalid base url", func(t *testing.T) {
		_, err := NewClient(WithAPIKey("k"), WithBaseURL("ftp://nowhere"))
		assert.Error(t, err)
	})

	t.Run("defaults", func(t *testing.T) {
		c, err := NewClient(WithAPIKey("k"))
		require.NoError(t, err)
		assert.Equal(t, config.DefaultBaseURL, c.BaseURL())
		assert.NotNil(t, c.Projects)
		assert.NotNil(t, c.Chat)
		assert.NotNil(t, c.Credentials)
	})

	t.Run("token source replaces key", func(t *testing.T) {
		rec := &recorder{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec.add(r)
			_, _ = io.WriteString(w, `[]`)
		}))
		defer srv.Close()

		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "short-lived", TokenType: "Bearer"})
		c, err := NewClient(WithTokenSource(ts), WithBaseURL(srv.URL))
		require.NoError(t, err)

		res := c.Platforms.List(context.Background())
		require.False(t, res.IsError(), "%v", res.Err)
		assert.Equal(t, "Bearer short-lived", rec.last(t).Auth)
	})
}

func TestNewClientFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvAPIKey, "from-env")
	t.Setenv(config.EnvBaseURL, "https://staging.example.com")

	c, err := NewClientFromEnv("", WithBaseURL("https://override.example.com"))
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.com", c.BaseURL())
}

func TestEndpointMapping(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func(c *Client) *types.ErrorInfo
		method string
		path   string
		query  string
	}{
		{"projects list", func(c *Client) *types.ErrorInfo { return c.Projects.List(ctx, "t1").Err }, "GET", "/v1/projects", "team_id=t1"},
		{"projects list all", func(c *Client) *types.ErrorInfo { return c.Projects.List(ctx, "").Err }, "GET", "/v1/projects", ""},
		{"projects get", func(c *Client) *types.ErrorInfo { return c.Projects.Get(ctx, "p1").Err }, "GET", "/v1/projects/p1", ""},
		{"projects create", func(c *Client) *types.ErrorInfo {
			return c.Projects.Create(ctx, types.CreateProjectParams{Name: "x"}).Err
		}, "POST", "/v1/projects", ""},
		{"projects delete", func(c *Client) *types.ErrorInfo { return c.Projects.Delete(ctx, "p1").Err }, "DELETE", "/v1/projects/p1", ""},
		{"datasources list", func(c *Client) *types.ErrorInfo { return c.Datasources.List(ctx, "p1").Err }, "GET", "/v1/datasources", "project_id=p1"},
		{"datasource test", func(c *Client) *types.ErrorInfo { return c.Datasources.TestConnection(ctx, "d1").Err }, "POST", "/v1/datasources/d1/test-connection", ""},
		{"dataline schema", func(c *Client) *types.ErrorInfo {
			return c.Datalines.UpdateSchema(ctx, "dl1", json.RawMessage(`{}`)).Err
		}, "PATCH", "/v1/datalines/dl1/schema", ""},
		{"ontologies get", func(c *Client) *types.ErrorInfo { return c.Ontologies.Get(ctx, "o1").Err }, "GET", "/v1/ontologies/o1", ""},
		{"program execute", func(c *Client) *types.ErrorInfo {
			return c.QueryPrograms.Execute(ctx, "q1", types.ExecuteParams{}).Err
		}, "POST", "/v1/queryprograms/q1/execute", ""},
		{"program publish", func(c *Client) *types.ErrorInfo { return c.QueryPrograms.Publish(ctx, "q1").Err }, "POST", "/v1/queryprograms/q1/publish", ""},
		{"program unpublish", func(c *Client) *types.ErrorInfo { return c.QueryPrograms.Unpublish(ctx, "q1").Err }, "POST", "/v1/queryprograms/q1/unpublish", ""},
		{"conversations list", func(c *Client) *types.ErrorInfo { return c.Chat.ListConversations(ctx, "p1").Err }, "GET", "/v1/chat/conversations", "project_id=p1"},
		{"messages", func(c *Client) *types.ErrorInfo { return c.Chat.Messages(ctx, "c1").Err }, "GET", "/v1/chat/conversations/c1/messages", ""},
		{"jobs cancel", func(c *Client) *types.ErrorInfo { return c.Jobs.Cancel(ctx, "j1").Err }, "POST", "/v1/jobs/j1/cancel", ""},
		{"jobs list", func(c *Client) *types.ErrorInfo { return c.Jobs.List(ctx, "p1").Err }, "GET", "/v1/jobs", "project_id=p1"},
		{"subscription", func(c *Client) *types.ErrorInfo { return c.Subscriptions.Get(ctx, "org1").Err }, "GET", "/v1/orgs/org1/subscription", ""},
		{"usage", func(c *Client) *types.ErrorInfo { return c.Subscriptions.Usage(ctx, "org1").Err }, "GET", "/v1/orgs/org1/usage", ""},
		{"plans", func(c *Client) *types.ErrorInfo { return c.Subscriptions.Plans(ctx).Err }, "GET", "/v1/plans", ""},
		{"credentials list", func(c *Client) *types.ErrorInfo { return c.Credentials.List(ctx, "org1").Err }, "GET", "/v1/credentials", "organization_id=org1"},
		{"escaped id", func(c *Client) *types.ErrorInfo { return c.Projects.Get(ctx, "a/b").Err }, "GET", "/v1/projects/a/b", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestClient(t, jsonHandler(`{}`))
			if errInfo := tt.call(c); errInfo != nil {
				// list endpoints cannot decode {} into a slice
				require.Equal(t, types.ErrCodeDecode, errInfo.Code, "%v", errInfo)
			}
			got := rec.last(t)
			assert.Equal(t, tt.method, got.Method)
			assert.Equal(t, tt.path, got.Path)
			assert.Equal(t, tt.query, got.Query)
			assert.Equal(t, "Bearer nf-test", got.Auth)
			assert.NotEmpty(t, got.Header.Get("X-Request-ID"))
		})
	}
}

func TestMissingIDSkipsRequest(t *testing.T) {
	ctx := context.Background()
	c, rec := newTestClient(t, jsonHandler(`{}`))

	errs := []*types.ErrorInfo{
		c.Projects.Get(ctx, "").Err,
		c.Projects.Delete(ctx, "").Err,
		c.Datasources.List(ctx, "").Err,
		c.Datasources.Upload(ctx, "", "a.csv", strings.NewReader("x")).Err,
		c.QueryPrograms.ExecuteStream(ctx, "", types.ExecuteParams{}).Err,
		c.QueryPrograms.Generate(ctx, types.GenerateParams{}).Err,
		c.Chat.SendMessage(ctx, "", types.SendMessageParams{Content: "hi"}).Err,
		c.Jobs.Events(ctx, "").Err,
		c.Credentials.List(ctx, "").Err,
	}
	for i, e := range errs {
		require.NotNil(t, e, "call %d", i)
		assert.ErrorIs(t, e, types.ErrMissingID, "call %d", i)
		assert.Equal(t, types.ErrCodeInvalidRequest, e.Code)
	}
	assert.Zero(t, rec.count())
}

func TestJSONResponses(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes data", func(t *testing.T) {
		c, rec := newTestClient(t, jsonHandler(`{"id":"p1","name":"Sales"}`))
		res := c.Projects.Create(ctx, types.CreateProjectParams{Name: "Sales", TeamID: "t1"})
		require.False(t, res.IsError(), "%v", res.Err)
		assert.Equal(t, "p1", res.Data.ID)
		assert.Equal(t, "Sales", res.Data.Name)

		body := rec.last(t).Body
		assert.JSONEq(t, `{"name":"Sales","team_id":"t1"}`, body)
	})

	t.Run("delete with empty body", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		res := c.Credentials.Delete(ctx, "cred1")
		require.False(t, res.IsError(), "%v", res.Err)
		assert.Equal(t, Deleted{ID: "cred1", Deleted: true}, res.Data)
	})

	t.Run("api error", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"project not found"}`)
		})
		res := c.Projects.Get(ctx, "missing")
		require.True(t, res.IsError())
		assert.Equal(t, types.ErrCodeNotFound, res.Err.Code)
		assert.Equal(t, http.StatusNotFound, res.Err.Status)

		var apiErr *types.APIError
		require.ErrorAs(t, res.Err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})

	t.Run("stream answer to json endpoint", func(t *testing.T) {
		c, _ := newTestClient(t, sseHandler(
			frame("text", `{"content":"working"}`),
			frame("messages", `{"id":"p9","name":"Folded"}`),
		))
		res := c.Projects.Get(ctx, "p9")
		require.False(t, res.IsError(), "%v", res.Err)
		assert.False(t, res.IsStream())
		assert.Equal(t, "Folded", res.Data.Name)
	})

	t.Run("stream without status message", func(t *testing.T) {
		c, _ := newTestClient(t, sseHandler(delta("only text")))
		res := c.Projects.Get(ctx, "p9")
		require.True(t, res.IsError())
		assert.Contains(t, res.Err.Message, "without a status message")
	})
}

func TestFoldStatus(t *testing.T) {
	job, err := FoldStatus[types.Job](stream.Result{Status: json.RawMessage(`{"id":"j1","status":"running"}`), EventCount: 2})
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusRunning, job.Status)

	_, err = FoldStatus[types.Job](stream.Result{Status: json.RawMessage(`not json`)})
	assert.Error(t, err)

	_, err = FoldStatus[types.Job](stream.Result{EventCount: 3})
	assert.ErrorContains(t, err, "after 3 events")
}

func TestEndpoint(t *testing.T) {
	p, err := endpoint("/v1/projects/%s/things/%s", "p 1", "x?y")
	require.NoError(t, err)
	assert.Equal(t, "/v1/projects/p%201/things/x%3Fy", p)

	_, err = endpoint("/v1/projects/%s/things/%s", "p1", "")
	assert.True(t, errors.Is(err, types.ErrMissingID))
}
