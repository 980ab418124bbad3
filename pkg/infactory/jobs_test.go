package infactory

import (
	"context"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infactory-io/infactory-go/pkg/stream"
	"github.com/infactory-io/infactory-go/pkg/types"
)

func TestJobs_Subscribe(t *testing.T) {
	c, rec := newTestClient(t, sseHandler(
		frame("messages", `{"id":"j1","status":"running"}`),
		frame("text", `{"content":"rows 1-500"}`),
		frame("messages", `{"id":"j1","status":"completed"}`),
	))

	var mu sync.Mutex
	var statuses []types.JobStatus
	sub, err := c.Jobs.Subscribe(context.Background(), "j1", stream.SinkFunc(func(ev stream.Event) error {
		if job, ok := JobFromEvent(ev); ok {
			mu.Lock()
			statuses = append(statuses, job.Status)
			mu.Unlock()
		}
		return nil
	}))
	require.NoError(t, err)
	require.NotEmpty(t, sub.ID())
	require.NoError(t, sub.Wait())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []types.JobStatus{types.JobStatusRunning, types.JobStatusCompleted}, statuses)
	assert.Equal(t, "/v1/jobs/j1/events", rec.last(t).Path)
	assert.Equal(t, http.MethodGet, rec.last(t).Method)
}

func TestJobs_SubscribeNotStreaming(t *testing.T) {
	c, _ := newTestClient(t, jsonHandler(`{"id":"j1","status":"completed"}`))

	sub, err := c.Jobs.Subscribe(context.Background(), "j1", stream.SinkFunc(func(stream.Event) error { return nil }))
	assert.Nil(t, sub)
	assert.ErrorIs(t, err, ErrNotStreaming)
}

func TestJobs_SubscribeError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Jobs.Subscribe(context.Background(), "j1", stream.SinkFunc(func(stream.Event) error { return nil }))
	var info *types.ErrorInfo
	require.ErrorAs(t, err, &info)
	assert.Equal(t, types.ErrCodeAuthentication, info.Code)
}

func TestJobFromEvent(t *testing.T) {
	job, ok := JobFromEvent(stream.Event{Kind: stream.EventStatusMessage, Data: json.RawMessage(`{"id":"j2","status":"failed","error":"bad csv"}`)})
	require.True(t, ok)
	assert.True(t, job.Status.IsTerminal())
	assert.Equal(t, "bad csv", job.Error)

	_, ok = JobFromEvent(stream.Event{Kind: stream.EventStatusMessage, Data: json.RawMessage(`{"status":"running"}`)})
	assert.False(t, ok)

	_, ok = JobFromEvent(stream.Event{Kind: stream.EventContentDelta, Text: "x"})
	assert.False(t, ok)
}

func TestJobs_Submit(t *testing.T) {
	c, rec := newTestClient(t, jsonHandler(`{"id":"j3","status":"pending","job_type":"ingest"}`))

	res := c.Jobs.Submit(context.Background(), types.SubmitJobParams{ProjectID: "p1", Type: "ingest"})
	require.False(t, res.IsError(), "%v", res.Err)
	assert.Equal(t, types.JobStatusPending, res.Data.Status)
	assert.JSONEq(t, `{"project_id":"p1","job_type":"ingest"}`, rec.last(t).Body)

	res = c.Jobs.Submit(context.Background(), types.SubmitJobParams{Type: "ingest"})
	assert.ErrorIs(t, res.Err, types.ErrMissingID)
}

func TestDatasources_Upload(t *testing.T) {
	var form *multipart.Form
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
			return
		}
		form, err = multipart.NewReader(r.Body, params["boundary"]).ReadForm(1 << 20)
		if err != nil {
			t.Error(err)
			return
		}
		sseHandler(
			frame("messages", `{"id":"j9","status":"running"}`),
			frame("messages", `{"id":"j9","status":"completed"}`),
		)(w, r)
	})

	res := c.Datasources.Upload(context.Background(), "d1", "sales.csv", strings.NewReader("region,total\neu,4\n"))
	require.False(t, res.IsError(), "%v", res.Err)
	require.True(t, res.IsStream())

	final := stream.NormalizeResult(context.Background(), res)
	require.False(t, final.IsError(), "%v", final.Err)
	job, err := FoldStatus[types.Job](final.Data)
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusCompleted, job.Status)

	require.NotNil(t, form)
	assert.Equal(t, []string{"d1"}, form.Value["datasource_id"])
	require.Len(t, form.File["file"], 1)
	assert.Equal(t, "sales.csv", form.File["file"][0].Filename)
}

func TestQueryPrograms_ExecuteStream(t *testing.T) {
	c, rec := newTestClient(t, sseHandler(delta("row 1\n"), delta("row 2\n")))

	res := stream.NormalizeResult(context.Background(),
		c.QueryPrograms.ExecuteStream(context.Background(), "q1", types.ExecuteParams{}))
	require.False(t, res.IsError(), "%v", res.Err)
	assert.Equal(t, "row 1\nrow 2\n", res.Data.Content)

	got := rec.last(t)
	assert.Equal(t, "/v1/queryprograms/q1/execute", got.Path)
	assert.Equal(t, "stream=true", got.Query)
}

func TestQueryPrograms_Generate(t *testing.T) {
	c, rec := newTestClient(t, sseHandler(
		frame("LLMToolCall", `{"name":"inspect_schema"}`),
		frame("messages", `[{"name":"top_regions"}]`),
	))

	res := stream.NormalizeResult(context.Background(),
		c.QueryPrograms.Generate(context.Background(), types.GenerateParams{ProjectID: "p1", Count: 2}))
	require.False(t, res.IsError(), "%v", res.Err)
	assert.Equal(t, []string{"/inspect_schema"}, res.Data.ToolCalls)

	programs, err := FoldStatus[[]types.QueryProgram](res.Data)
	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, "top_regions", programs[0].Name)
	assert.Equal(t, "/v1/actions/generate/queryprograms", rec.last(t).Path)
}
