package infactory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/infactory-io/infactory-go/pkg/stream"
	"github.com/infactory-io/infactory-go/pkg/types"
)

// ErrNotStreaming is returned when an event stream was required but the
// server answered with a plain JSON body.
var ErrNotStreaming = errors.New("infactory: server did not return an event stream")

// JobsService submits and tracks background jobs
type JobsService service

// Get fetches the current state of a job
func (s *JobsService) Get(ctx context.Context, id string) stream.Response[types.Job] {
	return get[types.Job](ctx, s.client, "/v1/jobs/%s", id)
}

// List returns the jobs of a project
func (s *JobsService) List(ctx context.Context, projectID string) stream.Response[[]types.Job] {
	if projectID == "" {
		return stream.Failure[[]types.Job](types.ErrMissingID)
	}
	return list[types.Job](ctx, s.client, "/v1/jobs", map[string]string{"project_id": projectID})
}

// Submit queues a job
func (s *JobsService) Submit(ctx context.Context, params types.SubmitJobParams) stream.Response[types.Job] {
	if params.ProjectID == "" {
		return stream.Failure[types.Job](types.ErrMissingID)
	}
	return send[types.Job](ctx, s.client, http.MethodPost, params, "/v1/jobs")
}

// Cancel asks the server to stop a job
func (s *JobsService) Cancel(ctx context.Context, id string) stream.Response[types.Job] {
	return send[types.Job](ctx, s.client, http.MethodPost, nil, "/v1/jobs/%s/cancel", id)
}

// Events opens the progress stream of a job
func (s *JobsService) Events(ctx context.Context, id string) stream.Response[json.RawMessage] {
	p, err := endpoint("/v1/jobs/%s/events", id)
	if err != nil {
		return stream.Failure[json.RawMessage](err)
	}
	return open[json.RawMessage](ctx, s.client, request{method: http.MethodGet, path: p})
}

// Subscribe delivers the progress events of a job to sink on a background
// goroutine. Use JobFromEvent to read job snapshots out of status events.
func (s *JobsService) Subscribe(ctx context.Context, id string, sink stream.Sink) (*stream.Subscription, error) {
	res := s.Events(ctx, id)
	if res.IsError() {
		return nil, res.Err
	}
	if !res.IsStream() {
		return nil, ErrNotStreaming
	}
	return stream.Subscribe(ctx, res.Stream, sink), nil
}

// JobFromEvent decodes a job snapshot from a status event.
func JobFromEvent(ev stream.Event) (types.Job, bool) {
	var job types.Job
	if ev.Kind != stream.EventStatusMessage || len(ev.Data) == 0 {
		return job, false
	}
	if err := json.Unmarshal(ev.Data, &job); err != nil || job.ID == "" {
		return types.Job{}, false
	}
	return job, true
}
