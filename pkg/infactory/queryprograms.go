package infactory

import (
	"context"
	"net/http"

	"github.com/infactory-io/infactory-go/pkg/stream"
	"github.com/infactory-io/infactory-go/pkg/types"
)

// QueryProgramsService manages and runs query programs
type QueryProgramsService service

// List returns the query programs of a project
func (s *QueryProgramsService) List(ctx context.Context, projectID string) stream.Response[[]types.QueryProgram] {
	if projectID == "" {
		return stream.Failure[[]types.QueryProgram](types.ErrMissingID)
	}
	return list[types.QueryProgram](ctx, s.client, "/v1/queryprograms", map[string]string{"project_id": projectID})
}

// Get fetches one query program
func (s *QueryProgramsService) Get(ctx context.Context, id string) stream.Response[types.QueryProgram] {
	return get[types.QueryProgram](ctx, s.client, "/v1/queryprograms/%s", id)
}

// Create saves a query program
func (s *QueryProgramsService) Create(ctx context.Context, params types.CreateQueryProgramParams) stream.Response[types.QueryProgram] {
	return send[types.QueryProgram](ctx, s.client, http.MethodPost, params, "/v1/queryprograms")
}

// Update changes the non-nil fields of params
func (s *QueryProgramsService) Update(ctx context.Context, id string, params types.UpdateQueryProgramParams) stream.Response[types.QueryProgram] {
	return send[types.QueryProgram](ctx, s.client, http.MethodPatch, params, "/v1/queryprograms/%s", id)
}

// Delete removes a query program
func (s *QueryProgramsService) Delete(ctx context.Context, id string) stream.Response[Deleted] {
	return remove(ctx, s.client, "/v1/queryprograms/%s", id)
}

// Execute runs a query program and returns its JSON result
func (s *QueryProgramsService) Execute(ctx context.Context, id string, params types.ExecuteParams) stream.Response[types.QueryResult] {
	return send[types.QueryResult](ctx, s.client, http.MethodPost, params, "/v1/queryprograms/%s/execute", id)
}

// ExecuteStream runs a query program with streamed output. The response
// holds the live stream; normalize it or consume it event by event.
func (s *QueryProgramsService) ExecuteStream(ctx context.Context, id string, params types.ExecuteParams) stream.Response[stream.Result] {
	p, err := endpoint("/v1/queryprograms/%s/execute", id)
	if err != nil {
		return stream.Failure[stream.Result](err)
	}
	return open[stream.Result](ctx, s.client, request{
		method: http.MethodPost,
		path:   p,
		query:  map[string]string{"stream": "true"},
		body:   params,
	})
}

// Publish exposes a query program as an API endpoint
func (s *QueryProgramsService) Publish(ctx context.Context, id string) stream.Response[types.QueryProgram] {
	return send[types.QueryProgram](ctx, s.client, http.MethodPost, nil, "/v1/queryprograms/%s/publish", id)
}

// Unpublish withdraws a published query program
func (s *QueryProgramsService) Unpublish(ctx context.Context, id string) stream.Response[types.QueryProgram] {
	return send[types.QueryProgram](ctx, s.client, http.MethodPost, nil, "/v1/queryprograms/%s/unpublish", id)
}

// Generate asks the API to draft query programs for a project. Progress and
// drafts arrive as an event stream.
func (s *QueryProgramsService) Generate(ctx context.Context, params types.GenerateParams) stream.Response[stream.Result] {
	if params.ProjectID == "" {
		return stream.Failure[stream.Result](types.ErrMissingID)
	}
	return open[stream.Result](ctx, s.client, request{
		method: http.MethodPost,
		path:   "/v1/actions/generate/queryprograms",
		body:   params,
	})
}
