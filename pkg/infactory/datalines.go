package infactory

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/infactory-io/infactory-go/pkg/stream"
	"github.com/infactory-io/infactory-go/pkg/types"
)

// DatalinesService manages datalines
type DatalinesService service

// List returns the datalines of a project
func (s *DatalinesService) List(ctx context.Context, projectID string) stream.Response[[]types.Dataline] {
	if projectID == "" {
		return stream.Failure[[]types.Dataline](types.ErrMissingID)
	}
	return list[types.Dataline](ctx, s.client, "/v1/datalines", map[string]string{"project_id": projectID})
}

// Get fetches one dataline
func (s *DatalinesService) Get(ctx context.Context, id string) stream.Response[types.Dataline] {
	return get[types.Dataline](ctx, s.client, "/v1/datalines/%s", id)
}

// Create makes a dataline
func (s *DatalinesService) Create(ctx context.Context, params types.CreateDatalineParams) stream.Response[types.Dataline] {
	return send[types.Dataline](ctx, s.client, http.MethodPost, params, "/v1/datalines")
}

// Update changes the non-nil fields of params
func (s *DatalinesService) Update(ctx context.Context, id string, params types.UpdateDatalineParams) stream.Response[types.Dataline] {
	return send[types.Dataline](ctx, s.client, http.MethodPatch, params, "/v1/datalines/%s", id)
}

// Delete removes a dataline
func (s *DatalinesService) Delete(ctx context.Context, id string) stream.Response[Deleted] {
	return remove(ctx, s.client, "/v1/datalines/%s", id)
}

// UpdateSchema replaces the schema of a dataline. The schema is passed through as is.
func (s *DatalinesService) UpdateSchema(ctx context.Context, id string, schema json.RawMessage) stream.Response[types.Dataline] {
	body := struct {
		Schema json.RawMessage `json:"schema_code"`
	}{schema}
	return send[types.Dataline](ctx, s.client, http.MethodPatch, body, "/v1/datalines/%s/schema", id)
}
