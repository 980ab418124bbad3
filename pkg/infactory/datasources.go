package infactory

import (
	"context"
	"io"
	"net/http"

	"github.com/infactory-io/infactory-go/pkg/stream"
	"github.com/infactory-io/infactory-go/pkg/types"
)

// DatasourcesService manages datasources
type DatasourcesService service

// List returns the datasources of a project
func (s *DatasourcesService) List(ctx context.Context, projectID string) stream.Response[[]types.Datasource] {
	if projectID == "" {
		return stream.Failure[[]types.Datasource](types.ErrMissingID)
	}
	return list[types.Datasource](ctx, s.client, "/v1/datasources", map[string]string{"project_id": projectID})
}

// Get fetches one datasource
func (s *DatasourcesService) Get(ctx context.Context, id string) stream.Response[types.Datasource] {
	return get[types.Datasource](ctx, s.client, "/v1/datasources/%s", id)
}

// Create registers a datasource
func (s *DatasourcesService) Create(ctx context.Context, params types.CreateDatasourceParams) stream.Response[types.Datasource] {
	return send[types.Datasource](ctx, s.client, http.MethodPost, params, "/v1/datasources")
}

// Update changes the non-nil fields of params
func (s *DatasourcesService) Update(ctx context.Context, id string, params types.UpdateDatasourceParams) stream.Response[types.Datasource] {
	return send[types.Datasource](ctx, s.client, http.MethodPatch, params, "/v1/datasources/%s", id)
}

// Delete removes a datasource
func (s *DatasourcesService) Delete(ctx context.Context, id string) stream.Response[Deleted] {
	return remove(ctx, s.client, "/v1/datasources/%s", id)
}

// TestConnection asks the API to reach the datasource
func (s *DatasourcesService) TestConnection(ctx context.Context, id string) stream.Response[types.ConnectionTestResult] {
	return send[types.ConnectionTestResult](ctx, s.client, http.MethodPost, nil, "/v1/datasources/%s/test-connection", id)
}

// Upload sends a file into a datasource. The server reports ingestion
// progress as an event stream; the returned response holds it unread.
func (s *DatasourcesService) Upload(ctx context.Context, id, filename string, file io.Reader) stream.Response[stream.Result] {
	p, err := endpoint("/v1/datasources/%s/upload", id)
	if err != nil {
		return stream.Failure[stream.Result](err)
	}
	return open[stream.Result](ctx, s.client, request{
		method: http.MethodPost,
		path:   p,
		upload: &upload{
			field:    "file",
			filename: filename,
			file:     file,
			fields:   map[string]string{"datasource_id": id},
		},
	})
}
