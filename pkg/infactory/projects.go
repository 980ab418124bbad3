package infactory

import (
	"context"
	"net/http"

	"github.com/infactory-io/infactory-go/pkg/stream"
	"github.com/infactory-io/infactory-go/pkg/types"
)

// ProjectsService manages projects
type ProjectsService service

// List returns the projects of a team. An empty teamID lists every project
// visible to the API key.
func (s *ProjectsService) List(ctx context.Context, teamID string) stream.Response[[]types.Project] {
	return list[types.Project](ctx, s.client, "/v1/projects", map[string]string{"team_id": teamID})
}

// Get fetches one project
func (s *ProjectsService) Get(ctx context.Context, id string) stream.Response[types.Project] {
	return get[types.Project](ctx, s.client, "/v1/projects/%s", id)
}

// Create makes a new project
func (s *ProjectsService) Create(ctx context.Context, params types.CreateProjectParams) stream.Response[types.Project] {
	return send[types.Project](ctx, s.client, http.MethodPost, params, "/v1/projects")
}

// Update changes the non-nil fields of params
func (s *ProjectsService) Update(ctx context.Context, id string, params types.UpdateProjectParams) stream.Response[types.Project] {
	return send[types.Project](ctx, s.client, http.MethodPatch, params, "/v1/projects/%s", id)
}

// Delete removes a project
func (s *ProjectsService) Delete(ctx context.Context, id string) stream.Response[Deleted] {
	return remove(ctx, s.client, "/v1/projects/%s", id)
}
