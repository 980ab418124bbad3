package infactory

import (
	"context"
	"net/http"

	"github.com/infactory-io/infactory-go/pkg/stream"
	"github.com/infactory-io/infactory-go/pkg/types"
)

// OntologiesService manages ontologies
type OntologiesService service

// List returns the ontologies of a project
func (s *OntologiesService) List(ctx context.Context, projectID string) stream.Response[[]types.Ontology] {
	if projectID == "" {
		return stream.Failure[[]types.Ontology](types.ErrMissingID)
	}
	return list[types.Ontology](ctx, s.client, "/v1/ontologies", map[string]string{"project_id": projectID})
}

// Get fetches one ontology
func (s *OntologiesService) Get(ctx context.Context, id string) stream.Response[types.Ontology] {
	return get[types.Ontology](ctx, s.client, "/v1/ontologies/%s", id)
}

// Create makes an ontology
func (s *OntologiesService) Create(ctx context.Context, params types.CreateOntologyParams) stream.Response[types.Ontology] {
	return send[types.Ontology](ctx, s.client, http.MethodPost, params, "/v1/ontologies")
}

// Delete removes an ontology
func (s *OntologiesService) Delete(ctx context.Context, id string) stream.Response[Deleted] {
	return remove(ctx, s.client, "/v1/ontologies/%s", id)
}
