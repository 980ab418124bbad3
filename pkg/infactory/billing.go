package infactory

import (
	"context"

	"github.com/infactory-io/infactory-go/pkg/stream"
	"github.com/infactory-io/infactory-go/pkg/types"
)

// SubscriptionsService reads billing state. It never changes a plan.
type SubscriptionsService service

// Get returns the subscription of an organization
func (s *SubscriptionsService) Get(ctx context.Context, orgID string) stream.Response[types.Subscription] {
	return get[types.Subscription](ctx, s.client, "/v1/orgs/%s/subscription", orgID)
}

// Usage returns metered usage for the current period
func (s *SubscriptionsService) Usage(ctx context.Context, orgID string) stream.Response[types.Usage] {
	return get[types.Usage](ctx, s.client, "/v1/orgs/%s/usage", orgID)
}

// Plans lists the available plans
func (s *SubscriptionsService) Plans(ctx context.Context) stream.Response[[]types.Plan] {
	return list[types.Plan](ctx, s.client, "/v1/plans", nil)
}

// PlatformsService lists integration platforms
type PlatformsService service

// List returns every platform
func (s *PlatformsService) List(ctx context.Context) stream.Response[[]types.Platform] {
	return list[types.Platform](ctx, s.client, "/v1/platforms", nil)
}

// CredentialsService manages stored connection credentials
type CredentialsService service

// List returns the credentials of an organization
func (s *CredentialsService) List(ctx context.Context, orgID string) stream.Response[[]types.Credential] {
	if orgID == "" {
		return stream.Failure[[]types.Credential](types.ErrMissingID)
	}
	return list[types.Credential](ctx, s.client, "/v1/credentials", map[string]string{"organization_id": orgID})
}

// Get fetches one credential
func (s *CredentialsService) Get(ctx context.Context, id string) stream.Response[types.Credential] {
	return get[types.Credential](ctx, s.client, "/v1/credentials/%s", id)
}

// Delete removes a credential
func (s *CredentialsService) Delete(ctx context.Context, id string) stream.Response[Deleted] {
	return remove(ctx, s.client, "/v1/credentials/%s", id)
}
