package catalog

import (
	"context"

	"github.com/illmade-knight/go-booking/pkg/mutation"
	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/rs/zerolog"
)

// ListKey is the cache key of the admin catalog.
var ListKey = query.Key{"admin-services", "list"}

// ListQuery reads the admin catalog.
func ListQuery(api *API) query.Query[ServicesResponse] {
	return query.Query[ServicesResponse]{
		Key:     ListKey,
		Fetch:   api.List,
		Options: query.DefaultOptions(),
	}
}

// UpdateInput carries one service edit.
type UpdateInput struct {
	ServiceID string
	Body      UpsertServiceRequest
}

type (
	CreateMutation  = mutation.Mutation[UpsertServiceRequest, ServiceIDResponse]
	UpdateMutation  = mutation.Mutation[UpdateInput, ServiceIDResponse]
	ArchiveMutation = mutation.Mutation[string, struct{}]
)

// NewCreateMutation adds a service and refreshes the catalog.
func NewCreateMutation(c *query.Client, api *API, logger zerolog.Logger) *CreateMutation {
	return mutation.New("admin.create_service", api.Create, logger,
		mutation.InvalidateKeys[UpsertServiceRequest, ServiceIDResponse](c, ListKey))
}

// NewUpdateMutation edits a service and refreshes the catalog.
func NewUpdateMutation(c *query.Client, api *API, logger zerolog.Logger) *UpdateMutation {
	return mutation.New("admin.update_service",
		func(ctx context.Context, in UpdateInput) (ServiceIDResponse, error) {
			return api.Update(ctx, in.ServiceID, in.Body)
		},
		logger,
		mutation.InvalidateKeys[UpdateInput, ServiceIDResponse](c, ListKey))
}

// NewArchiveMutation archives a service by id and refreshes the catalog.
func NewArchiveMutation(c *query.Client, api *API, logger zerolog.Logger) *ArchiveMutation {
	return mutation.New("admin.archive_service",
		func(ctx context.Context, id string) (struct{}, error) {
			return struct{}{}, api.Archive(ctx, id)
		},
		logger,
		mutation.InvalidateKeys[string, struct{}](c, ListKey))
}
