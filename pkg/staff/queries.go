package staff

import (
	"context"

	"github.com/illmade-knight/go-booking/pkg/mutation"
	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/rs/zerolog"
)

// ListKey is the cache key of the staff list.
var ListKey = query.Key{"admin-staff", "list"}

// ListQuery reads the staff list.
func ListQuery(api *API) query.Query[ListResponse] {
	return query.Query[ListResponse]{
		Key:     ListKey,
		Fetch:   api.List,
		Options: query.DefaultOptions(),
	}
}

// UpdateInput carries one staff edit.
type UpdateInput struct {
	StaffID string
	Body    UpsertRequest
}

type (
	CreateMutation  = mutation.Mutation[UpsertRequest, IDResponse]
	UpdateMutation  = mutation.Mutation[UpdateInput, IDResponse]
	ArchiveMutation = mutation.Mutation[string, struct{}]
)

// NewCreateMutation adds a member and refreshes the list.
func NewCreateMutation(c *query.Client, api *API, logger zerolog.Logger) *CreateMutation {
	return mutation.New("admin.create_staff", api.Create, logger,
		mutation.InvalidateKeys[UpsertRequest, IDResponse](c, ListKey))
}

// NewUpdateMutation edits a member and refreshes the list.
func NewUpdateMutation(c *query.Client, api *API, logger zerolog.Logger) *UpdateMutation {
	return mutation.New("admin.update_staff",
		func(ctx context.Context, in UpdateInput) (IDResponse, error) {
			return api.Update(ctx, in.StaffID, in.Body)
		},
		logger,
		mutation.InvalidateKeys[UpdateInput, IDResponse](c, ListKey))
}

// NewArchiveMutation archives a member by id and refreshes the list.
func NewArchiveMutation(c *query.Client, api *API, logger zerolog.Logger) *ArchiveMutation {
	return mutation.New("admin.archive_staff",
		func(ctx context.Context, id string) (struct{}, error) {
			return struct{}{}, api.Archive(ctx, id)
		},
		logger,
		mutation.InvalidateKeys[string, struct{}](c, ListKey))
}
