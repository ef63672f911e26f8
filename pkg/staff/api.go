package staff

import (
	"context"
	"net/url"

	"github.com/illmade-knight/go-booking/pkg/transport"
)

const staffPath = "/api/v1/admin/staff"

// API wraps the admin staff endpoints.
type API struct {
	r transport.Requester
}

// NewAPI creates the staff API on top of r.
func NewAPI(r transport.Requester) *API {
	return &API{r: r}
}

func memberPath(id string) string {
	return staffPath + "/" + url.PathEscape(id)
}

// List returns every staff member.
func (a *API) List(ctx context.Context) (ListResponse, error) {
	return transport.Get[ListResponse](ctx, a.r, staffPath)
}

// Create adds a staff member.
func (a *API) Create(ctx context.Context, body UpsertRequest) (IDResponse, error) {
	return transport.Post[IDResponse](ctx, a.r, staffPath, body, nil)
}

// Update replaces a staff member.
func (a *API) Update(ctx context.Context, id string, body UpsertRequest) (IDResponse, error) {
	return transport.Patch[IDResponse](ctx, a.r, memberPath(id), body)
}

// Archive removes a staff member from the planning board.
func (a *API) Archive(ctx context.Context, id string) error {
	return transport.Delete(ctx, a.r, memberPath(id))
}
