package catalog

import (
	"context"
	"net/url"

	"github.com/illmade-knight/go-booking/pkg/transport"
)

const servicesPath = "/api/v1/admin/services"

// API wraps the admin service endpoints.
type API struct {
	r transport.Requester
}

// NewAPI creates the catalog API on top of r.
func NewAPI(r transport.Requester) *API {
	return &API{r: r}
}

func servicePath(id string) string {
	return servicesPath + "/" + url.PathEscape(id)
}

// List returns the catalog.
func (a *API) List(ctx context.Context) (ServicesResponse, error) {
	return transport.Get[ServicesResponse](ctx, a.r, servicesPath)
}

// Create adds a service.
func (a *API) Create(ctx context.Context, body UpsertServiceRequest) (ServiceIDResponse, error) {
	return transport.Post[ServiceIDResponse](ctx, a.r, servicesPath, body, nil)
}

// Update replaces a service.
func (a *API) Update(ctx context.Context, id string, body UpsertServiceRequest) (ServiceIDResponse, error) {
	return transport.Patch[ServiceIDResponse](ctx, a.r, servicePath(id), body)
}

// Archive hides a service from booking. Existing appointments keep it.
func (a *API) Archive(ctx context.Context, id string) error {
	return transport.Delete(ctx, a.r, servicePath(id))
}
