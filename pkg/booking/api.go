package booking

import (
	"context"
	"fmt"
	"net/url"

	"github.com/illmade-knight/go-booking/pkg/idempotency"
	"github.com/illmade-knight/go-booking/pkg/transport"
)

// API wraps the public booking endpoints.
type API struct {
	r transport.Requester
}

// NewAPI creates the public booking API on top of r.
func NewAPI(r transport.Requester) *API {
	return &API{r: r}
}

func publicPath(slug, suffix string) string {
	return fmt.Sprintf("/api/v1/public/%s%s", url.PathEscape(slug), suffix)
}

// GetTenant looks up a tenant by slug. An unknown slug fails with a 404 ApiError.
func (a *API) GetTenant(ctx context.Context, slug string) (TenantResponse, error) {
	return transport.Get[TenantResponse](ctx, a.r, publicPath(slug, ""))
}

// ListServices lists the services bookable on the tenant.
func (a *API) ListServices(ctx context.Context, slug string) (ServicesResponse, error) {
	return transport.Get[ServicesResponse](ctx, a.r, publicPath(slug, "/services"))
}

// GetSlots lists available slots. An empty StaffID is left out of the URL.
func (a *API) GetSlots(ctx context.Context, req SlotsRequest) (SlotsResponse, error) {
	return transport.Get[SlotsResponse](ctx, a.r, publicPath(req.Slug, "/slots"),
		transport.Param("service_id", req.ServiceID),
		transport.Param("date", req.Date),
		transport.OptionalParam("staff_id", req.StaffID),
	)
}

// CreateAppointment books a slot. idempotencyKey is sent as the
// Idempotency-Key header and must be reused for retries of the same submit.
func (a *API) CreateAppointment(ctx context.Context, slug, idempotencyKey string, body CreateAppointmentRequest) (CreateAppointmentResponse, error) {
	if idempotencyKey == "" {
		return CreateAppointmentResponse{}, fmt.Errorf("create appointment for %s: missing idempotency key", slug)
	}
	return transport.Post[CreateAppointmentResponse](ctx, a.r, publicPath(slug, "/appointments"), body,
		map[string]string{idempotency.Header: idempotencyKey})
}
