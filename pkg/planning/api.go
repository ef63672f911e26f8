package planning

import (
	"context"
	"fmt"
	"net/url"

	"github.com/illmade-knight/go-booking/pkg/booking"
	"github.com/illmade-knight/go-booking/pkg/idempotency"
	"github.com/illmade-knight/go-booking/pkg/transport"
)

const (
	dayPath          = "/api/v1/admin/planning/day"
	appointmentsPath = "/api/v1/admin/appointments"
)

// API wraps the admin planning endpoints. Services and slots come from the
// public endpoints of the signed-in tenant.
type API struct {
	r      transport.Requester
	public *booking.API
}

// NewAPI creates the planning API on top of r.
func NewAPI(r transport.Requester) *API {
	return &API{r: r, public: booking.NewAPI(r)}
}

// GetDay reads the planning board of date (YYYY-MM-DD).
func (a *API) GetDay(ctx context.Context, date string) (DayResponse, error) {
	return transport.Get[DayResponse](ctx, a.r, dayPath, transport.Param("date", date))
}

// ListServices lists the bookable services of the tenant.
func (a *API) ListServices(ctx context.Context, tenantSlug string) (booking.ServicesResponse, error) {
	return a.public.ListServices(ctx, tenantSlug)
}

// GetSlots lists the slots available to a manual booking or a reschedule.
func (a *API) GetSlots(ctx context.Context, req booking.SlotsRequest) (booking.SlotsResponse, error) {
	return a.public.GetSlots(ctx, req)
}

// CreateAppointment books an appointment on behalf of a customer.
func (a *API) CreateAppointment(ctx context.Context, idempotencyKey string, body booking.CreateAppointmentRequest) (booking.CreateAppointmentResponse, error) {
	if idempotencyKey == "" {
		return booking.CreateAppointmentResponse{}, fmt.Errorf("create admin appointment: missing idempotency key")
	}
	return transport.Post[booking.CreateAppointmentResponse](ctx, a.r, appointmentsPath, body,
		map[string]string{idempotency.Header: idempotencyKey})
}

// UpdateStatus changes the status of an appointment.
func (a *API) UpdateStatus(ctx context.Context, appointmentID string, status UpdatableStatus) (UpdateStatusResponse, error) {
	if !status.Valid() {
		return UpdateStatusResponse{}, fmt.Errorf("update appointment %s: status %q cannot be set", appointmentID, status)
	}
	path := appointmentsPath + "/" + url.PathEscape(appointmentID) + "/status"
	return transport.Patch[UpdateStatusResponse](ctx, a.r, path, UpdateStatusRequest{Status: status})
}

// UpdateAppointment reschedules or reassigns an appointment.
func (a *API) UpdateAppointment(ctx context.Context, appointmentID string, body UpdateAppointmentRequest) (UpdateAppointmentResponse, error) {
	path := appointmentsPath + "/" + url.PathEscape(appointmentID)
	return transport.Patch[UpdateAppointmentResponse](ctx, a.r, path, body)
}
