package planning

import (
	"context"

	"github.com/illmade-knight/go-booking/pkg/booking"
	"github.com/illmade-knight/go-booking/pkg/mutation"
	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/rs/zerolog"
)

// CreateAppointmentInput carries one manual booking. Date, TenantSlug and
// StaffID identify the caches to refresh.
type CreateAppointmentInput struct {
	Date           string
	TenantSlug     string
	IdempotencyKey string
	Body           booking.CreateAppointmentRequest
}

// UpdateStatusInput carries one status change.
type UpdateStatusInput struct {
	Date          string
	AppointmentID string
	Status        UpdatableStatus
}

// UpdateAppointmentInput carries one reschedule.
type UpdateAppointmentInput struct {
	Date          string
	TenantSlug    string
	AppointmentID string
	Body          UpdateAppointmentRequest
}

type (
	CreateAppointmentMutation = mutation.Mutation[CreateAppointmentInput, booking.CreateAppointmentResponse]
	UpdateStatusMutation      = mutation.Mutation[UpdateStatusInput, UpdateStatusResponse]
	UpdateAppointmentMutation = mutation.Mutation[UpdateAppointmentInput, UpdateAppointmentResponse]
)

// NewCreateAppointmentMutation books an appointment, then refreshes the day and
// the exact slots listing it was picked from.
func NewCreateAppointmentMutation(c *query.Client, api *API, logger zerolog.Logger) *CreateAppointmentMutation {
	return mutation.New("admin.create_appointment",
		func(ctx context.Context, in CreateAppointmentInput) (booking.CreateAppointmentResponse, error) {
			return api.CreateAppointment(ctx, in.IdempotencyKey, in.Body)
		},
		logger,
		mutation.Invalidate(c, func(_ booking.CreateAppointmentResponse, in CreateAppointmentInput) []query.Key {
			return []query.Key{
				DayKey(in.Date),
				SlotsKey(booking.SlotsRequest{
					Slug:      in.TenantSlug,
					ServiceID: in.Body.ServiceID,
					Date:      in.Date,
					StaffID:   in.Body.StaffID,
				}),
			}
		}),
	)
}

// NewUpdateStatusMutation changes a status, then refreshes the day only.
func NewUpdateStatusMutation(c *query.Client, api *API, logger zerolog.Logger) *UpdateStatusMutation {
	return mutation.New("admin.update_status",
		func(ctx context.Context, in UpdateStatusInput) (UpdateStatusResponse, error) {
			return api.UpdateStatus(ctx, in.AppointmentID, in.Status)
		},
		logger,
		mutation.Invalidate(c, func(_ UpdateStatusResponse, in UpdateStatusInput) []query.Key {
			return []query.Key{DayKey(in.Date)}
		}),
	)
}

// NewUpdateAppointmentMutation reschedules, then refreshes the day and every
// planning slots listing of the tenant.
func NewUpdateAppointmentMutation(c *query.Client, api *API, logger zerolog.Logger) *UpdateAppointmentMutation {
	return mutation.New("admin.update_appointment",
		func(ctx context.Context, in UpdateAppointmentInput) (UpdateAppointmentResponse, error) {
			return api.UpdateAppointment(ctx, in.AppointmentID, in.Body)
		},
		logger,
		mutation.Invalidate(c, func(_ UpdateAppointmentResponse, in UpdateAppointmentInput) []query.Key {
			return []query.Key{DayKey(in.Date), SlotsPrefix(in.TenantSlug)}
		}),
	)
}
