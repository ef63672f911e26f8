package booking

import (
	"context"

	"github.com/illmade-knight/go-booking/pkg/mutation"
	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/rs/zerolog"
)

// CreateAppointmentInput carries one public booking submit.
type CreateAppointmentInput struct {
	Slug           string
	IdempotencyKey string
	Body           CreateAppointmentRequest
}

// CreateAppointmentMutation is the public booking write.
type CreateAppointmentMutation = mutation.Mutation[CreateAppointmentInput, CreateAppointmentResponse]

// NewCreateAppointmentMutation books an appointment and then invalidates every
// slots listing of the tenant.
func NewCreateAppointmentMutation(c *query.Client, api *API, logger zerolog.Logger) *CreateAppointmentMutation {
	return mutation.New("public.create_appointment",
		func(ctx context.Context, in CreateAppointmentInput) (CreateAppointmentResponse, error) {
			return api.CreateAppointment(ctx, in.Slug, in.IdempotencyKey, in.Body)
		},
		logger,
		mutation.Invalidate(c, func(_ CreateAppointmentResponse, in CreateAppointmentInput) []query.Key {
			return []query.Key{SlotsPrefix(in.Slug)}
		}),
	)
}
