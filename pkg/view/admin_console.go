package view

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-booking/pkg/adminauth"
	"github.com/illmade-knight/go-booking/pkg/booking"
	"github.com/illmade-knight/go-booking/pkg/catalog"
	"github.com/illmade-knight/go-booking/pkg/idempotency"
	"github.com/illmade-knight/go-booking/pkg/planning"
	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/illmade-knight/go-booking/pkg/staff"
	"github.com/illmade-knight/go-booking/pkg/transport"
	"github.com/illmade-knight/go-booking/pkg/validation"
)

// ErrForbidden is returned when the signed-in role may not perform an action.
var ErrForbidden = errors.New("your role cannot perform this action")

// AppointmentForm is the raw planning form for a manual booking or a reschedule.
type AppointmentForm struct {
	Date      string
	ServiceID string
	StaffID   string
	StartAt   string
	Phone     string
	Name      string
	Note      string
}

// AdminConsole turns admin actions into checked domain writes for one
// signed-in identity. Every action refreshes the reads it affects.
type AdminConsole struct {
	client   *query.Client
	identity adminauth.Identity
	logger   zerolog.Logger

	services *catalog.API
	staff    *staff.API
	planning *planning.API

	createService  *catalog.CreateMutation
	updateService  *catalog.UpdateMutation
	archiveService *catalog.ArchiveMutation
	createStaff    *staff.CreateMutation
	updateStaff    *staff.UpdateMutation
	archiveStaff   *staff.ArchiveMutation
	createBooking  *planning.CreateAppointmentMutation
	reschedule     *planning.UpdateAppointmentMutation
	updateStatus   *planning.UpdateStatusMutation

	mu         sync.Mutex
	submission *idempotency.Submission
	lastForm   AppointmentForm
}

// NewAdminConsole builds the console for identity on top of r.
func NewAdminConsole(c *query.Client, r transport.Requester, identity adminauth.Identity, logger zerolog.Logger) *AdminConsole {
	services, members, board := catalog.NewAPI(r), staff.NewAPI(r), planning.NewAPI(r)
	return &AdminConsole{
		client:         c,
		identity:       identity,
		logger:         logger.With().Str("component", "AdminConsole").Str("role", string(identity.User.Role)).Logger(),
		services:       services,
		staff:          members,
		planning:       board,
		createService:  catalog.NewCreateMutation(c, services, logger),
		updateService:  catalog.NewUpdateMutation(c, services, logger),
		archiveService: catalog.NewArchiveMutation(c, services, logger),
		createStaff:    staff.NewCreateMutation(c, members, logger),
		updateStaff:    staff.NewUpdateMutation(c, members, logger),
		archiveStaff:   staff.NewArchiveMutation(c, members, logger),
		createBooking:  planning.NewCreateAppointmentMutation(c, board, logger),
		reschedule:     planning.NewUpdateAppointmentMutation(c, board, logger),
		updateStatus:   planning.NewUpdateStatusMutation(c, board, logger),
		submission:     idempotency.NewSubmission(),
	}
}

func (a *AdminConsole) allow(ok bool) error {
	if !ok {
		return fmt.Errorf("%w (%s)", ErrForbidden, a.identity.User.Role)
	}
	return nil
}

// Services reads the admin catalog.
func (a *AdminConsole) Services(ctx context.Context) (catalog.ServicesResponse, error) {
	if err := a.allow(adminauth.CanManageServices(a.identity.User.Role)); err != nil {
		return catalog.ServicesResponse{}, err
	}
	return query.Get(ctx, a.client, catalog.ListQuery(a.services))
}

// CreateService checks the form and adds a service.
func (a *AdminConsole) CreateService(ctx context.Context, in validation.ServiceInput) (catalog.ServiceIDResponse, error) {
	if err := a.allow(adminauth.CanManageServices(a.identity.User.Role)); err != nil {
		return catalog.ServiceIDResponse{}, err
	}
	form, err := validation.ParseService(in)
	if err != nil {
		return catalog.ServiceIDResponse{}, err
	}
	return a.createService.Run(ctx, catalog.NewUpsertRequest(form))
}

// UpdateService checks the form and replaces service id.
func (a *AdminConsole) UpdateService(ctx context.Context, id string, in validation.ServiceInput) (catalog.ServiceIDResponse, error) {
	if err := a.allow(adminauth.CanManageServices(a.identity.User.Role)); err != nil {
		return catalog.ServiceIDResponse{}, err
	}
	form, err := validation.ParseService(in)
	if err != nil {
		return catalog.ServiceIDResponse{}, err
	}
	return a.updateService.Run(ctx, catalog.UpdateInput{ServiceID: id, Body: catalog.NewUpsertRequest(form)})
}

// ArchiveService hides service id from booking.
func (a *AdminConsole) ArchiveService(ctx context.Context, id string) error {
	if err := a.allow(adminauth.CanManageServices(a.identity.User.Role)); err != nil {
		return err
	}
	_, err := a.archiveService.Run(ctx, id)
	return err
}

// Staff reads the staff list.
func (a *AdminConsole) Staff(ctx context.Context) (staff.ListResponse, error) {
	if err := a.allow(adminauth.CanManageStaff(a.identity.User.Role)); err != nil {
		return staff.ListResponse{}, err
	}
	return query.Get(ctx, a.client, staff.ListQuery(a.staff))
}

// CreateStaff checks the form and adds a member.
func (a *AdminConsole) CreateStaff(ctx context.Context, in validation.StaffInput) (staff.IDResponse, error) {
	if err := a.allow(adminauth.CanManageStaff(a.identity.User.Role)); err != nil {
		return staff.IDResponse{}, err
	}
	form, err := validation.ParseStaff(in)
	if err != nil {
		return staff.IDResponse{}, err
	}
	return a.createStaff.Run(ctx, staff.NewUpsertRequest(form))
}

// UpdateStaff checks the form and replaces member id.
func (a *AdminConsole) UpdateStaff(ctx context.Context, id string, in validation.StaffInput) (staff.IDResponse, error) {
	if err := a.allow(adminauth.CanManageStaff(a.identity.User.Role)); err != nil {
		return staff.IDResponse{}, err
	}
	form, err := validation.ParseStaff(in)
	if err != nil {
		return staff.IDResponse{}, err
	}
	return a.updateStaff.Run(ctx, staff.UpdateInput{StaffID: id, Body: staff.NewUpsertRequest(form)})
}

// ArchiveStaff deactivates member id.
func (a *AdminConsole) ArchiveStaff(ctx context.Context, id string) error {
	if err := a.allow(adminauth.CanManageStaff(a.identity.User.Role)); err != nil {
		return err
	}
	_, err := a.archiveStaff.Run(ctx, id)
	return err
}

// Day reads one day of the planning board.
func (a *AdminConsole) Day(ctx context.Context, date string) (planning.DayResponse, error) {
	if err := a.allow(adminauth.CanViewPlanning(a.identity.User.Role)); err != nil {
		return planning.DayResponse{}, err
	}
	return query.Get(ctx, a.client, planning.DayQuery(a.planning, date))
}

// checkSlot reports an error unless the service is offered and startAt is
// listed for it, the way the planning forms only offer listed slots.
func (a *AdminConsole) checkSlot(ctx context.Context, form AppointmentForm) error {
	slug := a.identity.Tenant.Slug
	services, err := query.Get(ctx, a.client, planning.ServicesQuery(a.planning, slug))
	if err != nil {
		return err
	}
	if _, ok := services.Find(form.ServiceID); !ok {
		return fmt.Errorf("service %s is not offered", form.ServiceID)
	}
	req := booking.SlotsRequest{Slug: slug, ServiceID: form.ServiceID, Date: form.Date, StaffID: form.StaffID}
	if !req.Ready() {
		return ErrSelectionIncomplete
	}
	slots, err := query.Get(ctx, a.client, planning.SlotsQuery(a.planning, req))
	if err != nil {
		return err
	}
	for _, s := range slots.Slots {
		if s.StartAt == form.StartAt {
			return nil
		}
	}
	return fmt.Errorf("slot %s is not listed for this service and date", form.StartAt)
}

// CreateAppointment books a listed slot for a customer. Sending the same form
// again after a failure reuses its idempotency key.
func (a *AdminConsole) CreateAppointment(ctx context.Context, form AppointmentForm) (booking.CreateAppointmentResponse, error) {
	var zero booking.CreateAppointmentResponse
	if err := a.allow(adminauth.CanChangeAppointments(a.identity.User.Role)); err != nil {
		return zero, err
	}
	customer, err := validation.ParseCustomer(form.Phone, form.Name, form.Note)
	if err != nil {
		return zero, err
	}
	if err := a.checkSlot(ctx, form); err != nil {
		return zero, err
	}

	a.mu.Lock()
	if form != a.lastForm {
		a.submission.Renew()
		a.lastForm = form
	}
	key := a.submission.Key()
	a.mu.Unlock()

	resp, err := a.createBooking.Run(ctx, planning.CreateAppointmentInput{
		Date:           form.Date,
		TenantSlug:     a.identity.Tenant.Slug,
		IdempotencyKey: key,
		Body:           booking.NewAppointmentRequest(form.ServiceID, form.StartAt, form.StaffID, customer),
	})
	if err != nil {
		return zero, err
	}

	a.mu.Lock()
	a.submission.Renew()
	a.lastForm = AppointmentForm{}
	a.mu.Unlock()
	a.logger.Info().Str("appointment_id", resp.AppointmentID).Msg("Appointment created from planning.")
	return resp, nil
}

// Reschedule moves appointment id to a listed slot. Customer fields of form
// are ignored.
func (a *AdminConsole) Reschedule(ctx context.Context, id string, form AppointmentForm) (planning.UpdateAppointmentResponse, error) {
	if err := a.allow(adminauth.CanChangeAppointments(a.identity.User.Role)); err != nil {
		return planning.UpdateAppointmentResponse{}, err
	}
	if err := a.checkSlot(ctx, form); err != nil {
		return planning.UpdateAppointmentResponse{}, err
	}
	return a.reschedule.Run(ctx, planning.UpdateAppointmentInput{
		Date:          form.Date,
		TenantSlug:    a.identity.Tenant.Slug,
		AppointmentID: id,
		Body:          planning.UpdateAppointmentRequest{ServiceID: form.ServiceID, StartAt: form.StartAt, StaffID: form.StaffID},
	})
}

// SetStatus applies one of the board's status actions to appointment id.
func (a *AdminConsole) SetStatus(ctx context.Context, date, id string, status planning.UpdatableStatus) (planning.UpdateStatusResponse, error) {
	if err := a.allow(adminauth.CanChangeAppointments(a.identity.User.Role)); err != nil {
		return planning.UpdateStatusResponse{}, err
	}
	if !status.Valid() {
		return planning.UpdateStatusResponse{}, fmt.Errorf("status %q cannot be set", status)
	}
	return a.updateStatus.Run(ctx, planning.UpdateStatusInput{Date: date, AppointmentID: id, Status: status})
}
