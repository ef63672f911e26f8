package view

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-booking/pkg/booking"
	"github.com/illmade-knight/go-booking/pkg/idempotency"
	"github.com/illmade-knight/go-booking/pkg/mutation"
	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/illmade-knight/go-booking/pkg/validation"
)

var (
	// ErrSelectionIncomplete is returned by Submit before a service and a slot are chosen.
	ErrSelectionIncomplete = errors.New("choose a service and a slot first")
	// ErrSubmitPending is returned by Submit while a previous submit is in flight.
	ErrSubmitPending = errors.New("a booking is already being submitted")
)

// BookingFlow is the public booking screen: pick a service, a date and a slot,
// then submit the customer form.
type BookingFlow struct {
	client *query.Client
	api    *booking.API
	create *booking.CreateAppointmentMutation
	logger zerolog.Logger
	slug   string

	onChange func()
	retries  int

	mu         sync.Mutex
	serviceID  string
	date       string
	slotStart  string
	confirmed  string
	submission *idempotency.Submission
	tenant     *query.Handle
	services   *query.Handle
	slots      *query.Handle
}

// FlowOption tunes a BookingFlow.
type FlowOption func(*BookingFlow)

// WithRetryCount retries a failed tenant, services or slots read n more times.
func WithRetryCount(n int) FlowOption {
	return func(f *BookingFlow) {
		f.retries = n
	}
}

func retried[T any](q query.Query[T], n int) query.Query[T] {
	q.Options.RetryCount = n
	return q
}

// NewBookingFlow opens the booking screen of slug on date. onChange, when
// set, is called after every state change and must not block.
func NewBookingFlow(c *query.Client, api *booking.API, slug, date string, onChange func(), logger zerolog.Logger, opts ...FlowOption) *BookingFlow {
	f := &BookingFlow{
		client:     c,
		api:        api,
		create:     booking.NewCreateAppointmentMutation(c, api, logger),
		logger:     logger.With().Str("component", "BookingFlow").Str("tenant", slug).Logger(),
		slug:       slug,
		onChange:   onChange,
		date:       date,
		submission: idempotency.NewSubmission(),
	}
	for _, opt := range opts {
		opt(f)
	}
	tenant := query.Watch(c, retried(booking.TenantQuery(api, slug), f.retries), func(query.State[booking.TenantResponse]) { f.notify() })
	services := query.Watch(c, retried(booking.ServicesQuery(api, slug), f.retries), func(query.State[booking.ServicesResponse]) { f.notify() })
	f.create.OnChange(func(mutation.State[booking.CreateAppointmentInput, booking.CreateAppointmentResponse]) { f.notify() })

	f.mu.Lock()
	f.tenant, f.services = tenant, services
	f.mu.Unlock()
	return f
}

func (f *BookingFlow) notify() {
	if f.onChange != nil {
		f.onChange()
	}
}

// SelectService picks a service. The chosen slot is cleared.
func (f *BookingFlow) SelectService(id string) {
	f.mu.Lock()
	f.serviceID = id
	f.mu.Unlock()
	f.resetSlots()
}

// SelectDate picks a date (YYYY-MM-DD). The chosen slot is cleared.
func (f *BookingFlow) SelectDate(date string) {
	f.mu.Lock()
	f.date = date
	f.mu.Unlock()
	f.resetSlots()
}

// resetSlots clears the slot and follows the slots listing of the current
// selection. Watch runs without f.mu since it notifies synchronously.
func (f *BookingFlow) resetSlots() {
	f.mu.Lock()
	f.slotStart = ""
	f.confirmed = ""
	f.submission.Renew()
	req := f.slotsRequestLocked()
	old := f.slots
	f.slots = nil
	f.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}
	h := query.Watch(f.client, retried(booking.SlotsQuery(f.api, req), f.retries), func(query.State[booking.SlotsResponse]) { f.notify() })

	f.mu.Lock()
	if f.slots == nil && f.slotsRequestLocked() == req {
		f.slots = h
		h = nil
	}
	f.mu.Unlock()
	if h != nil {
		h.Unsubscribe()
	}
	f.notify()
}

func (f *BookingFlow) slotsRequestLocked() booking.SlotsRequest {
	return booking.SlotsRequest{Slug: f.slug, ServiceID: f.serviceID, Date: f.date}
}

// SelectSlot picks one of the listed slots. Choosing another slot is a new
// booking and gets a new idempotency key.
func (f *BookingFlow) SelectSlot(startAt string) error {
	f.mu.Lock()
	h := f.slots
	f.mu.Unlock()
	if h == nil {
		return ErrSelectionIncomplete
	}
	listed := query.StateOf[booking.SlotsResponse](h.Entry())
	for _, s := range listed.Data.Slots {
		if s.StartAt == startAt {
			f.mu.Lock()
			if f.slotStart != startAt {
				f.submission.Renew()
			}
			f.slotStart = startAt
			f.confirmed = ""
			f.mu.Unlock()
			f.notify()
			return nil
		}
	}
	return fmt.Errorf("slot %s is not listed for this service and date", startAt)
}

// CanSubmit reports whether the customer form is open.
func (f *BookingFlow) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.serviceID != "" && f.slotStart != ""
}

// Submit checks the customer form and books the chosen slot. A repeated submit
// of the same selection reuses its idempotency key; a success starts a new one.
func (f *BookingFlow) Submit(ctx context.Context, phone, name, note string) (booking.CreateAppointmentResponse, error) {
	var zero booking.CreateAppointmentResponse
	if !f.CanSubmit() {
		return zero, ErrSelectionIncomplete
	}
	if f.create.State().IsPending() {
		return zero, ErrSubmitPending
	}
	customer, err := validation.ParseCustomer(phone, name, note)
	if err != nil {
		return zero, err
	}

	f.mu.Lock()
	in := booking.CreateAppointmentInput{
		Slug:           f.slug,
		IdempotencyKey: f.submission.Key(),
		Body:           booking.NewAppointmentRequest(f.serviceID, f.slotStart, "", customer),
	}
	f.mu.Unlock()

	resp, err := f.create.Run(ctx, in)
	if err != nil {
		f.logger.Debug().Err(err).Msg("Booking submit failed.")
		return zero, err
	}

	f.mu.Lock()
	f.submission.Renew()
	f.slotStart = ""
	f.confirmed = fmt.Sprintf("Appointment created: %s (%s).", resp.AppointmentID, resp.Status)
	f.mu.Unlock()
	f.logger.Info().Str("appointment_id", resp.AppointmentID).Msg("Appointment booked.")
	f.notify()
	return resp, nil
}

// Sections renders the screen.
func (f *BookingFlow) Sections() []Section {
	f.mu.Lock()
	serviceID, date, slotStart, confirmed := f.serviceID, f.date, f.slotStart, f.confirmed
	tenantH, servicesH, slotsH := f.tenant, f.services, f.slots
	f.mu.Unlock()

	tenant := query.StateOf[booking.TenantResponse](tenantH.Entry())
	services := query.StateOf[booking.ServicesResponse](servicesH.Entry())
	zone := "UTC"
	if tenant.HasData {
		zone = tenant.Data.Tenant.TimezoneOr("UTC")
	}

	out := []Section{
		Read("Tenant", tenant, ScopeTenant, Texts{
			Loading: "Loading tenant...",
			Error:   "Could not load the tenant.",
		}, func(t booking.TenantResponse) []string {
			return []string{
				"Name: " + t.Tenant.Name,
				"Status: " + t.Tenant.Status,
				"Timezone: " + t.Tenant.TimezoneOr("UTC (default)"),
			}
		}),
		Read("Services", services, ScopeServices, Texts{
			Loading: "Loading services...",
			Error:   "Could not load services.",
			Empty:   "No services available.",
		}, func(r booking.ServicesResponse) []string {
			lines := make([]string, 0, len(r.Services))
			for _, s := range r.Services {
				marker := " "
				if s.ID == serviceID {
					marker = "*"
				}
				lines = append(lines, fmt.Sprintf("%s %s  %s (%d min)", marker, s.ID, s.Name, s.DurationMinutes))
			}
			return lines
		}),
	}

	if serviceID == "" {
		out = append(out,
			Info("Date", "Choose a service to load slots."),
			Section{Title: "Slots", Tone: ToneEmpty, Message: "No slots: no service selected."})
	} else {
		out = append(out, Info("Date", date))
		var slots query.State[booking.SlotsResponse]
		if slotsH != nil {
			slots = query.StateOf[booking.SlotsResponse](slotsH.Entry())
		}
		out = append(out, Read("Slots", slots, ScopeSlots, Texts{
			Idle:    "Choose a date to load slots.",
			Loading: "Loading slots...",
			Error:   "Could not load slots.",
			Empty:   "No slots available on this date.",
		}, func(r booking.SlotsResponse) []string {
			lines := make([]string, 0, len(r.Slots))
			for _, s := range r.Slots {
				marker := " "
				if s.StartAt == slotStart {
					marker = "*"
				}
				lines = append(lines, fmt.Sprintf("%s %s  %s", marker, localClock(s.StartAt, zone), s.StartAt))
			}
			return lines
		}))
	}

	customer := Info("Customer", "Choose a service and a slot first.")
	if serviceID != "" && slotStart != "" {
		customer = Info("Customer", "Selected: "+serviceID+" at "+slotStart)
	}
	st := f.create.State()
	switch {
	case st.IsPending():
		customer = Section{Title: "Customer", Tone: ToneLoading, Message: "Booking..."}
	case st.Status == mutation.StatusError:
		customer = Section{Title: "Customer", Tone: ToneError,
			Message: ErrorMessage(st.Err, "Could not create the appointment.", ScopeAppointment)}
	case confirmed != "":
		customer = Info("Customer", confirmed)
	}
	return append(out, customer)
}

// Close stops following every read.
func (f *BookingFlow) Close() {
	f.mu.Lock()
	handles := []*query.Handle{f.tenant, f.services, f.slots}
	f.mu.Unlock()
	for _, h := range handles {
		if h != nil {
			h.Unsubscribe()
		}
	}
}
