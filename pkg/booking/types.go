// Package booking is the public booking surface: tenant lookup, bookable
// services, available slots and appointment creation.
package booking

// Tenant is the public description of a tenant.
type Tenant struct {
	Slug     string  `json:"slug"`
	Name     string  `json:"name"`
	Timezone *string `json:"timezone"`
	Status   string  `json:"status"`
}

// TimezoneOr returns the tenant timezone, or fallback when none is set.
func (t Tenant) TimezoneOr(fallback string) string {
	if t.Timezone == nil || *t.Timezone == "" {
		return fallback
	}
	return *t.Timezone
}

// TenantResponse is returned by the tenant lookup.
type TenantResponse struct {
	Tenant   Tenant         `json:"tenant"`
	Policies map[string]any `json:"policies"`
}

// Service is a bookable service.
type Service struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	DurationMinutes     int    `json:"duration_minutes"`
	BufferBeforeMinutes int    `json:"buffer_before_minutes"`
	BufferAfterMinutes  int    `json:"buffer_after_minutes"`
	PriceCents          int    `json:"price_cents"`
}

// ServicesResponse lists bookable services.
type ServicesResponse struct {
	Services []Service `json:"services"`
}

// Find returns the service with id.
func (r ServicesResponse) Find(id string) (Service, bool) {
	for _, s := range r.Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// SlotsRequest selects the slots to list. StaffID is optional.
type SlotsRequest struct {
	Slug      string
	ServiceID string
	Date      string
	StaffID   string
}

// Ready reports whether every required parameter is set.
func (r SlotsRequest) Ready() bool {
	return r.Slug != "" && r.ServiceID != "" && r.Date != ""
}

// Slot is one available start time, as an RFC 3339 instant.
type Slot struct {
	StartAt string `json:"start_at"`
}

// SlotsResponse lists available slots for one service and day.
type SlotsResponse struct {
	Date            string  `json:"date"`
	ServiceID       string  `json:"service_id"`
	StaffID         *string `json:"staff_id"`
	SlotStepMinutes int     `json:"slot_step_minutes"`
	Slots           []Slot  `json:"slots"`
}

// Customer is the contact block of an appointment. Empty optional fields are
// left out of the body.
type Customer struct {
	Phone string `json:"phone"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// CreateAppointmentRequest is the body of an appointment creation. The same
// shape is used by the admin planning board.
type CreateAppointmentRequest struct {
	ServiceID string   `json:"service_id"`
	StartAt   string   `json:"start_at"`
	StaffID   string   `json:"staff_id,omitempty"`
	Customer  Customer `json:"customer"`
	Note      string   `json:"note,omitempty"`
}

// CreateAppointmentResponse is returned by appointment creation.
type CreateAppointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}
