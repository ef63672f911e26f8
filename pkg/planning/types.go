// Package planning is the admin day planning board: the day view, manual
// appointment creation, rescheduling and status changes.
package planning

import (
	"github.com/illmade-knight/go-booking/pkg/adminauth"
)

// Appointment statuses as reported by the backend.
const (
	StatusPendingConfirmation = "PENDING_CONFIRMATION"
	StatusConfirmed           = "CONFIRMED"
	StatusCompleted           = "COMPLETED"
	StatusNoShow              = "NO_SHOW"
	StatusCancelledByStaff    = "CANCELLED_BY_STAFF"
)

// UpdatableStatus is a status the planning board may set.
type UpdatableStatus string

const (
	UpdateConfirmed        UpdatableStatus = StatusConfirmed
	UpdateCompleted        UpdatableStatus = StatusCompleted
	UpdateNoShow           UpdatableStatus = StatusNoShow
	UpdateCancelledByStaff UpdatableStatus = StatusCancelledByStaff
)

// Valid reports whether s can be sent to the status endpoint.
func (s UpdatableStatus) Valid() bool {
	switch s {
	case UpdateConfirmed, UpdateCompleted, UpdateNoShow, UpdateCancelledByStaff:
		return true
	default:
		return false
	}
}

// Staff is one column of the board.
type Staff struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Appointment is one card of the board.
type Appointment struct {
	ID            string  `json:"id"`
	StaffID       *string `json:"staff_id"`
	ServiceID     string  `json:"service_id"`
	ServiceName   string  `json:"service_name"`
	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone"`
	StartAt       string  `json:"start_at"`
	EndAt         string  `json:"end_at"`
	Status        string  `json:"status"`
}

// AssignedTo reports whether the appointment sits in the column of staffID.
func (a Appointment) AssignedTo(staffID string) bool {
	return a.StaffID != nil && *a.StaffID == staffID
}

// DayResponse is the planning board of one day.
type DayResponse struct {
	Date         string         `json:"date"`
	Timezone     string         `json:"timezone"`
	ViewerRole   adminauth.Role `json:"viewer_role"`
	Staff        []Staff        `json:"staff"`
	Appointments []Appointment  `json:"appointments"`
}

// Find returns the appointment with id.
func (d DayResponse) Find(id string) (Appointment, bool) {
	for _, a := range d.Appointments {
		if a.ID == id {
			return a, true
		}
	}
	return Appointment{}, false
}

// UpdateStatusRequest is the body of a status change.
type UpdateStatusRequest struct {
	Status UpdatableStatus `json:"status"`
}

// UpdateStatusResponse is returned by a status change.
type UpdateStatusResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

// UpdateAppointmentRequest reschedules or reassigns an appointment. An empty
// StaffID is left out of the body.
type UpdateAppointmentRequest struct {
	ServiceID string `json:"service_id"`
	StartAt   string `json:"start_at"`
	StaffID   string `json:"staff_id,omitempty"`
}

// UpdateAppointmentResponse is returned by a reschedule.
type UpdateAppointmentResponse struct {
	AppointmentID string  `json:"appointment_id"`
	Status        string  `json:"status"`
	ServiceID     string  `json:"service_id"`
	StaffID       *string `json:"staff_id"`
	StartAt       string  `json:"start_at"`
	EndAt         string  `json:"end_at"`
}
