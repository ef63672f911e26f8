package planning

import (
	"strings"

	"github.com/illmade-knight/go-booking/pkg/adminauth"
)

// Action is one status change offered on an appointment card.
type Action struct {
	Label  string
	Target UpdatableStatus
}

// ActionsFor lists the status changes role may apply to an appointment in
// status. Only ADMIN and RECEPTION get actions.
func ActionsFor(status string, role adminauth.Role) []Action {
	if !adminauth.CanChangeAppointments(role) {
		return nil
	}
	switch status {
	case StatusPendingConfirmation:
		return []Action{
			{Label: "Confirm", Target: UpdateConfirmed},
			{Label: "Cancel", Target: UpdateCancelledByStaff},
		}
	case StatusConfirmed:
		return []Action{
			{Label: "Present", Target: UpdateCompleted},
			{Label: "No-show", Target: UpdateNoShow},
			{Label: "Cancel", Target: UpdateCancelledByStaff},
		}
	default:
		return nil
	}
}

// CanEdit reports whether role may reschedule an appointment in status. Settled
// appointments cannot be moved.
func CanEdit(status string, role adminauth.Role) bool {
	return len(ActionsFor(status, role)) > 0
}

// Tone groups statuses for display.
func Tone(status string) string {
	switch {
	case status == StatusPendingConfirmation:
		return "pending"
	case status == StatusConfirmed:
		return "confirmed"
	case status == StatusCompleted:
		return "completed"
	case status == StatusNoShow:
		return "no-show"
	case strings.HasPrefix(status, "CANCELLED"):
		return "cancelled"
	default:
		return "default"
	}
}
