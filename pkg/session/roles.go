package session

import (
	"slices"

	"github.com/illmade-knight/go-booking/pkg/adminauth"
)

// Access is the outcome of a role check.
type Access int

const (
	// AccessPending renders a waiting state; nothing protected is shown.
	AccessPending Access = iota
	// AccessError means permissions could not be verified.
	AccessError
	// AccessDenied means the identity is confirmed but its role is not allowed.
	AccessDenied
	AccessGranted
)

func (a Access) String() string {
	switch a {
	case AccessPending:
		return "pending"
	case AccessError:
		return "error"
	case AccessDenied:
		return "denied"
	case AccessGranted:
		return "granted"
	default:
		return "unknown"
	}
}

// RequireRoles grants access only to a confirmed identity whose role is in allowed.
func RequireRoles(d Decision, allowed ...adminauth.Role) Access {
	switch d.Verdict {
	case VerdictLoading:
		return AccessPending
	case VerdictAuthenticated:
		if d.Identity == nil {
			return AccessError
		}
		if slices.Contains(allowed, d.Identity.User.Role) {
			return AccessGranted
		}
		return AccessDenied
	default:
		return AccessError
	}
}
