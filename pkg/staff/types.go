// Package staff manages staff members from the admin console.
package staff

import (
	"github.com/illmade-knight/go-booking/pkg/validation"
	"github.com/oapi-codegen/nullable"
)

// Member is a staff member. UserID is null when the member has no login.
type Member struct {
	ID           string                    `json:"id"`
	DisplayName  string                    `json:"display_name"`
	UserID       nullable.Nullable[string] `json:"user_id"`
	IsActive     bool                      `json:"is_active"`
	DisplayOrder int                       `json:"display_order"`
	ServiceIDs   []string                  `json:"service_ids"`
}

// HasLogin reports whether the member is linked to an admin user.
func (m Member) HasLogin() bool {
	id, err := m.UserID.Get()
	return err == nil && id != ""
}

// Performs reports whether the member performs serviceID.
func (m Member) Performs(serviceID string) bool {
	for _, id := range m.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}

// ListResponse lists every staff member, archived ones included.
type ListResponse struct {
	Staff []Member `json:"staff"`
}

// Active returns the members that are not archived.
func (r ListResponse) Active() []Member {
	var out []Member
	for _, m := range r.Staff {
		if m.IsActive {
			out = append(out, m)
		}
	}
	return out
}

// UpsertRequest creates or replaces a staff member. ServiceIDs is always sent,
// as an empty array when the member performs no service.
type UpsertRequest struct {
	DisplayName  string   `json:"display_name"`
	DisplayOrder int      `json:"display_order"`
	ServiceIDs   []string `json:"service_ids"`
}

// NewUpsertRequest builds a request from a checked staff form.
func NewUpsertRequest(form validation.Staff) UpsertRequest {
	ids := form.ServiceIDs
	if ids == nil {
		ids = []string{}
	}
	return UpsertRequest{
		DisplayName:  form.DisplayName,
		DisplayOrder: form.DisplayOrder,
		ServiceIDs:   ids,
	}
}

// IDResponse is returned by create and update.
type IDResponse struct {
	StaffID string `json:"staff_id"`
}
