// Package catalog manages the tenant's service catalog from the admin console.
package catalog

import (
	"github.com/illmade-knight/go-booking/pkg/validation"
	"github.com/oapi-codegen/nullable"
)

// Service is a catalog entry as seen by an admin. PriceCents is null when the
// service has no public price.
type Service struct {
	ID                  string                 `json:"id"`
	Name                string                 `json:"name"`
	DurationMinutes     int                    `json:"duration_minutes"`
	BufferBeforeMinutes int                    `json:"buffer_before_minutes"`
	BufferAfterMinutes  int                    `json:"buffer_after_minutes"`
	PriceCents          nullable.Nullable[int] `json:"price_cents"`
	IsActive            bool                   `json:"is_active"`
	DisplayOrder        int                    `json:"display_order"`
}

// Price returns the price and whether one is set.
func (s Service) Price() (int, bool) {
	p, err := s.PriceCents.Get()
	if err != nil {
		return 0, false
	}
	return p, true
}

// ServicesResponse lists the whole catalog, archived entries included.
type ServicesResponse struct {
	Services []Service `json:"services"`
}

// UpsertServiceRequest creates or replaces a service. PriceCents is always
// sent, as an explicit null when there is no price.
type UpsertServiceRequest struct {
	Name                string                 `json:"name"`
	DurationMinutes     int                    `json:"duration_minutes"`
	BufferBeforeMinutes int                    `json:"buffer_before_minutes"`
	BufferAfterMinutes  int                    `json:"buffer_after_minutes"`
	PriceCents          nullable.Nullable[int] `json:"price_cents"`
	DisplayOrder        int                    `json:"display_order"`
}

// NewUpsertRequest builds a request from a checked service form.
func NewUpsertRequest(form validation.Service) UpsertServiceRequest {
	return UpsertServiceRequest{
		Name:                form.Name,
		DurationMinutes:     form.DurationMinutes,
		BufferBeforeMinutes: form.BufferBeforeMinutes,
		BufferAfterMinutes:  form.BufferAfterMinutes,
		PriceCents:          Price(form.PriceCents),
		DisplayOrder:        form.DisplayOrder,
	}
}

// Price converts an optional price into its wire form.
func Price(p *int) nullable.Nullable[int] {
	if p == nil {
		return nullable.NewNullNullable[int]()
	}
	return nullable.NewNullableWithValue(*p)
}

// ServiceIDResponse is returned by create and update.
type ServiceIDResponse struct {
	ServiceID string `json:"service_id"`
}
