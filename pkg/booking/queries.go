package booking

import (
	"context"

	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/illmade-knight/go-booking/pkg/validation"
)

// TenantKey is the cache key of a tenant lookup.
func TenantKey(slug string) query.Key {
	return query.Key{"tenant", slug}
}

// ServicesKey is the cache key of a tenant's service list.
func ServicesKey(slug string) query.Key {
	return query.Key{"services", slug}
}

// SlotsKey is the cache key of one slots listing.
func SlotsKey(req SlotsRequest) query.Key {
	return query.Key{"slots", req.Slug, req.ServiceID, req.Date, query.Opt(req.StaffID)}
}

// SlotsPrefix matches every slots listing of a tenant.
func SlotsPrefix(slug string) query.Key {
	return query.Key{"slots", slug}
}

// TenantQuery reads a tenant. It is disabled until slug is set. Tenants change
// rarely, so the result may be persisted.
func TenantQuery(api *API, slug string) query.Query[TenantResponse] {
	return query.Query[TenantResponse]{
		Key: TenantKey(slug),
		Fetch: func(ctx context.Context) (TenantResponse, error) {
			return api.GetTenant(ctx, slug)
		},
		Options: query.Options{Enabled: slug != "", Persist: true},
	}
}

// ServicesQuery reads a tenant's services. It is disabled until slug is set.
func ServicesQuery(api *API, slug string) query.Query[ServicesResponse] {
	return query.Query[ServicesResponse]{
		Key: ServicesKey(slug),
		Fetch: func(ctx context.Context) (ServicesResponse, error) {
			return api.ListServices(ctx, slug)
		},
		Options: query.Options{Enabled: slug != "", Persist: true},
	}
}

// SlotsQuery reads available slots. It is disabled until slug, service and
// date are all set.
func SlotsQuery(api *API, req SlotsRequest) query.Query[SlotsResponse] {
	return query.Query[SlotsResponse]{
		Key: SlotsKey(req),
		Fetch: func(ctx context.Context) (SlotsResponse, error) {
			return api.GetSlots(ctx, req)
		},
		Options: query.Options{Enabled: req.Ready()},
	}
}

// NewAppointmentRequest builds a creation body from a checked customer form.
// Empty name, note and staff are omitted.
func NewAppointmentRequest(serviceID, startAt, staffID string, customer validation.Customer) CreateAppointmentRequest {
	return CreateAppointmentRequest{
		ServiceID: serviceID,
		StartAt:   startAt,
		StaffID:   staffID,
		Customer:  Customer{Phone: customer.Phone, Name: customer.Name},
		Note:      customer.Note,
	}
}
