package planning

import (
	"context"

	"github.com/illmade-knight/go-booking/pkg/booking"
	"github.com/illmade-knight/go-booking/pkg/query"
)

// DayKey is the cache key of one day of the board.
func DayKey(date string) query.Key {
	return query.Key{"admin-planning", "day", date}
}

// ServicesKey is the cache key of the services offered in the planning forms.
func ServicesKey(tenantSlug string) query.Key {
	return query.Key{"admin-planning", "services", tenantSlug}
}

// SlotsKey is the cache key of one slots listing in the planning forms.
func SlotsKey(req booking.SlotsRequest) query.Key {
	return query.Key{"admin-planning", "slots", req.Slug, req.ServiceID, req.Date, query.Opt(req.StaffID)}
}

// SlotsPrefix matches every planning slots listing of a tenant.
func SlotsPrefix(tenantSlug string) query.Key {
	return query.Key{"admin-planning", "slots", tenantSlug}
}

// DayQuery reads one day of the board. It is disabled until date is set.
func DayQuery(api *API, date string) query.Query[DayResponse] {
	return query.Query[DayResponse]{
		Key: DayKey(date),
		Fetch: func(ctx context.Context) (DayResponse, error) {
			return api.GetDay(ctx, date)
		},
		Options: query.Options{Enabled: date != ""},
	}
}

// ServicesQuery reads the services of the signed-in tenant.
func ServicesQuery(api *API, tenantSlug string) query.Query[booking.ServicesResponse] {
	return query.Query[booking.ServicesResponse]{
		Key: ServicesKey(tenantSlug),
		Fetch: func(ctx context.Context) (booking.ServicesResponse, error) {
			return api.ListServices(ctx, tenantSlug)
		},
		Options: query.Options{Enabled: tenantSlug != ""},
	}
}

// SlotsQuery reads slots for the planning forms.
func SlotsQuery(api *API, req booking.SlotsRequest) query.Query[booking.SlotsResponse] {
	return query.Query[booking.SlotsResponse]{
		Key: SlotsKey(req),
		Fetch: func(ctx context.Context) (booking.SlotsResponse, error) {
			return api.GetSlots(ctx, req)
		},
		Options: query.Options{Enabled: req.Ready()},
	}
}
