package main

import (
	"context"
	"os"
	"time"

	"github.com/docopt/docopt-go"

	"github.com/illmade-knight/go-booking/pkg/booking"
	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/illmade-knight/go-booking/pkg/view"
)

// runBooking walks the public booking screen as far as the flags allow and
// prints it.
func (a *app) runBooking(ctx context.Context, opts docopt.Opts) error {
	slug, _ := opts.String("<slug>")
	serviceID, _ := opts.String("--service")
	date, _ := opts.String("--date")
	slot, _ := opts.String("--slot")
	phone, _ := opts.String("--phone")
	name, _ := opts.String("--name")
	note, _ := opts.String("--note")
	if date == "" {
		date = time.Now().UTC().Format(time.DateOnly)
	}

	api := booking.NewAPI(a.http)
	flow := view.NewBookingFlow(a.queries, api, slug, date, nil, a.logger, view.WithRetryCount(a.cfg.Query.RetryCount))
	defer flow.Close()

	// The flow renders whatever has settled; a failed read shows as an error section.
	if _, err := query.Get(ctx, a.queries, withRetries(a, booking.TenantQuery(api, slug))); err != nil {
		return view.WriteSections(os.Stdout, flow.Sections()...)
	}
	if _, err := query.Get(ctx, a.queries, withRetries(a, booking.ServicesQuery(api, slug))); err != nil {
		return view.WriteSections(os.Stdout, flow.Sections()...)
	}

	if serviceID != "" {
		flow.SelectService(serviceID)
		req := booking.SlotsRequest{Slug: slug, ServiceID: serviceID, Date: date}
		if _, err := query.Get(ctx, a.queries, withRetries(a, booking.SlotsQuery(api, req))); err != nil {
			a.logger.Debug().Err(err).Msg("Slots unavailable.")
		}
	}

	if slot != "" {
		if err := flow.SelectSlot(slot); err != nil {
			return err
		}
	}

	if phone != "" {
		if _, err := flow.Submit(ctx, phone, name, note); err != nil {
			_ = view.WriteSections(os.Stdout, flow.Sections()...)
			return err
		}
	}
	return view.WriteSections(os.Stdout, flow.Sections()...)
}
