// Command bookingctl is a console front-end for the booking API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/docopt/docopt-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-booking/pkg/cache"
	"github.com/illmade-knight/go-booking/pkg/config"
	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/illmade-knight/go-booking/pkg/transport"
)

const version = "0.1.0"

const usage = `Booking console.

Admin commands sign in first. The password is read from BOOKING_ADMIN_PASSWORD
or prompted for on the terminal.

Usage:
    bookingctl booking <slug> [--config=<path>] [--service=<id>] [--date=<date>]
        [--slot=<start>] [--phone=<phone>] [--name=<name>] [--note=<note>]
    bookingctl admin login <tenant> <email> [--config=<path>]
    bookingctl admin logout <tenant> <email> [--config=<path>]
    bookingctl admin planning create <tenant> <email> --service=<id> --slot=<start> --phone=<phone>
        [--staff=<id>] [--name=<name>] [--note=<note>] [--date=<date>] [--config=<path>]
    bookingctl admin planning move <tenant> <email> <appointment> --service=<id> --slot=<start>
        [--staff=<id>] [--date=<date>] [--config=<path>]
    bookingctl admin planning <tenant> <email> [--config=<path>] [--date=<date>]
        [--appointment=<id> --status=<status>]
    bookingctl admin services create <tenant> <email> --name=<name> --duration=<min>
        [--buffer-before=<min>] [--buffer-after=<min>] [--price=<cents>] [--order=<n>] [--config=<path>]
    bookingctl admin services update <tenant> <email> <id> --name=<name> --duration=<min>
        [--buffer-before=<min>] [--buffer-after=<min>] [--price=<cents>] [--order=<n>] [--config=<path>]
    bookingctl admin services archive <tenant> <email> <id> [--config=<path>]
    bookingctl admin services <tenant> <email> [--config=<path>]
    bookingctl admin staff create <tenant> <email> --name=<name> [--order=<n>] [--services=<ids>] [--config=<path>]
    bookingctl admin staff update <tenant> <email> <id> --name=<name> [--order=<n>] [--services=<ids>] [--config=<path>]
    bookingctl admin staff archive <tenant> <email> <id> [--config=<path>]
    bookingctl admin staff <tenant> <email> [--config=<path>]
    bookingctl fake-api [--addr=<addr>]
    bookingctl -h | --help
    bookingctl --version

Options:
    -h --help               Show this screen.
    --version               Show version.
    --config=<path>         YAML config file. Defaults to ./bookingctl.yaml when present.
    --service=<id>          Service to list slots for or to book.
    --staff=<id>            Staff member for a planning booking.
    --date=<date>           Day as YYYY-MM-DD. Defaults to today (UTC).
    --slot=<start>          Slot start (RFC 3339) to book.
    --phone=<phone>         Customer phone. Submits the public booking when set.
    --name=<name>           Customer, service or staff name.
    --note=<note>           Note for the salon.
    --appointment=<id>      Appointment to change.
    --status=<status>       CONFIRMED, COMPLETED, NO_SHOW or CANCELLED_BY_STAFF.
    --duration=<min>        Service duration in minutes.
    --buffer-before=<min>   Minutes blocked before the service.
    --buffer-after=<min>    Minutes blocked after the service.
    --price=<cents>         Service price in cents. Omit for no price.
    --order=<n>             Display order.
    --services=<ids>        Comma separated service ids a staff member performs.
    --addr=<addr>           Listen address for the fake API [default: :8080].`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if fake, _ := opts.Bool("fake-api"); fake {
		err = runFakeAPI(ctx, opts)
	} else {
		err = runConsole(ctx, opts)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func runConsole(ctx context.Context, opts docopt.Opts) error {
	path, _ := opts.String("--config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Level())

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if b, _ := opts.Bool("booking"); b {
		return a.runBooking(ctx, opts)
	}
	return a.runAdmin(ctx, opts)
}

func newLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// app holds the clients shared by the console commands.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	http     *transport.Client
	queries  *query.Client
	registry *prometheus.Registry
	store    query.SnapshotStore
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	httpClient, err := transport.New(&transport.Config{BaseURL: cfg.APIURL, Timeout: cfg.HTTPTimeout}, logger)
	if err != nil {
		return nil, err
	}

	var store query.SnapshotStore = cache.NewInMemoryStore()
	if cfg.Redis.Addr != "" {
		redisStore, err := cache.NewRedisStore(ctx, &cache.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.TTL,
		}, logger)
		if err != nil {
			return nil, err
		}
		store = redisStore
	}

	registry := prometheus.NewRegistry()
	metrics, err := query.NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		http:     httpClient,
		queries:  query.New(&query.Config{RetryDelay: cfg.Query.RetryDelay}, store, metrics, logger),
		registry: registry,
		store:    store,
	}, nil
}

func (a *app) close() {
	if err := a.queries.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close query client.")
	}
	if closer, ok := a.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close snapshot store.")
		}
	}
	a.logMetrics()
}

// logMetrics writes the query engine counters at debug level.
func (a *app) logMetrics() {
	if a.logger.GetLevel() > zerolog.DebugLevel {
		return
	}
	families, err := a.registry.Gather()
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to gather metrics.")
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			event := a.logger.Debug().Str("metric", mf.GetName())
			for _, l := range m.GetLabel() {
				event = event.Str(l.GetName(), l.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				event = event.Float64("value", m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				event = event.Float64("value", m.GetGauge().GetValue())
			}
			event.Msg("Query metric.")
		}
	}
}

// withRetries applies the configured retry count to a read.
func withRetries[T any](a *app, q query.Query[T]) query.Query[T] {
	q.Options.RetryCount = a.cfg.Query.RetryCount
	return q
}
