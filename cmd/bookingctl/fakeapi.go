package main

import (
	"context"
	"time"

	"github.com/docopt/docopt-go"

	"github.com/illmade-knight/go-booking/pkg/config"
	"github.com/illmade-knight/go-booking/pkg/fakeapi"
)

// runFakeAPI serves the in-memory backend until ctx is cancelled.
func runFakeAPI(ctx context.Context, opts docopt.Opts) error {
	addr, _ := opts.String("--addr")
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Level())

	srv := fakeapi.NewHTTPServer(fakeapi.New(nil, logger), addr, logger)
	if err := srv.Start(); err != nil {
		return err
	}
	logger.Info().
		Str("url", srv.URL()).
		Str("tenant", "demo").
		Str("admin", fakeapi.DemoAdminEmail).
		Str("password", fakeapi.DemoPassword).
		Msg("Fake booking API ready.")

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
