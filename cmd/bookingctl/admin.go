package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"
	"golang.org/x/term"

	"github.com/illmade-knight/go-booking/pkg/adminauth"
	"github.com/illmade-knight/go-booking/pkg/catalog"
	"github.com/illmade-knight/go-booking/pkg/planning"
	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/illmade-knight/go-booking/pkg/session"
	"github.com/illmade-knight/go-booking/pkg/staff"
	"github.com/illmade-knight/go-booking/pkg/validation"
	"github.com/illmade-knight/go-booking/pkg/view"
)

const envAdminPassword = "BOOKING_ADMIN_PASSWORD"

// Paths the session gate reports as the page to come back to after login.
const (
	planningPath = "/admin/planning"
	servicesPath = "/admin/services"
	staffPath    = "/admin/staff"
	homePath     = "/admin"
)

func (a *app) runAdmin(ctx context.Context, opts docopt.Opts) error {
	tenant, _ := opts.String("<tenant>")
	email, _ := opts.String("<email>")

	auth := adminauth.NewAPI(a.http)
	identity, err := a.login(ctx, auth, tenant, email)
	if err != nil {
		return err
	}
	gate := session.NewGate(a.queries, auth, a.logger)
	console := view.NewAdminConsole(a.queries, a.http, identity, a.logger)

	switch {
	case flag(opts, "login"):
		return view.WriteSections(os.Stdout, view.Info("Session",
			fmt.Sprintf("Signed in to %s as %s (%s).", identity.Tenant.Slug, identity.User.Email, identity.User.Role)))
	case flag(opts, "logout"):
		return a.logout(ctx, auth, gate)
	case flag(opts, "planning"):
		if err := a.guard(ctx, gate, planningPath, adminauth.RoleAdmin, adminauth.RoleReception, adminauth.RoleStaff); err != nil {
			return err
		}
		return a.runPlanning(ctx, opts, console)
	case flag(opts, "services"):
		if err := a.guard(ctx, gate, servicesPath, adminauth.RoleAdmin); err != nil {
			return err
		}
		return a.runServices(ctx, opts, console)
	case flag(opts, "staff"):
		if err := a.guard(ctx, gate, staffPath, adminauth.RoleAdmin); err != nil {
			return err
		}
		return a.runStaff(ctx, opts, console)
	}
	return errors.New("unknown admin command")
}

func flag(opts docopt.Opts, name string) bool {
	v, _ := opts.Bool(name)
	return v
}

func str(opts docopt.Opts, name string) string {
	v, _ := opts.String(name)
	return v
}

// login signs in with the password from the environment or the terminal.
// Cookies live in the transport's jar, so every command signs in again.
func (a *app) login(ctx context.Context, auth *adminauth.API, tenant, email string) (adminauth.Identity, error) {
	password, err := readPassword()
	if err != nil {
		return adminauth.Identity{}, err
	}
	form, err := validation.ParseLogin(tenant, email, password)
	if err != nil {
		return adminauth.Identity{}, err
	}
	login := session.NewLoginMutation(a.queries, auth, a.logger)
	identity, err := login.Run(ctx, adminauth.LoginRequest{
		TenantSlug: form.TenantSlug,
		Email:      form.Email,
		Password:   form.Password,
	})
	if err != nil {
		return adminauth.Identity{}, errors.New(view.ErrorMessage(err, "Sign-in failed.", view.ScopeAdmin))
	}
	a.logger.Debug().Str("tenant", identity.Tenant.Slug).Str("role", string(identity.User.Role)).Msg("Signed in.")
	return identity, nil
}

// logout ends the session and confirms the gate no longer lets it through.
func (a *app) logout(ctx context.Context, auth *adminauth.API, gate *session.Gate) error {
	if _, err := session.NewLogoutMutation(a.queries, auth, a.logger).Run(ctx, struct{}{}); err != nil {
		return errors.New(view.ErrorMessage(err, "Sign-out failed.", view.ScopeAdmin))
	}
	d := gate.Check(ctx, homePath)
	if d.Verdict != session.VerdictUnauthenticated {
		return fmt.Errorf("session still open after sign-out (%s)", d.Verdict)
	}
	return view.WriteSections(os.Stdout, view.Info("Session", "Signed out."))
}

func readPassword() (string, error) {
	if password := os.Getenv(envAdminPassword); password != "" {
		return password, nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("no terminal to prompt for a password; set %s", envAdminPassword)
	}
	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

// guard runs the session check for path and refuses roles outside allowed.
func (a *app) guard(ctx context.Context, gate *session.Gate, path string, allowed ...adminauth.Role) error {
	d := gate.Check(ctx, path)
	switch session.RequireRoles(d, allowed...) {
	case session.AccessGranted:
		return nil
	case session.AccessDenied:
		return fmt.Errorf("role %s cannot open %s", d.Identity.User.Role, path)
	case session.AccessPending:
		return fmt.Errorf("session check interrupted: %w", d.Err)
	}
	if d.Verdict == session.VerdictUnauthenticated {
		return fmt.Errorf("not signed in, log in again to open %s", d.From)
	}
	return errors.New(view.ErrorMessage(d.Err, "Could not verify your permissions.", view.ScopeAdmin))
}

func (a *app) runPlanning(ctx context.Context, opts docopt.Opts, console *view.AdminConsole) error {
	date := str(opts, "--date")
	if date == "" {
		date = time.Now().UTC().Format(time.DateOnly)
	}
	form := view.AppointmentForm{
		Date:      date,
		ServiceID: str(opts, "--service"),
		StaffID:   str(opts, "--staff"),
		StartAt:   str(opts, "--slot"),
		Phone:     str(opts, "--phone"),
		Name:      str(opts, "--name"),
		Note:      str(opts, "--note"),
	}

	switch {
	case flag(opts, "create"):
		resp, err := console.CreateAppointment(ctx, form)
		if err != nil {
			return actionError(err, "Could not create the appointment.")
		}
		a.logger.Info().Str("appointment_id", resp.AppointmentID).Str("status", resp.Status).Msg("Appointment created.")
	case flag(opts, "move"):
		resp, err := console.Reschedule(ctx, str(opts, "<appointment>"), form)
		if err != nil {
			return actionError(err, "Could not move the appointment.")
		}
		a.logger.Info().Str("appointment_id", resp.AppointmentID).Str("start_at", resp.StartAt).Msg("Appointment moved.")
	case str(opts, "--appointment") != "":
		status := planning.UpdatableStatus(str(opts, "--status"))
		if _, err := console.SetStatus(ctx, date, str(opts, "--appointment"), status); err != nil {
			return actionError(err, "Could not update the appointment.")
		}
	}

	day := settle(ctx, a, planning.DayQuery(planning.NewAPI(a.http), date))
	if !day.IsSuccess() {
		return view.WriteSections(os.Stdout, view.Read("Planning", day, view.ScopeAdmin, view.Texts{
			Error: "Could not load the planning.",
		}, func(planning.DayResponse) []string { return nil }))
	}
	return view.WriteBoard(os.Stdout, view.NewBoard(day.Data))
}

func serviceInput(opts docopt.Opts) validation.ServiceInput {
	return validation.ServiceInput{
		Name:                str(opts, "--name"),
		DurationMinutes:     str(opts, "--duration"),
		BufferBeforeMinutes: str(opts, "--buffer-before"),
		BufferAfterMinutes:  str(opts, "--buffer-after"),
		PriceCents:          str(opts, "--price"),
		DisplayOrder:        str(opts, "--order"),
	}
}

func (a *app) runServices(ctx context.Context, opts docopt.Opts, console *view.AdminConsole) error {
	var err error
	switch {
	case flag(opts, "create"):
		_, err = console.CreateService(ctx, serviceInput(opts))
	case flag(opts, "update"):
		_, err = console.UpdateService(ctx, str(opts, "<id>"), serviceInput(opts))
	case flag(opts, "archive"):
		err = console.ArchiveService(ctx, str(opts, "<id>"))
	}
	if err != nil {
		return actionError(err, "Could not save the service.")
	}
	return view.WriteSections(os.Stdout, view.CatalogSection(settle(ctx, a, catalog.ListQuery(catalog.NewAPI(a.http)))))
}

func staffInput(opts docopt.Opts) validation.StaffInput {
	var ids []string
	for _, id := range strings.Split(str(opts, "--services"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return validation.StaffInput{
		DisplayName:  str(opts, "--name"),
		DisplayOrder: str(opts, "--order"),
		ServiceIDs:   ids,
	}
}

func (a *app) runStaff(ctx context.Context, opts docopt.Opts, console *view.AdminConsole) error {
	var err error
	switch {
	case flag(opts, "create"):
		_, err = console.CreateStaff(ctx, staffInput(opts))
	case flag(opts, "update"):
		_, err = console.UpdateStaff(ctx, str(opts, "<id>"), staffInput(opts))
	case flag(opts, "archive"):
		err = console.ArchiveStaff(ctx, str(opts, "<id>"))
	}
	if err != nil {
		return actionError(err, "Could not save the staff member.")
	}
	return view.WriteSections(os.Stdout, view.StaffSection(settle(ctx, a, staff.ListQuery(staff.NewAPI(a.http)))))
}

// actionError keeps field and permission errors as they are and turns API
// failures into the message the screen would show.
func actionError(err error, fallback string) error {
	if _, ok := validation.AsErrors(err); ok || errors.Is(err, view.ErrForbidden) {
		return err
	}
	return errors.New(view.ErrorMessage(err, fallback, view.ScopeAdmin))
}

// settle waits for q and returns its settled state.
func settle[T any](ctx context.Context, a *app, q query.Query[T]) query.State[T] {
	q = withRetries(a, q)
	data, err := query.Get(ctx, a.queries, q)
	if err != nil {
		return query.State[T]{Key: q.Key, Status: query.StatusError, Err: err}
	}
	return query.State[T]{Key: q.Key, Status: query.StatusSuccess, Data: data, HasData: true, UpdatedAt: time.Now()}
}
