package fakeapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-booking/pkg/adminauth"
	"github.com/illmade-knight/go-booking/pkg/booking"
	"github.com/illmade-knight/go-booking/pkg/catalog"
	"github.com/illmade-knight/go-booking/pkg/fakeapi"
	"github.com/illmade-knight/go-booking/pkg/planning"
	"github.com/illmade-knight/go-booking/pkg/staff"
	"github.com/illmade-knight/go-booking/pkg/transport"
)

func setup(t *testing.T) (*fakeapi.Server, *httptest.Server, *transport.Client) {
	t.Helper()
	fake := fakeapi.New(nil, zerolog.Nop())
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	client, err := transport.New(&transport.Config{BaseURL: srv.URL}, zerolog.Nop())
	require.NoError(t, err)
	return fake, srv, client
}

func login(t *testing.T, client *transport.Client, email string) adminauth.Identity {
	t.Helper()
	id, err := adminauth.NewAPI(client).Login(context.Background(), adminauth.LoginRequest{
		TenantSlug: "demo", Email: email, Password: fakeapi.DemoPassword,
	})
	require.NoError(t, err)
	return id
}

func TestPublicCatalog(t *testing.T) {
	ctx := context.Background()
	_, _, client := setup(t)
	api := booking.NewAPI(client)

	t.Run("Tenant lookup", func(t *testing.T) {
		resp, err := api.GetTenant(ctx, "demo")
		require.NoError(t, err)
		assert.Equal(t, "Demo Salon", resp.Tenant.Name)
		assert.Equal(t, "Europe/Paris", resp.Tenant.TimezoneOr("UTC"))
	})

	t.Run("Unknown tenant is a 404", func(t *testing.T) {
		_, err := api.GetTenant(ctx, "nope")
		apiErr, ok := transport.AsApiError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.Equal(t, "TENANT_NOT_FOUND", apiErr.Code)
	})

	t.Run("Services are ordered and unpriced ones read as zero", func(t *testing.T) {
		resp, err := api.ListServices(ctx, "demo")
		require.NoError(t, err)
		require.Len(t, resp.Services, 2)
		assert.Equal(t, "svc1", resp.Services[0].ID)
		assert.Equal(t, 2500, resp.Services[0].PriceCents)
		assert.Equal(t, 0, resp.Services[1].PriceCents)
	})

	t.Run("Slots cover opening hours", func(t *testing.T) {
		resp, err := api.GetSlots(ctx, booking.SlotsRequest{Slug: "demo", ServiceID: "svc1", Date: "2024-05-01"})
		require.NoError(t, err)
		require.Len(t, resp.Slots, 16)
		assert.Equal(t, "2024-05-01T09:00:00Z", resp.Slots[0].StartAt)
		assert.Equal(t, "2024-05-01T16:30:00Z", resp.Slots[15].StartAt)
		assert.Nil(t, resp.StaffID)
		assert.Equal(t, 30, resp.SlotStepMinutes)
	})

	t.Run("Missing date is a 400", func(t *testing.T) {
		_, err := transport.Get[booking.SlotsResponse](ctx, client, "/api/v1/public/demo/slots",
			transport.Param("service_id", "svc1"))
		assert.True(t, transport.IsStatus(err, http.StatusBadRequest))
	})
}

func TestCreatePublicAppointment(t *testing.T) {
	ctx := context.Background()
	body := booking.CreateAppointmentRequest{
		ServiceID: "svc1",
		StartAt:   "2024-05-01T09:00:00Z",
		Customer:  booking.Customer{Phone: "+33 6 12 34 56 78"},
	}

	t.Run("Replaying a key returns the first response", func(t *testing.T) {
		// Arrange
		fake, _, client := setup(t)
		api := booking.NewAPI(client)

		// Act
		first, err := api.CreateAppointment(ctx, "demo", "key-1", body)
		require.NoError(t, err)
		second, err := api.CreateAppointment(ctx, "demo", "key-1", body)
		require.NoError(t, err)

		// Assert
		assert.Equal(t, first, second)
		assert.Equal(t, planning.StatusPendingConfirmation, first.Status)
		assert.Len(t, fake.Appointments("demo"), 1)
	})

	t.Run("A slot is taken once every candidate is busy", func(t *testing.T) {
		// Arrange
		fake, _, client := setup(t)
		api := booking.NewAPI(client)

		// Act
		_, errA := api.CreateAppointment(ctx, "demo", "key-a", body)
		_, errB := api.CreateAppointment(ctx, "demo", "key-b", body)
		_, errC := api.CreateAppointment(ctx, "demo", "key-c", body)

		// Assert
		require.NoError(t, errA)
		require.NoError(t, errB)
		apiErr, ok := transport.AsApiError(errC)
		require.True(t, ok)
		assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
		assert.Equal(t, "SLOT_UNAVAILABLE", apiErr.Code)

		assigned := map[string]bool{}
		for _, a := range fake.Appointments("demo") {
			assigned[*a.StaffID] = true
		}
		assert.Equal(t, map[string]bool{"st1": true, "st2": true}, assigned)

		slots, err := api.GetSlots(ctx, booking.SlotsRequest{Slug: "demo", ServiceID: "svc1", Date: "2024-05-01"})
		require.NoError(t, err)
		assert.Equal(t, "2024-05-01T09:30:00Z", slots.Slots[0].StartAt)
	})

	t.Run("Missing key is rejected", func(t *testing.T) {
		_, srv, _ := setup(t)
		resp, err := http.Post(srv.URL+"/api/v1/public/demo/appointments", "application/json",
			strings.NewReader(`{"service_id":"svc1","start_at":"2024-05-01T09:00:00Z","customer":{"phone":"0600000000"}}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Missing phone is a validation error", func(t *testing.T) {
		_, _, client := setup(t)
		noPhone := body
		noPhone.Customer = booking.Customer{}
		_, err := booking.NewAPI(client).CreateAppointment(ctx, "demo", "key-x", noPhone)
		apiErr, ok := transport.AsApiError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
		assert.Equal(t, "customer.phone", apiErr.Details["field"])
	})
}

func TestAdminSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Bad password", func(t *testing.T) {
		_, _, client := setup(t)
		_, err := adminauth.NewAPI(client).Login(ctx, adminauth.LoginRequest{
			TenantSlug: "demo", Email: fakeapi.DemoAdminEmail, Password: "wrong",
		})
		apiErr, ok := transport.AsApiError(err)
		require.True(t, ok)
		assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
	})

	t.Run("Login, me and logout", func(t *testing.T) {
		// Arrange
		_, _, client := setup(t)
		api := adminauth.NewAPI(client)

		// Act
		id := login(t, client, fakeapi.DemoReceptionEmail)
		me, meErr := api.Me(ctx)
		out, logoutErr := api.Logout(ctx)
		_, afterErr := api.Me(ctx)

		// Assert
		assert.Equal(t, adminauth.RoleReception, id.User.Role)
		assert.Equal(t, "demo", id.Tenant.Slug)
		require.NoError(t, meErr)
		assert.Equal(t, id, me)
		require.NoError(t, logoutErr)
		assert.Equal(t, "logged_out", out.Status)
		assert.True(t, transport.IsStatus(afterErr, http.StatusUnauthorized))
	})

	t.Run("Roles are enforced", func(t *testing.T) {
		_, _, client := setup(t)
		login(t, client, fakeapi.DemoReceptionEmail)
		_, err := catalog.NewAPI(client).List(ctx)
		assert.True(t, transport.IsStatus(err, http.StatusForbidden))
	})
}

func TestPlanning(t *testing.T) {
	ctx := context.Background()

	t.Run("Status changes follow the transition table", func(t *testing.T) {
		// Arrange
		fake, _, client := setup(t)
		staffID := "st1"
		require.NoError(t, fake.AddAppointment("demo", planning.Appointment{
			ID: "apt_1", StaffID: &staffID, ServiceID: "svc1", ServiceName: "Haircut",
			StartAt: "2024-05-01T10:00:00Z", EndAt: "2024-05-01T10:30:00Z",
			Status: planning.StatusPendingConfirmation,
		}))
		login(t, client, fakeapi.DemoAdminEmail)
		api := planning.NewAPI(client)

		// Act
		_, skipErr := api.UpdateStatus(ctx, "apt_1", planning.UpdateCompleted)
		confirmed, err := api.UpdateStatus(ctx, "apt_1", planning.UpdateConfirmed)
		day, dayErr := api.GetDay(ctx, "2024-05-01")

		// Assert
		assert.True(t, transport.IsStatus(skipErr, http.StatusConflict))
		require.NoError(t, err)
		assert.Equal(t, planning.StatusConfirmed, confirmed.Status)
		require.NoError(t, dayErr)
		assert.Equal(t, adminauth.RoleAdmin, day.ViewerRole)
		assert.Len(t, day.Staff, 2)
		got, ok := day.Find("apt_1")
		require.True(t, ok)
		assert.Equal(t, planning.StatusConfirmed, got.Status)
	})

	t.Run("Reschedule moves the appointment", func(t *testing.T) {
		fake, _, client := setup(t)
		login(t, client, fakeapi.DemoAdminEmail)
		api := planning.NewAPI(client)
		created, err := api.CreateAppointment(ctx, "admin-key", booking.CreateAppointmentRequest{
			ServiceID: "svc2", StartAt: "2024-05-01T09:00:00Z", Customer: booking.Customer{Phone: "0600000000"},
		})
		require.NoError(t, err)
		assert.Equal(t, planning.StatusConfirmed, created.Status)

		moved, err := api.UpdateAppointment(ctx, created.AppointmentID, planning.UpdateAppointmentRequest{
			ServiceID: "svc1", StartAt: "2024-05-01T11:00:00Z", StaffID: "st2",
		})

		require.NoError(t, err)
		assert.Equal(t, "2024-05-01T11:30:00Z", moved.EndAt)
		require.NotNil(t, moved.StaffID)
		assert.Equal(t, "st2", *moved.StaffID)
		assert.Equal(t, "2024-05-01T11:00:00Z", fake.Appointments("demo")[0].StartAt)
	})

	t.Run("Staff users see their own column", func(t *testing.T) {
		_, _, client := setup(t)
		login(t, client, fakeapi.DemoStaffEmail)
		day, err := planning.NewAPI(client).GetDay(ctx, "2024-05-01")
		require.NoError(t, err)
		require.Len(t, day.Staff, 1)
		assert.Equal(t, "st1", day.Staff[0].ID)
	})
}

func TestCatalogAndStaff(t *testing.T) {
	ctx := context.Background()
	_, _, client := setup(t)
	login(t, client, fakeapi.DemoAdminEmail)
	services := catalog.NewAPI(client)
	members := staff.NewAPI(client)

	created, err := services.Create(ctx, catalog.UpsertServiceRequest{
		Name: "Beard", DurationMinutes: 15, PriceCents: catalog.Price(nil), DisplayOrder: 3,
	})
	require.NoError(t, err)
	require.NoError(t, services.Archive(ctx, "svc2"))

	list, err := services.List(ctx)
	require.NoError(t, err)
	require.Len(t, list.Services, 3)
	assert.False(t, list.Services[1].IsActive)
	assert.Equal(t, created.ServiceID, list.Services[2].ID)
	_, priced := list.Services[2].Price()
	assert.False(t, priced)

	_, err = services.Create(ctx, catalog.UpsertServiceRequest{Name: "", DurationMinutes: 15})
	assert.True(t, transport.IsStatus(err, http.StatusUnprocessableEntity))

	member, err := members.Create(ctx, staff.UpsertRequest{DisplayName: "Kim", DisplayOrder: 3, ServiceIDs: []string{"svc1"}})
	require.NoError(t, err)
	require.NoError(t, members.Archive(ctx, "st2"))
	roster, err := members.List(ctx)
	require.NoError(t, err)
	active := roster.Active()
	require.Len(t, active, 2)
	assert.Equal(t, member.StaffID, active[1].ID)
	assert.False(t, active[1].HasLogin())
}

func TestHitsAndFaults(t *testing.T) {
	ctx := context.Background()
	fake, _, client := setup(t)
	api := booking.NewAPI(client)

	fake.FailNext(http.MethodGet, "/api/v1/public/demo/services", http.StatusServiceUnavailable, "UNAVAILABLE", "Down.")
	_, err := api.ListServices(ctx, "demo")
	assert.True(t, transport.IsStatus(err, http.StatusServiceUnavailable))

	_, err = api.ListServices(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Hits(http.MethodGet, "/api/v1/public/{slug}/services"))
}
