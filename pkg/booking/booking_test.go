package booking_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-booking/pkg/booking"
	"github.com/illmade-knight/go-booking/pkg/idempotency"
	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/illmade-knight/go-booking/pkg/transport"
	"github.com/illmade-knight/go-booking/pkg/validation"
)

type posted struct {
	mu     sync.Mutex
	body   string
	key    string
	slotsN int
}

func newBackend(t *testing.T) (*booking.API, *posted) {
	t.Helper()
	got := &posted{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/public/demo/slots", func(w http.ResponseWriter, r *http.Request) {
		got.mu.Lock()
		got.slotsN++
		got.mu.Unlock()
		assert.Equal(t, "service_id=svc1&date=2024-05-01", r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"date":"2024-05-01","service_id":"svc1","staff_id":null,"slot_step_minutes":30,"slots":[{"start_at":"2024-05-01T09:00:00Z"}]}`))
	})
	mux.HandleFunc("POST /api/v1/public/demo/appointments", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		got.mu.Lock()
		got.body = string(raw)
		got.key = r.Header.Get(idempotency.Header)
		got.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"appointment_id":"apt_9","status":"PENDING_CONFIRMATION"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	tc, err := transport.New(&transport.Config{BaseURL: srv.URL}, zerolog.Nop())
	require.NoError(t, err)
	return booking.NewAPI(tc), got
}

func TestBookingFlow_SubmitsMinimalBody(t *testing.T) {
	// Arrange
	ctx := context.Background()
	api, got := newBackend(t)
	c := query.New(&query.Config{RetryDelay: time.Millisecond}, nil, nil, zerolog.Nop())
	defer c.Close()

	req := booking.SlotsRequest{Slug: "demo", ServiceID: "svc1", Date: "2024-05-01"}
	slots, err := query.Get(ctx, c, booking.SlotsQuery(api, req))
	require.NoError(t, err)
	require.Len(t, slots.Slots, 1)

	customer, err := validation.ParseCustomer("0600000000", "", "")
	require.NoError(t, err)
	submission := idempotency.NewSubmission()
	create := booking.NewCreateAppointmentMutation(c, api, zerolog.Nop())

	// Act
	resp, err := create.Run(ctx, booking.CreateAppointmentInput{
		Slug:           "demo",
		IdempotencyKey: submission.Key(),
		Body:           booking.NewAppointmentRequest("svc1", slots.Slots[0].StartAt, "", customer),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "apt_9", resp.AppointmentID)
	got.mu.Lock()
	defer got.mu.Unlock()
	assert.JSONEq(t, `{"service_id":"svc1","start_at":"2024-05-01T09:00:00Z","customer":{"phone":"0600000000"}}`, got.body)
	assert.Len(t, got.key, 36)
	assert.Equal(t, submission.Key(), got.key)
}

func TestCreateAppointment_InvalidatesTenantSlots(t *testing.T) {
	// Arrange
	ctx := context.Background()
	api, got := newBackend(t)
	c := query.New(&query.Config{RetryDelay: time.Millisecond}, nil, nil, zerolog.Nop())
	defer c.Close()

	req := booking.SlotsRequest{Slug: "demo", ServiceID: "svc1", Date: "2024-05-01"}
	h := query.Watch(c, booking.SlotsQuery(api, req), func(query.State[booking.SlotsResponse]) {})
	defer h.Unsubscribe()
	require.Eventually(t, func() bool { return h.Entry().Status == query.StatusSuccess }, 2*time.Second, 5*time.Millisecond)

	// Act
	_, err := booking.NewCreateAppointmentMutation(c, api, zerolog.Nop()).Run(ctx, booking.CreateAppointmentInput{
		Slug:           "demo",
		IdempotencyKey: idempotency.NewKey(),
		Body:           booking.CreateAppointmentRequest{ServiceID: "svc1", StartAt: "2024-05-01T09:00:00Z", Customer: booking.Customer{Phone: "0600000000"}},
	})

	// Assert
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		got.mu.Lock()
		defer got.mu.Unlock()
		return got.slotsN == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCreateAppointment_RequiresKey(t *testing.T) {
	api, _ := newBackend(t)
	_, err := api.CreateAppointment(context.Background(), "demo", "", booking.CreateAppointmentRequest{})
	assert.Error(t, err)
}

func TestSlotsQuery_DisabledUntilReady(t *testing.T) {
	api, _ := newBackend(t)
	q := booking.SlotsQuery(api, booking.SlotsRequest{Slug: "demo", ServiceID: "svc1"})
	assert.False(t, q.Options.Enabled)
	assert.Equal(t, query.Key{"slots", "demo", "svc1", "", nil}, q.Key)
}
