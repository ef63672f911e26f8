package view_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-booking/pkg/booking"
	"github.com/illmade-knight/go-booking/pkg/idempotency"
	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/illmade-knight/go-booking/pkg/transport"
	"github.com/illmade-knight/go-booking/pkg/validation"
	"github.com/illmade-knight/go-booking/pkg/view"
)

type mockRequester struct {
	mock.Mock

	mu    sync.Mutex
	posts []*transport.RequestOptions
}

func (m *mockRequester) Request(_ context.Context, method, path string, opts *transport.RequestOptions, out any) error {
	if method == http.MethodPost {
		m.mu.Lock()
		m.posts = append(m.posts, opts)
		m.mu.Unlock()
	}
	args := m.Called(method, path)
	if body := args.Get(0); body != nil && out != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return err
		}
	}
	return args.Error(1)
}

func (m *mockRequester) postedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.posts))
	for _, opts := range m.posts {
		keys = append(keys, opts.Headers[idempotency.Header])
	}
	return keys
}

func newFlow(t *testing.T, r *mockRequester, opts ...view.FlowOption) *view.BookingFlow {
	t.Helper()
	tz := "Europe/Paris"
	r.On("Request", http.MethodGet, "/api/v1/public/demo").
		Return(booking.TenantResponse{Tenant: booking.Tenant{Slug: "demo", Name: "Demo Salon", Timezone: &tz, Status: "ACTIVE"}}, nil)
	r.On("Request", http.MethodGet, "/api/v1/public/demo/services").
		Return(booking.ServicesResponse{Services: []booking.Service{{ID: "svc1", Name: "Haircut", DurationMinutes: 30}}}, nil)
	r.On("Request", http.MethodGet, "/api/v1/public/demo/slots").
		Return(booking.SlotsResponse{Date: "2024-05-01", ServiceID: "svc1", Slots: []booking.Slot{{StartAt: "2024-05-01T09:00:00Z"}, {StartAt: "2024-05-01T10:00:00Z"}}}, nil)

	c := query.New(&query.Config{RetryDelay: time.Millisecond}, nil, nil, zerolog.Nop())
	t.Cleanup(func() { _ = c.Close() })
	f := view.NewBookingFlow(c, booking.NewAPI(r), "demo", "2024-05-01", nil, zerolog.Nop(), opts...)
	t.Cleanup(f.Close)
	return f
}

func sectionTone(f *view.BookingFlow, title string) view.Tone {
	for _, s := range f.Sections() {
		if s.Title == title {
			return s.Tone
		}
	}
	return ""
}

func waitSlots(t *testing.T, f *view.BookingFlow) {
	t.Helper()
	require.Eventually(t, func() bool { return sectionTone(f, "Slots") == view.ToneSuccess }, 2*time.Second, 5*time.Millisecond)
}

func TestBookingFlow_Selection(t *testing.T) {
	// Arrange
	r := &mockRequester{}
	f := newFlow(t, r)
	require.Eventually(t, func() bool { return sectionTone(f, "Tenant") == view.ToneSuccess }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, view.ToneEmpty, sectionTone(f, "Slots"))

	// Act
	f.SelectService("svc1")
	waitSlots(t, f)
	require.NoError(t, f.SelectSlot("2024-05-01T09:00:00Z"))
	canSubmitBefore := f.CanSubmit()
	f.SelectDate("2024-05-02")

	// Assert
	assert.True(t, canSubmitBefore)
	assert.False(t, f.CanSubmit())
	assert.Error(t, f.SelectSlot("2024-05-01T11:00:00Z"))
	_, err := f.Submit(context.Background(), "0600000000", "", "")
	assert.ErrorIs(t, err, view.ErrSelectionIncomplete)
}

func TestBookingFlow_RetryCount(t *testing.T) {
	unavailable := &transport.ApiError{StatusCode: http.StatusServiceUnavailable, Code: "UNAVAILABLE", Message: "Try again."}

	t.Run("Reads are retried", func(t *testing.T) {
		r := &mockRequester{}
		r.On("Request", http.MethodGet, "/api/v1/public/demo").Return(nil, unavailable).Once()

		f := newFlow(t, r, view.WithRetryCount(1))

		require.Eventually(t, func() bool { return sectionTone(f, "Tenant") == view.ToneSuccess }, 2*time.Second, 5*time.Millisecond)
	})

	t.Run("Without retries the first failure shows", func(t *testing.T) {
		r := &mockRequester{}
		r.On("Request", http.MethodGet, "/api/v1/public/demo").Return(nil, unavailable).Once()

		f := newFlow(t, r)

		require.Eventually(t, func() bool { return sectionTone(f, "Tenant") == view.ToneError }, 2*time.Second, 5*time.Millisecond)
	})
}

func TestBookingFlow_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("Invalid form never reaches the network", func(t *testing.T) {
		r := &mockRequester{}
		f := newFlow(t, r)
		f.SelectService("svc1")
		waitSlots(t, f)
		require.NoError(t, f.SelectSlot("2024-05-01T09:00:00Z"))

		_, err := f.Submit(ctx, "", "Ana", "")

		errs, ok := validation.AsErrors(err)
		require.True(t, ok)
		assert.NotEmpty(t, errs.Field("phone"))
		assert.Empty(t, r.postedKeys())
	})

	t.Run("A retried submit reuses its key", func(t *testing.T) {
		// Arrange
		r := &mockRequester{}
		r.On("Request", http.MethodPost, "/api/v1/public/demo/appointments").
			Return(nil, &transport.ApiError{StatusCode: http.StatusServiceUnavailable, Code: "UNAVAILABLE", Message: "Try again."}).Once()
		r.On("Request", http.MethodPost, "/api/v1/public/demo/appointments").
			Return(booking.CreateAppointmentResponse{AppointmentID: "apt_1", Status: "PENDING_CONFIRMATION"}, nil)
		f := newFlow(t, r)
		f.SelectService("svc1")
		waitSlots(t, f)
		require.NoError(t, f.SelectSlot("2024-05-01T09:00:00Z"))

		// Act
		_, firstErr := f.Submit(ctx, "0600000000", "", "")
		failedTone := sectionTone(f, "Customer")
		resp, secondErr := f.Submit(ctx, "0600000000", "", "")
		waitSlots(t, f)
		require.NoError(t, f.SelectSlot("2024-05-01T09:00:00Z"))
		_, thirdErr := f.Submit(ctx, "0600000000", "", "")

		// Assert
		require.Error(t, firstErr)
		assert.Equal(t, view.ToneError, failedTone)
		require.NoError(t, secondErr)
		require.NoError(t, thirdErr)
		assert.Equal(t, "apt_1", resp.AppointmentID)

		keys := r.postedKeys()
		require.Len(t, keys, 3)
		assert.Len(t, keys[0], 36)
		assert.Equal(t, keys[0], keys[1])
		assert.NotEqual(t, keys[1], keys[2])
		r.AssertExpectations(t)
	})

	t.Run("Another slot gets a new key", func(t *testing.T) {
		// Arrange
		r := &mockRequester{}
		r.On("Request", http.MethodPost, "/api/v1/public/demo/appointments").
			Return(nil, &transport.ApiError{StatusCode: http.StatusConflict, Code: "SLOT_UNAVAILABLE", Message: "This slot is no longer available."}).Twice()
		r.On("Request", http.MethodPost, "/api/v1/public/demo/appointments").
			Return(booking.CreateAppointmentResponse{AppointmentID: "apt_2", Status: "PENDING_CONFIRMATION"}, nil)
		f := newFlow(t, r)
		f.SelectService("svc1")
		waitSlots(t, f)
		require.NoError(t, f.SelectSlot("2024-05-01T09:00:00Z"))
		_, taken := f.Submit(ctx, "0600000000", "", "")
		require.Error(t, taken)

		// Act
		require.NoError(t, f.SelectSlot("2024-05-01T09:00:00Z"))
		_, again := f.Submit(ctx, "0600000000", "", "")
		require.NoError(t, f.SelectSlot("2024-05-01T10:00:00Z"))
		resp, err := f.Submit(ctx, "0600000000", "", "")

		// Assert
		require.Error(t, again)
		require.NoError(t, err)
		assert.Equal(t, "apt_2", resp.AppointmentID)
		keys := r.postedKeys()
		require.Len(t, keys, 3)
		assert.Equal(t, keys[0], keys[1], "reselecting the same slot keeps the key")
		assert.NotEqual(t, keys[1], keys[2])
		assert.Len(t, keys[2], 36)
	})
}
