package transport_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/illmade-knight/go-booking/pkg/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	method  string
	uri     string
	headers http.Header
	body    string
}

// newTestServer answers every request with the given status and body and
// records what it received.
func newTestServer(t *testing.T, status int, body string) (*transport.Client, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		captured.method = r.Method
		captured.uri = r.URL.RequestURI()
		captured.headers = r.Header.Clone()
		captured.body = string(raw)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := transport.New(&transport.Config{BaseURL: srv.URL}, zerolog.Nop())
	require.NoError(t, err)
	return client, captured
}

func TestClient_Request_QueryAndHeaders(t *testing.T) {
	ctx := context.Background()

	t.Run("Absent query params are omitted and order is kept", func(t *testing.T) {
		// Arrange
		client, captured := newTestServer(t, http.StatusOK, `{"slots":[]}`)

		// Act
		_, err := transport.Get[map[string]any](ctx, client, "/api/v1/public/demo/slots",
			transport.Param("service_id", "svc1"),
			transport.Param("date", "2024-05-01"),
			transport.OptionalParam("staff_id", ""),
		)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "/api/v1/public/demo/slots?service_id=svc1&date=2024-05-01", captured.uri)
	})

	t.Run("GET sends Accept but no Content-Type", func(t *testing.T) {
		client, captured := newTestServer(t, http.StatusOK, `{}`)

		_, err := transport.Get[map[string]any](ctx, client, "/api/v1/admin/auth/me")

		require.NoError(t, err)
		assert.Equal(t, "application/json", captured.headers.Get("Accept"))
		assert.Empty(t, captured.headers.Get("Content-Type"))
		assert.Empty(t, captured.body)
	})

	t.Run("POST encodes the body and merges caller headers", func(t *testing.T) {
		client, captured := newTestServer(t, http.StatusCreated, `{"appointment_id":"apt_1"}`)

		out, err := transport.Post[map[string]string](ctx, client, "/api/v1/public/demo/appointments",
			map[string]string{"service_id": "svc1"},
			map[string]string{"Idempotency-Key": "k-1", "Accept": "application/problem+json"},
		)

		require.NoError(t, err)
		assert.Equal(t, "apt_1", out["appointment_id"])
		assert.Equal(t, http.MethodPost, captured.method)
		assert.JSONEq(t, `{"service_id":"svc1"}`, captured.body)
		assert.Equal(t, "application/json", captured.headers.Get("Content-Type"))
		assert.Equal(t, "k-1", captured.headers.Get("Idempotency-Key"))
		assert.Equal(t, "application/problem+json", captured.headers.Get("Accept"), "caller headers win on conflict")
	})
}

func TestClient_Request_Responses(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty 2xx body resolves without error", func(t *testing.T) {
		client, _ := newTestServer(t, http.StatusNoContent, "")

		err := transport.Delete(ctx, client, "/api/v1/admin/staff/st_1")

		require.NoError(t, err)
	})

	t.Run("Unparseable 2xx body is treated as null", func(t *testing.T) {
		client, _ := newTestServer(t, http.StatusOK, "<html>ok</html>")

		out, err := transport.Get[map[string]any](ctx, client, "/x")

		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("Error body fields are mapped onto ApiError", func(t *testing.T) {
		client, _ := newTestServer(t, http.StatusConflict,
			`{"error":{"code":"SLOT_TAKEN","message":"Slot no longer available.","details":{"start_at":"2024-05-01T09:00:00Z"}}}`)

		_, err := transport.Get[map[string]any](ctx, client, "/x")

		apiErr, ok := transport.AsApiError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
		assert.Equal(t, "SLOT_TAKEN", apiErr.Code)
		assert.Equal(t, "Slot no longer available.", apiErr.Message)
		assert.Equal(t, "2024-05-01T09:00:00Z", apiErr.Details["start_at"])
		assert.False(t, transport.IsNetworkError(err))
	})

	t.Run("Missing or unparseable error body falls back to defaults", func(t *testing.T) {
		for _, body := range []string{"", "not json", `{"error":{}}`, `null`} {
			client, _ := newTestServer(t, http.StatusBadGateway, body)

			_, err := transport.Get[map[string]any](ctx, client, "/x")

			apiErr, ok := transport.AsApiError(err)
			require.True(t, ok, "body %q", body)
			assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
			assert.Equal(t, transport.DefaultErrorCode, apiErr.Code)
			assert.Equal(t, transport.DefaultErrorMessage, apiErr.Message)
			assert.NotNil(t, apiErr.Details)
			assert.Empty(t, apiErr.Details)
		}
	})

	t.Run("IsStatus matches the HTTP status", func(t *testing.T) {
		client, _ := newTestServer(t, http.StatusUnauthorized, `{"error":{"code":"UNAUTHENTICATED","message":"Login required."}}`)

		_, err := transport.Get[map[string]any](ctx, client, "/api/v1/admin/auth/me")

		assert.True(t, transport.IsStatus(err, http.StatusUnauthorized))
		assert.False(t, transport.IsStatus(err, http.StatusNotFound))
	})
}

func TestClient_Request_NetworkError(t *testing.T) {
	// Arrange: a server that is closed before the call.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := transport.New(&transport.Config{BaseURL: url}, zerolog.Nop())
	require.NoError(t, err)

	// Act
	_, err = transport.Get[map[string]any](context.Background(), client, "/api/v1/public/demo")

	// Assert
	require.Error(t, err)
	assert.True(t, transport.IsNetworkError(err))
	_, isAPI := transport.AsApiError(err)
	assert.False(t, isAPI, "a network failure must not look like a server answer")
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := transport.New(nil, zerolog.Nop())
	require.Error(t, err)
}
