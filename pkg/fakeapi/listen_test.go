package fakeapi_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-booking/pkg/fakeapi"
)

func TestHTTPServer_StartAndShutdown(t *testing.T) {
	// Arrange
	srv := fakeapi.NewHTTPServer(fakeapi.New(nil, zerolog.Nop()), "127.0.0.1:0", zerolog.Nop())

	// Act
	require.NoError(t, srv.Start())
	resp, err := http.Get(srv.URL() + "/healthz")

	// Assert
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}
