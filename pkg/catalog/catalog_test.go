package catalog_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-booking/pkg/adminauth"
	"github.com/illmade-knight/go-booking/pkg/catalog"
	"github.com/illmade-knight/go-booking/pkg/fakeapi"
	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/illmade-knight/go-booking/pkg/transport"
	"github.com/illmade-knight/go-booking/pkg/validation"
)

func TestNewUpsertRequest_PriceIsAlwaysSent(t *testing.T) {
	testCases := []struct {
		name  string
		price string
		want  string
	}{
		{"Empty price is null", "", `null`},
		{"Zero price is kept", "0", `0`},
		{"Price in cents", "2500", `2500`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			form, err := validation.ParseService(validation.ServiceInput{Name: "Haircut", DurationMinutes: "30", PriceCents: tc.price})
			require.NoError(t, err)

			raw, err := json.Marshal(catalog.NewUpsertRequest(form))
			require.NoError(t, err)

			var fields map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(raw, &fields))
			require.Contains(t, fields, "price_cents")
			assert.JSONEq(t, tc.want, string(fields["price_cents"]))
		})
	}
}

func TestService_Price(t *testing.T) {
	var s catalog.Service
	require.NoError(t, json.Unmarshal([]byte(`{"id":"svc2","price_cents":null}`), &s))
	_, ok := s.Price()
	assert.False(t, ok)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"svc1","price_cents":1500}`), &s))
	price, ok := s.Price()
	assert.True(t, ok)
	assert.Equal(t, 1500, price)
}

func TestMutations_RefreshTheCatalog(t *testing.T) {
	// Arrange
	ctx := context.Background()
	srv := httptest.NewServer(fakeapi.New(nil, zerolog.Nop()).Handler())
	defer srv.Close()
	tc, err := transport.New(&transport.Config{BaseURL: srv.URL}, zerolog.Nop())
	require.NoError(t, err)
	_, err = adminauth.NewAPI(tc).Login(ctx, adminauth.LoginRequest{
		TenantSlug: "demo", Email: fakeapi.DemoAdminEmail, Password: fakeapi.DemoPassword,
	})
	require.NoError(t, err)

	c := query.New(&query.Config{RetryDelay: time.Millisecond}, nil, nil, zerolog.Nop())
	defer c.Close()
	api := catalog.NewAPI(tc)

	var latest catalog.ServicesResponse
	done := make(chan struct{}, 16)
	h := query.Watch(c, catalog.ListQuery(api), func(s query.State[catalog.ServicesResponse]) {
		if s.IsSuccess() {
			latest = s.Data
			done <- struct{}{}
		}
	})
	defer h.Unsubscribe()
	<-done
	require.Len(t, latest.Services, 2)

	// Act
	created, err := catalog.NewCreateMutation(c, api, zerolog.Nop()).Run(ctx, catalog.UpsertServiceRequest{
		Name: "Beard trim", DurationMinutes: 15, PriceCents: catalog.Price(nil), DisplayOrder: 3,
	})
	require.NoError(t, err)
	<-done

	// Assert
	require.Len(t, latest.Services, 3)
	assert.Equal(t, created.ServiceID, latest.Services[2].ID)

	_, err = catalog.NewArchiveMutation(c, api, zerolog.Nop()).Run(ctx, "svc1")
	require.NoError(t, err)
	<-done
	assert.False(t, latest.Services[0].IsActive)
}
