package staff_test

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
	"github.com/illmade-knight/go-booking/pkg/fakeapi"
	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/illmade-knight/go-booking/pkg/staff"
	"github.com/illmade-knight/go-booking/pkg/transport"
	"github.com/illmade-knight/go-booking/pkg/validation"
)

func TestNewUpsertRequest_SendsEmptyServiceList(t *testing.T) {
	form, err := validation.ParseStaff(validation.StaffInput{DisplayName: " Kim ", DisplayOrder: "2"})
	require.NoError(t, err)

	raw, err := json.Marshal(staff.NewUpsertRequest(form))

	require.NoError(t, err)
	assert.JSONEq(t, `{"display_name":"Kim","display_order":2,"service_ids":[]}`, string(raw))
}

func TestMember(t *testing.T) {
	var m staff.Member
	require.NoError(t, json.Unmarshal([]byte(`{"id":"st2","user_id":null,"service_ids":["svc1"]}`), &m))
	assert.False(t, m.HasLogin())
	assert.True(t, m.Performs("svc1"))
	assert.False(t, m.Performs("svc2"))
}

func TestMutations_RefreshTheList(t *testing.T) {
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
	api := staff.NewAPI(tc)

	updates := make(chan staff.ListResponse, 16)
	h := query.Watch(c, staff.ListQuery(api), func(s query.State[staff.ListResponse]) {
		if s.IsSuccess() {
			updates <- s.Data
		}
	})
	defer h.Unsubscribe()
	initial := <-updates
	require.Len(t, initial.Active(), 2)

	// Act
	_, err = staff.NewUpdateMutation(c, api, zerolog.Nop()).Run(ctx, staff.UpdateInput{
		StaffID: "st2",
		Body:    staff.UpsertRequest{DisplayName: "Samira", DisplayOrder: 2, ServiceIDs: []string{"svc1", "svc2"}},
	})
	require.NoError(t, err)
	updated := <-updates
	_, err = staff.NewArchiveMutation(c, api, zerolog.Nop()).Run(ctx, "st1")
	require.NoError(t, err)
	archived := <-updates

	// Assert
	assert.Equal(t, "Samira", updated.Staff[1].DisplayName)
	assert.True(t, updated.Staff[1].Performs("svc2"))
	active := archived.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "st2", active[0].ID)
}
