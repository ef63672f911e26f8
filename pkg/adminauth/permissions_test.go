package adminauth_test

import (
	"testing"

	"github.com/illmade-knight/go-booking/pkg/adminauth"
	"github.com/stretchr/testify/assert"
)

func TestPermissions(t *testing.T) {
	testCases := []struct {
		role       adminauth.Role
		planning   bool
		services   bool
		staff      bool
		changeAppt bool
	}{
		{adminauth.RoleAdmin, true, true, true, true},
		{adminauth.RoleReception, true, false, false, true},
		{adminauth.RoleStaff, true, false, false, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.role), func(t *testing.T) {
			assert.True(t, tc.role.Valid())
			assert.Equal(t, tc.planning, adminauth.CanViewPlanning(tc.role))
			assert.Equal(t, tc.services, adminauth.CanManageServices(tc.role))
			assert.Equal(t, tc.staff, adminauth.CanManageStaff(tc.role))
			assert.Equal(t, tc.changeAppt, adminauth.CanChangeAppointments(tc.role))
		})
	}

	assert.False(t, adminauth.Role("OWNER").Valid())
}
