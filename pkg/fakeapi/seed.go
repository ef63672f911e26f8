package fakeapi

import (
	"fmt"

	"github.com/oapi-codegen/nullable"

	"github.com/illmade-knight/go-booking/pkg/adminauth"
	"github.com/illmade-knight/go-booking/pkg/catalog"
	"github.com/illmade-knight/go-booking/pkg/planning"
	"github.com/illmade-knight/go-booking/pkg/staff"
)

// DemoPassword is the password of every seeded demo user.
const DemoPassword = "demo-password"

// Demo user emails, one per role.
const (
	DemoAdminEmail     = "admin@demo.test"
	DemoReceptionEmail = "reception@demo.test"
	DemoStaffEmail     = "staff@demo.test"
)

func (s *Server) seedDemo() {
	tz := "Europe/Paris"
	s.tenants["demo"] = &tenant{
		ID:       "ten_demo",
		Slug:     "demo",
		Name:     "Demo Salon",
		Timezone: &tz,
		Status:   "ACTIVE",
		Policies: map[string]any{"cancellation_notice_hours": 24},
		Services: []catalog.Service{
			{ID: "svc1", Name: "Haircut", DurationMinutes: 30, BufferAfterMinutes: 0,
				PriceCents: nullable.NewNullableWithValue(2500), IsActive: true, DisplayOrder: 1},
			{ID: "svc2", Name: "Colour", DurationMinutes: 60, BufferBeforeMinutes: 0, BufferAfterMinutes: 15,
				PriceCents: nullable.NewNullNullable[int](), IsActive: true, DisplayOrder: 2},
		},
		Staff: []staff.Member{
			{ID: "st1", DisplayName: "Alex", UserID: nullable.NewNullableWithValue("usr_staff"), IsActive: true,
				DisplayOrder: 1, ServiceIDs: []string{"svc1", "svc2"}},
			{ID: "st2", DisplayName: "Sam", UserID: nullable.NewNullNullable[string](), IsActive: true,
				DisplayOrder: 2, ServiceIDs: []string{"svc1"}},
		},
		Users: []user{
			{ID: "usr_admin", Email: DemoAdminEmail, Password: DemoPassword, Role: adminauth.RoleAdmin},
			{ID: "usr_reception", Email: DemoReceptionEmail, Password: DemoPassword, Role: adminauth.RoleReception},
			{ID: "usr_staff", Email: DemoStaffEmail, Password: DemoPassword, Role: adminauth.RoleStaff},
		},
	}
}

// AddAppointment inserts an appointment directly, bypassing slot checks. It
// returns an error for an unknown tenant.
func (s *Server) AddAppointment(slug string, a planning.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenantBySlug(slug)
	if !ok {
		return fmt.Errorf("unknown tenant %q", slug)
	}
	t.Appointments = append(t.Appointments, &appointment{Appointment: a})
	return nil
}

// Appointments returns a copy of the tenant's appointments.
func (s *Server) Appointments(slug string) []planning.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenantBySlug(slug)
	if !ok {
		return nil
	}
	out := make([]planning.Appointment, len(t.Appointments))
	for i, a := range t.Appointments {
		out[i] = a.Appointment
	}
	return out
}
