package fakeapi

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/nullable"

	"github.com/illmade-knight/go-booking/pkg/adminauth"
	"github.com/illmade-knight/go-booking/pkg/booking"
	"github.com/illmade-knight/go-booking/pkg/catalog"
	"github.com/illmade-knight/go-booking/pkg/planning"
	"github.com/illmade-knight/go-booking/pkg/staff"
)

// transitions lists the statuses reachable from each status.
var transitions = map[string][]string{
	planning.StatusPendingConfirmation: {planning.StatusConfirmed, planning.StatusCancelledByStaff},
	planning.StatusConfirmed:           {planning.StatusCompleted, planning.StatusNoShow, planning.StatusCancelledByStaff},
}

// sessionTenant resolves the tenant of the signed-in user. Callers hold s.mu.
func (s *Server) sessionTenant(w http.ResponseWriter, r *http.Request) (*tenant, *sessionClaims, bool) {
	claims := sessionFrom(r.Context())
	t, ok := s.tenantBySlug(claims.Tenant)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required.", nil)
		return nil, nil, false
	}
	return t, claims, true
}

func (s *Server) getDay(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if _, err := time.Parse(dateLayout, date); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "date (YYYY-MM-DD) is required.",
			map[string]any{"date": date})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, claims, ok := s.sessionTenant(w, r)
	if !ok {
		return
	}

	resp := planning.DayResponse{
		Date:         date,
		Timezone:     booking.Tenant{Timezone: t.Timezone}.TimezoneOr("UTC"),
		ViewerRole:   claims.Role,
		Staff:        []planning.Staff{},
		Appointments: []planning.Appointment{},
	}
	members := slices.Clone(t.Staff)
	slices.SortStableFunc(members, func(a, b staff.Member) int { return a.DisplayOrder - b.DisplayOrder })
	visible := map[string]bool{}
	for _, m := range members {
		if !m.IsActive {
			continue
		}
		// Staff users only see their own column.
		if claims.Role == adminauth.RoleStaff {
			if id, err := m.UserID.Get(); err != nil || id != claims.Subject {
				continue
			}
		}
		visible[m.ID] = true
		resp.Staff = append(resp.Staff, planning.Staff{ID: m.ID, DisplayName: m.DisplayName})
	}
	for _, a := range t.Appointments {
		if !strings.HasPrefix(a.StartAt, date) {
			continue
		}
		if claims.Role == adminauth.RoleStaff && (a.StaffID == nil || !visible[*a.StaffID]) {
			continue
		}
		resp.Appointments = append(resp.Appointments, a.Appointment)
	}
	slices.SortStableFunc(resp.Appointments, func(a, b planning.Appointment) int {
		return strings.Compare(a.StartAt, b.StartAt)
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createAdminAppointment(w http.ResponseWriter, r *http.Request) {
	claims := sessionFrom(r.Context())
	s.idempotent(w, r, "admin:"+claims.Tenant, func(rw http.ResponseWriter) {
		var req booking.CreateAppointmentRequest
		if !decodeBody(rw, r, &req) {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		t, _, ok := s.sessionTenant(rw, r)
		if !ok {
			return
		}
		s.book(rw, r, t, req, planning.StatusConfirmed)
	})
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req planning.UpdateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Unknown status.",
			map[string]any{"status": string(req.Status)})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, ok := s.sessionTenant(w, r)
	if !ok {
		return
	}
	a, ok := findAppointment(t, chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "APPOINTMENT_NOT_FOUND", "Appointment not found.", nil)
		return
	}
	next := string(req.Status)
	if !slices.Contains(transitions[a.Status], next) {
		writeError(w, r, http.StatusConflict, "INVALID_TRANSITION", "This status change is not allowed.",
			map[string]any{"from": a.Status, "to": next})
		return
	}
	a.Status = next
	s.logger.Info().Str("appointment_id", a.ID).Str("status", next).Msg("Appointment status changed.")
	writeJSON(w, http.StatusOK, planning.UpdateStatusResponse{AppointmentID: a.ID, Status: a.Status})
}

func (s *Server) updateAppointment(w http.ResponseWriter, r *http.Request) {
	var req planning.UpdateAppointmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, ok := s.sessionTenant(w, r)
	if !ok {
		return
	}
	a, ok := findAppointment(t, chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "APPOINTMENT_NOT_FOUND", "Appointment not found.", nil)
		return
	}
	if !blocking(a.Status) {
		writeError(w, r, http.StatusConflict, "INVALID_TRANSITION", "Only open appointments can be changed.",
			map[string]any{"status": a.Status})
		return
	}
	svc, ok := findService(t, req.ServiceID)
	if !ok || !svc.IsActive {
		writeError(w, r, http.StatusNotFound, "SERVICE_NOT_FOUND", "Service not found.", nil)
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "start_at must be an RFC 3339 instant.",
			map[string]any{"field": "start_at"})
		return
	}
	staffID, ok := s.bookable(t, svc, start, req.StaffID, a.ID)
	if !ok {
		writeError(w, r, http.StatusConflict, "SLOT_UNAVAILABLE", "This slot is no longer available.", nil)
		return
	}

	a.ServiceID = svc.ID
	a.ServiceName = svc.Name
	a.StaffID = &staffID
	a.StartAt = start.UTC().Format(time.RFC3339)
	a.EndAt = start.UTC().Add(time.Duration(svc.DurationMinutes) * time.Minute).Format(time.RFC3339)
	writeJSON(w, http.StatusOK, planning.UpdateAppointmentResponse{
		AppointmentID: a.ID,
		Status:        a.Status,
		ServiceID:     a.ServiceID,
		StaffID:       a.StaffID,
		StartAt:       a.StartAt,
		EndAt:         a.EndAt,
	})
}

func (s *Server) listAdminServices(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, ok := s.sessionTenant(w, r)
	if !ok {
		return
	}
	services := slices.Clone(t.Services)
	slices.SortStableFunc(services, func(a, b catalog.Service) int { return a.DisplayOrder - b.DisplayOrder })
	writeJSON(w, http.StatusOK, catalog.ServicesResponse{Services: services})
}

func checkService(w http.ResponseWriter, r *http.Request, req catalog.UpsertServiceRequest) bool {
	switch {
	case strings.TrimSpace(req.Name) == "":
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Name is required.",
			map[string]any{"field": "name"})
	case req.DurationMinutes <= 0:
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Duration must be positive.",
			map[string]any{"field": "duration_minutes"})
	case req.BufferBeforeMinutes < 0 || req.BufferAfterMinutes < 0:
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Buffers cannot be negative.", nil)
	default:
		return true
	}
	return false
}

func applyService(svc *catalog.Service, req catalog.UpsertServiceRequest) {
	svc.Name = strings.TrimSpace(req.Name)
	svc.DurationMinutes = req.DurationMinutes
	svc.BufferBeforeMinutes = req.BufferBeforeMinutes
	svc.BufferAfterMinutes = req.BufferAfterMinutes
	svc.DisplayOrder = req.DisplayOrder
	// An omitted price is stored as null.
	if req.PriceCents.IsSpecified() {
		svc.PriceCents = req.PriceCents
	} else {
		svc.PriceCents = nullable.NewNullNullable[int]()
	}
}

func (s *Server) createService(w http.ResponseWriter, r *http.Request) {
	var req catalog.UpsertServiceRequest
	if !decodeBody(w, r, &req) || !checkService(w, r, req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, ok := s.sessionTenant(w, r)
	if !ok {
		return
	}
	svc := catalog.Service{ID: s.nextID("svc"), IsActive: true}
	applyService(&svc, req)
	t.Services = append(t.Services, svc)
	writeJSON(w, http.StatusCreated, catalog.ServiceIDResponse{ServiceID: svc.ID})
}

func (s *Server) updateService(w http.ResponseWriter, r *http.Request) {
	var req catalog.UpsertServiceRequest
	if !decodeBody(w, r, &req) || !checkService(w, r, req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, ok := s.sessionTenant(w, r)
	if !ok {
		return
	}
	svc, ok := findService(t, chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "SERVICE_NOT_FOUND", "Service not found.", nil)
		return
	}
	applyService(svc, req)
	writeJSON(w, http.StatusOK, catalog.ServiceIDResponse{ServiceID: svc.ID})
}

func (s *Server) archiveService(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, ok := s.sessionTenant(w, r)
	if !ok {
		return
	}
	svc, ok := findService(t, chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "SERVICE_NOT_FOUND", "Service not found.", nil)
		return
	}
	svc.IsActive = false
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listStaff(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, ok := s.sessionTenant(w, r)
	if !ok {
		return
	}
	members := slices.Clone(t.Staff)
	slices.SortStableFunc(members, func(a, b staff.Member) int { return a.DisplayOrder - b.DisplayOrder })
	writeJSON(w, http.StatusOK, staff.ListResponse{Staff: members})
}

// checkStaff validates a staff body against the tenant catalog. Callers hold s.mu.
func checkStaff(w http.ResponseWriter, r *http.Request, t *tenant, req staff.UpsertRequest) bool {
	if strings.TrimSpace(req.DisplayName) == "" {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Display name is required.",
			map[string]any{"field": "display_name"})
		return false
	}
	for _, id := range req.ServiceIDs {
		if _, ok := findService(t, id); !ok {
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Unknown service.",
				map[string]any{"service_id": id})
			return false
		}
	}
	return true
}

func applyStaff(m *staff.Member, req staff.UpsertRequest) {
	m.DisplayName = strings.TrimSpace(req.DisplayName)
	m.DisplayOrder = req.DisplayOrder
	m.ServiceIDs = slices.Clone(req.ServiceIDs)
	if m.ServiceIDs == nil {
		m.ServiceIDs = []string{}
	}
}

func (s *Server) createStaff(w http.ResponseWriter, r *http.Request) {
	var req staff.UpsertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, ok := s.sessionTenant(w, r)
	if !ok || !checkStaff(w, r, t, req) {
		return
	}
	m := staff.Member{ID: s.nextID("st"), UserID: nullable.NewNullNullable[string](), IsActive: true}
	applyStaff(&m, req)
	t.Staff = append(t.Staff, m)
	writeJSON(w, http.StatusCreated, staff.IDResponse{StaffID: m.ID})
}

func (s *Server) updateStaff(w http.ResponseWriter, r *http.Request) {
	var req staff.UpsertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, ok := s.sessionTenant(w, r)
	if !ok || !checkStaff(w, r, t, req) {
		return
	}
	m, ok := findStaff(t, chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "STAFF_NOT_FOUND", "Staff member not found.", nil)
		return
	}
	applyStaff(m, req)
	writeJSON(w, http.StatusOK, staff.IDResponse{StaffID: m.ID})
}

func (s *Server) archiveStaff(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, ok := s.sessionTenant(w, r)
	if !ok {
		return
	}
	m, ok := findStaff(t, chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "STAFF_NOT_FOUND", "Staff member not found.", nil)
		return
	}
	m.IsActive = false
	w.WriteHeader(http.StatusNoContent)
}
