package fakeapi

import (
	"bytes"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/illmade-knight/go-booking/pkg/booking"
	"github.com/illmade-knight/go-booking/pkg/catalog"
	"github.com/illmade-knight/go-booking/pkg/idempotency"
	"github.com/illmade-knight/go-booking/pkg/planning"
)

func (s *Server) getTenant(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	t, ok := s.tenantBySlug(chi.URLParam(r, "slug"))
	var resp booking.TenantResponse
	if ok {
		resp = booking.TenantResponse{
			Tenant:   booking.Tenant{Slug: t.Slug, Name: t.Name, Timezone: t.Timezone, Status: t.Status},
			Policies: t.Policies,
		}
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusNotFound, "TENANT_NOT_FOUND", "Tenant not found.", nil)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listPublicServices(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	t, ok := s.tenantBySlug(chi.URLParam(r, "slug"))
	resp := booking.ServicesResponse{Services: []booking.Service{}}
	if ok {
		active := slices.Clone(t.Services)
		slices.SortStableFunc(active, func(a, b catalog.Service) int { return a.DisplayOrder - b.DisplayOrder })
		for _, svc := range active {
			if !svc.IsActive {
				continue
			}
			price, _ := svc.Price()
			resp.Services = append(resp.Services, booking.Service{
				ID:                  svc.ID,
				Name:                svc.Name,
				DurationMinutes:     svc.DurationMinutes,
				BufferBeforeMinutes: svc.BufferBeforeMinutes,
				BufferAfterMinutes:  svc.BufferAfterMinutes,
				PriceCents:          price,
			})
		}
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusNotFound, "TENANT_NOT_FOUND", "Tenant not found.", nil)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	serviceID, date, staffID := q.Get("service_id"), q.Get("date"), q.Get("staff_id")
	day, err := time.Parse(dateLayout, date)
	if serviceID == "" || err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "service_id and date (YYYY-MM-DD) are required.",
			map[string]any{"service_id": serviceID, "date": date})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenantBySlug(chi.URLParam(r, "slug"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "TENANT_NOT_FOUND", "Tenant not found.", nil)
		return
	}
	svc, ok := findService(t, serviceID)
	if !ok || !svc.IsActive {
		writeError(w, r, http.StatusNotFound, "SERVICE_NOT_FOUND", "Service not found.", nil)
		return
	}
	if staffID != "" {
		if _, ok := findStaff(t, staffID); !ok {
			writeError(w, r, http.StatusNotFound, "STAFF_NOT_FOUND", "Staff member not found.", nil)
			return
		}
	}

	resp := booking.SlotsResponse{
		Date:            date,
		ServiceID:       serviceID,
		SlotStepMinutes: s.cfg.SlotStepMinutes,
		Slots:           []booking.Slot{},
	}
	if staffID != "" {
		resp.StaffID = &staffID
	}
	for _, start := range s.slotsFor(t, svc, day, staffID, "") {
		resp.Slots = append(resp.Slots, booking.Slot{StartAt: start})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createPublicAppointment(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	s.idempotent(w, r, slug, func(rw http.ResponseWriter) {
		var req booking.CreateAppointmentRequest
		if !decodeBody(rw, r, &req) {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		t, ok := s.tenantBySlug(slug)
		if !ok {
			writeError(rw, r, http.StatusNotFound, "TENANT_NOT_FOUND", "Tenant not found.", nil)
			return
		}
		s.book(rw, r, t, req, planning.StatusPendingConfirmation)
	})
}

// idempotent requires an Idempotency-Key and replays the stored response of a
// key already seen for the tenant.
func (s *Server) idempotent(w http.ResponseWriter, r *http.Request, scope string, handle func(http.ResponseWriter)) {
	key := r.Header.Get(idempotency.Header)
	if key == "" || len(key) > idempotency.MaxLength {
		writeError(w, r, http.StatusBadRequest, "IDEMPOTENCY_KEY_REQUIRED",
			"An Idempotency-Key header of at most 36 characters is required.", nil)
		return
	}
	replayKey := scope + ":" + key

	s.mu.Lock()
	stored, seen := s.replays[replayKey]
	s.mu.Unlock()
	if seen {
		s.logger.Debug().Str("key", key).Msg("Replaying idempotent response.")
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(stored.status)
		_, _ = w.Write(stored.body)
		return
	}

	rec := &capture{header: http.Header{}}
	handle(rec)
	if rec.status < 300 {
		s.mu.Lock()
		s.replays[replayKey] = replay{status: rec.status, body: rec.body.Bytes()}
		s.mu.Unlock()
	}
	for k, v := range rec.header {
		w.Header()[k] = v
	}
	w.WriteHeader(rec.status)
	_, _ = w.Write(rec.body.Bytes())
}

type capture struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (c *capture) Header() http.Header { return c.header }

func (c *capture) WriteHeader(status int) {
	if c.status == 0 {
		c.status = status
	}
}

func (c *capture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	return c.body.Write(b)
}

// book validates and stores an appointment. Callers hold s.mu.
func (s *Server) book(w http.ResponseWriter, r *http.Request, t *tenant, req booking.CreateAppointmentRequest, status string) {
	phone := strings.TrimSpace(req.Customer.Phone)
	if phone == "" {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Customer phone is required.",
			map[string]any{"field": "customer.phone"})
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
	staffID, ok := s.bookable(t, svc, start, req.StaffID, "")
	if !ok {
		writeError(w, r, http.StatusConflict, "SLOT_UNAVAILABLE", "This slot is no longer available.", nil)
		return
	}

	a := &appointment{
		Appointment: planning.Appointment{
			ID:            s.nextID("apt"),
			StaffID:       &staffID,
			ServiceID:     svc.ID,
			ServiceName:   svc.Name,
			CustomerPhone: &phone,
			StartAt:       start.UTC().Format(time.RFC3339),
			EndAt:         start.UTC().Add(time.Duration(svc.DurationMinutes) * time.Minute).Format(time.RFC3339),
			Status:        status,
		},
		CustomerEmail: req.Customer.Email,
		Note:          req.Note,
	}
	if name := strings.TrimSpace(req.Customer.Name); name != "" {
		a.CustomerName = &name
	}
	t.Appointments = append(t.Appointments, a)
	s.logger.Info().Str("tenant", t.Slug).Str("appointment_id", a.ID).Str("start_at", a.StartAt).Msg("Appointment created.")
	writeJSON(w, http.StatusCreated, booking.CreateAppointmentResponse{AppointmentID: a.ID, Status: a.Status})
}
