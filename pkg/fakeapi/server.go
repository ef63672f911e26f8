// Package fakeapi is an in-memory stand-in for the booking backend. It serves
// the same REST surface with a small slot engine and cookie sessions, and is
// used by tests and by `bookingctl fake-api`.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-booking/pkg/adminauth"
	"github.com/illmade-knight/go-booking/pkg/catalog"
	"github.com/illmade-knight/go-booking/pkg/planning"
	"github.com/illmade-knight/go-booking/pkg/staff"
)

// Config holds the configuration for the fake backend.
type Config struct {
	// Secret signs session cookies. A random secret is used when empty.
	Secret []byte
	// SessionTTL is the lifetime of a session cookie. Zero means 12h.
	SessionTTL time.Duration
	// OpenHour and CloseHour bound bookable slots, in UTC. Zero means 9 to 17.
	OpenHour  int
	CloseHour int
	// SlotStepMinutes is the spacing of slot start times. Zero means 30.
	SlotStepMinutes int
}

type user struct {
	ID       string
	Email    string
	Password string
	Role     adminauth.Role
}

type tenant struct {
	ID           string
	Slug         string
	Name         string
	Timezone     *string
	Status       string
	Policies     map[string]any
	Services     []catalog.Service
	Staff        []staff.Member
	Users        []user
	Appointments []*appointment
}

type appointment struct {
	planning.Appointment
	CustomerEmail string
	Note          string
}

type replay struct {
	status int
	body   []byte
}

type fault struct {
	status  int
	code    string
	message string
}

// Server is the fake backend. It is safe for concurrent use.
type Server struct {
	cfg    Config
	logger zerolog.Logger

	mu       sync.Mutex
	tenants  map[string]*tenant
	replays  map[string]replay
	revoked  map[string]struct{}
	hits     map[string]int
	faults   map[string]fault
	sequence int
}

// New creates a fake backend seeded with the "demo" tenant.
func New(cfg *Config, logger zerolog.Logger) *Server {
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	if len(c.Secret) == 0 {
		c.Secret = []byte(ulid.Make().String())
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 12 * time.Hour
	}
	if c.OpenHour == 0 && c.CloseHour == 0 {
		c.OpenHour, c.CloseHour = 9, 17
	}
	if c.SlotStepMinutes == 0 {
		c.SlotStepMinutes = 30
	}
	s := &Server{
		cfg:     c,
		logger:  logger.With().Str("component", "FakeAPI").Logger(),
		tenants: make(map[string]*tenant),
		replays: make(map[string]replay),
		revoked: make(map[string]struct{}),
		hits:    make(map[string]int),
		faults:  make(map[string]fault),
	}
	s.seedDemo()
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.countAndInject)

	r.Get("/healthz", healthz)

	r.Route("/api/v1/public/{slug}", func(r chi.Router) {
		r.Get("/", s.getTenant)
		r.Get("/services", s.listPublicServices)
		r.Get("/slots", s.getSlots)
		r.Post("/appointments", s.createPublicAppointment)
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Post("/auth/login", s.login)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/auth/me", s.me)
			r.Post("/auth/logout", s.logout)
			r.Get("/planning/day", s.getDay)

			r.With(s.requireRoles(adminauth.RoleAdmin, adminauth.RoleReception)).Route("/appointments", func(r chi.Router) {
				r.Post("/", s.createAdminAppointment)
				r.Patch("/{id}/status", s.updateStatus)
				r.Patch("/{id}", s.updateAppointment)
			})

			r.With(s.requireRoles(adminauth.RoleAdmin)).Route("/services", func(r chi.Router) {
				r.Get("/", s.listAdminServices)
				r.Post("/", s.createService)
				r.Patch("/{id}", s.updateService)
				r.Delete("/{id}", s.archiveService)
			})

			r.With(s.requireRoles(adminauth.RoleAdmin)).Route("/staff", func(r chi.Router) {
				r.Get("/", s.listStaff)
				r.Post("/", s.createStaff)
				r.Patch("/{id}", s.updateStaff)
				r.Delete("/{id}", s.archiveStaff)
			})
		})
	})
	return r
}

// Hits returns how many requests were routed to pattern, e.g.
// Hits("GET", "/api/v1/public/{slug}/slots").
func (s *Server) Hits(method, pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+pattern]
}

// FailNext makes the next request to the exact path fail with the given error.
func (s *Server) FailNext(method, path string, status int, code, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+path] = fault{status: status, code: code, message: message}
}

// countAndInject serves injected faults and records the matched route pattern.
func (s *Server) countAndInject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, failing := s.faults[r.Method+" "+r.URL.Path]
		delete(s.faults, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		if failing {
			writeError(w, r, f.status, f.code, f.message, nil)
			return
		}

		// Record before the first byte is written so a client that has seen the
		// response always sees the hit.
		cw := &countingWriter{ResponseWriter: w}
		cw.record = func() {
			pattern := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				pattern = rctx.RoutePattern()
			}
			s.mu.Lock()
			s.hits[r.Method+" "+pattern]++
			s.mu.Unlock()
		}
		next.ServeHTTP(cw, r)
		cw.once.Do(cw.record)
	})
}

type countingWriter struct {
	http.ResponseWriter
	once   sync.Once
	record func()
}

func (c *countingWriter) WriteHeader(status int) {
	c.once.Do(c.record)
	c.ResponseWriter.WriteHeader(status)
}

func (c *countingWriter) Write(b []byte) (int, error) {
	c.once.Do(c.record)
	return c.ResponseWriter.Write(b)
}

type errorBody struct {
	Error struct {
		Code      string                            `json:"code"`
		Message   string                            `json:"message"`
		Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
		RequestID nullable.Nullable[string]         `json:"request_id,omitempty"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	if details != nil {
		body.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		body.Error.RequestID = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "Request body is not valid JSON.", nil)
		return false
	}
	return true
}

func (s *Server) nextID(prefix string) string {
	s.sequence++
	return fmt.Sprintf("%s_%d", prefix, s.sequence)
}

func (s *Server) tenantBySlug(slug string) (*tenant, bool) {
	t, ok := s.tenants[slug]
	return t, ok
}
