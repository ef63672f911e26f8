package fakeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/illmade-knight/go-booking/pkg/adminauth"
)

// SessionCookie is the name of the admin session cookie.
const SessionCookie = "booking_session"

type sessionClaims struct {
	Tenant string         `json:"tenant"`
	Email  string         `json:"email"`
	Role   adminauth.Role `json:"role"`
	jwt.RegisteredClaims
}

type sessionKey struct{}

func sessionFrom(ctx context.Context) *sessionClaims {
	claims, _ := ctx.Value(sessionKey{}).(*sessionClaims)
	return claims
}

func (s *Server) issueSession(t *tenant, u user) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(s.cfg.SessionTTL)
	claims := sessionClaims{
		Tenant: t.Slug,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, expires, nil
}

func (s *Server) parseSession(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return nil, errors.New("session revoked")
	}
	return claims, nil
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required.", nil)
			return
		}
		claims, err := s.parseSession(cookie.Value)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Rejected session cookie.")
			writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required.", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, claims)))
	})
}

func (s *Server) requireRoles(allowed ...adminauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := sessionFrom(r.Context())
			if claims == nil || !slices.Contains(allowed, claims.Role) {
				writeError(w, r, http.StatusForbidden, "FORBIDDEN", "Role not allowed.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req adminauth.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	t, ok := s.tenantBySlug(req.TenantSlug)
	var found *user
	if ok {
		for i := range t.Users {
			if t.Users[i].Email == req.Email && t.Users[i].Password == req.Password {
				found = &t.Users[i]
				break
			}
		}
	}
	s.mu.Unlock()
	if found == nil {
		writeError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials.", nil)
		return
	}

	token, expires, err := s.issueSession(t, *found)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "Could not open session.", nil)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, identity(t, *found))
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	claims := sessionFrom(r.Context())
	s.mu.Lock()
	t, ok := s.tenantBySlug(claims.Tenant)
	var u *user
	if ok {
		for i := range t.Users {
			if t.Users[i].ID == claims.Subject {
				u = &t.Users[i]
			}
		}
	}
	s.mu.Unlock()
	if u == nil {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required.", nil)
		return
	}
	writeJSON(w, http.StatusOK, identity(t, *u))
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	claims := sessionFrom(r.Context())
	s.mu.Lock()
	s.revoked[claims.ID] = struct{}{}
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, adminauth.LogoutResponse{Status: "logged_out"})
}

func identity(t *tenant, u user) adminauth.Identity {
	return adminauth.Identity{
		User:   adminauth.User{ID: u.ID, Email: u.Email, Role: u.Role},
		Tenant: adminauth.Tenant{ID: t.ID, Slug: t.Slug},
	}
}
