// Package session derives the admin session verdict from the cached "who am I"
// read and gates protected views on it.
package session

import (
	"context"
	"net/http"

	"github.com/illmade-knight/go-booking/pkg/adminauth"
	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/illmade-knight/go-booking/pkg/transport"
	"github.com/rs/zerolog"
)

// MeKey is the reserved cache key of the session identity.
var MeKey = query.Key{"admin", "me"}

// LoginPath is where unauthenticated users are sent.
const LoginPath = "/admin/login"

// Verdict is the outcome of the session check.
type Verdict int

const (
	// VerdictLoading means no verdict yet: render a neutral waiting state.
	VerdictLoading Verdict = iota
	// VerdictUnauthenticated means the check failed with 401: go to LoginPath.
	VerdictUnauthenticated
	// VerdictErrorOther means the check failed otherwise: show an error, do not redirect.
	VerdictErrorOther
	// VerdictAuthenticated means Identity is confirmed.
	VerdictAuthenticated
)

func (v Verdict) String() string {
	switch v {
	case VerdictLoading:
		return "loading"
	case VerdictUnauthenticated:
		return "unauthenticated"
	case VerdictErrorOther:
		return "error-other"
	case VerdictAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Decision is what a route guard needs to render.
type Decision struct {
	Verdict  Verdict
	Identity *adminauth.Identity
	// LoginPath and From are set on VerdictUnauthenticated. From is the path
	// originally requested so the login screen can return to it.
	LoginPath string
	From      string
	Err       error
}

// Decide maps the session entry to a verdict for a request to from.
// A refetch of an already confirmed identity stays authenticated.
func Decide(s query.State[adminauth.Identity], from string) Decision {
	switch s.Status {
	case query.StatusSuccess:
		id := s.Data
		return Decision{Verdict: VerdictAuthenticated, Identity: &id}
	case query.StatusError:
		if transport.IsStatus(s.Err, http.StatusUnauthorized) {
			return Decision{Verdict: VerdictUnauthenticated, LoginPath: LoginPath, From: from, Err: s.Err}
		}
		return Decision{Verdict: VerdictErrorOther, Err: s.Err}
	case query.StatusLoading:
		if s.HasData {
			id := s.Data
			return Decision{Verdict: VerdictAuthenticated, Identity: &id}
		}
	}
	return Decision{Verdict: VerdictLoading}
}

// Gate reads the session identity through the shared query client.
type Gate struct {
	client *query.Client
	api    *adminauth.API
	logger zerolog.Logger
}

// NewGate creates a session gate.
func NewGate(client *query.Client, api *adminauth.API, logger zerolog.Logger) *Gate {
	return &Gate{
		client: client,
		api:    api,
		logger: logger.With().Str("component", "SessionGate").Logger(),
	}
}

// MeQuery is the session read: never retried, never persisted.
func (g *Gate) MeQuery() query.Query[adminauth.Identity] {
	return query.Query[adminauth.Identity]{
		Key:     MeKey,
		Fetch:   g.api.Me,
		Options: query.Options{Enabled: true, RetryCount: 0},
	}
}

// Watch calls fn with a Decision for every change of the session entry until
// the returned handle is unsubscribed.
func (g *Gate) Watch(from string, fn func(Decision)) *query.Handle {
	return query.Watch(g.client, g.MeQuery(), func(s query.State[adminauth.Identity]) {
		d := Decide(s, from)
		if d.Verdict == VerdictUnauthenticated {
			g.logger.Debug().Str("from", from).Msg("Session missing, redirecting to login.")
		}
		fn(d)
	})
}

// Check blocks until the session check settles and returns its verdict. A
// cancelled ctx yields VerdictLoading with ctx's error.
func (g *Gate) Check(ctx context.Context, from string) Decision {
	id, err := query.Get(ctx, g.client, g.MeQuery())
	if err != nil {
		if ctx.Err() != nil {
			return Decision{Verdict: VerdictLoading, Err: ctx.Err()}
		}
		return Decide(query.State[adminauth.Identity]{Status: query.StatusError, Err: err}, from)
	}
	return Decide(query.State[adminauth.Identity]{Status: query.StatusSuccess, Data: id, HasData: true}, from)
}
