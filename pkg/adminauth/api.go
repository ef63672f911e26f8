package adminauth

import (
	"context"

	"github.com/illmade-knight/go-booking/pkg/transport"
)

const (
	loginPath  = "/api/v1/admin/auth/login"
	mePath     = "/api/v1/admin/auth/me"
	logoutPath = "/api/v1/admin/auth/logout"
)

// API wraps the admin auth endpoints. The session itself is carried by a
// cookie held in the transport's cookie jar.
type API struct {
	r transport.Requester
}

// NewAPI creates the admin auth API on top of r.
func NewAPI(r transport.Requester) *API {
	return &API{r: r}
}

// Login opens a session and returns its identity.
func (a *API) Login(ctx context.Context, req LoginRequest) (Identity, error) {
	return transport.Post[Identity](ctx, a.r, loginPath, req, nil)
}

// Me returns the identity of the current session. A missing or expired session
// fails with a 401 ApiError.
func (a *API) Me(ctx context.Context) (Identity, error) {
	return transport.Get[Identity](ctx, a.r, mePath)
}

// Logout ends the session.
func (a *API) Logout(ctx context.Context) (LogoutResponse, error) {
	return transport.Post[LogoutResponse](ctx, a.r, logoutPath, struct{}{}, nil)
}
