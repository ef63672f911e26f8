package session

import (
	"context"

	"github.com/illmade-knight/go-booking/pkg/adminauth"
	"github.com/illmade-knight/go-booking/pkg/mutation"
	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/rs/zerolog"
)

type (
	LoginMutation  = mutation.Mutation[adminauth.LoginRequest, adminauth.Identity]
	LogoutMutation = mutation.Mutation[struct{}, adminauth.LogoutResponse]
)

// NewLoginMutation signs in, stores the returned identity as the session entry
// and then revalidates it.
func NewLoginMutation(c *query.Client, api *adminauth.API, logger zerolog.Logger) *LoginMutation {
	return mutation.New("admin.login", api.Login, logger,
		mutation.Sequence(
			mutation.Prime(c, MeKey, func(id adminauth.Identity, _ adminauth.LoginRequest) any { return id }),
			mutation.InvalidateKeys[adminauth.LoginRequest, adminauth.Identity](c, MeKey),
		))
}

// NewLogoutMutation signs out and removes the session entry, so every watcher
// goes back through loading before it sees the next verdict. Watchers trigger
// exactly one new session check; with none the entry is simply gone.
func NewLogoutMutation(c *query.Client, api *adminauth.API, logger zerolog.Logger) *LogoutMutation {
	return mutation.New("admin.logout",
		func(ctx context.Context, _ struct{}) (adminauth.LogoutResponse, error) {
			return api.Logout(ctx)
		},
		logger,
		mutation.Remove[struct{}, adminauth.LogoutResponse](c, MeKey))
}
