package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/httpx"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/config"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/stewcommon"
)

const (
	authHeaderPrefix = "Bearer "
	genericAuthError = "authentication failed"
)

// IdentityMiddleware resolves the caller identity from the forward headers
// set by the authenticating proxy and stores it in the request context. The
// headers are trusted; the proxy is the authentication boundary.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := &stewcommon.UserContext{
			Email:    r.Header.Get("X-Forwarded-Email"),
			Username: r.Header.Get("X-Forwarded-Preferred-Username"),
			User:     r.Header.Get("X-Forwarded-User"),
		}
		ctx := stewcommon.SetUserContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenMiddleware validates a bearer token when one is presented. Requests
// without an Authorization header pass through untouched, so forward-header
// identity keeps working; a malformed or invalid token is rejected.
func TokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if stewcommon.IsTestContext(ctx) || !config.Config().Auth.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		if !strings.HasPrefix(authHeader, authHeaderPrefix) {
			log.Ctx(ctx).Debug().Msg("invalid authorization header format")
			httpx.ErrUnAuthorized(genericAuthError).Send(w)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, authHeaderPrefix))
		if token == "" {
			log.Ctx(ctx).Debug().Msg("empty token")
			httpx.ErrUnAuthorized(genericAuthError).Send(w)
			return
		}

		ctx, err := ValidateToken(ctx, token)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("token validation failed")
			httpx.ErrUnAuthorized(genericAuthError).Send(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
