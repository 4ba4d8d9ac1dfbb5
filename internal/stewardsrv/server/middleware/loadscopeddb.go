package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/httpx"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db"
)

// LoadScopedDB attaches a pooled database connection to the request context
// and releases it when the handler returns.
func LoadScopedDB(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := db.ConnCtx(r.Context())
		if err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("unable to acquire database connection")
			(&httpx.Error{
				StatusCode:  http.StatusServiceUnavailable,
				Description: "service temporarily unavailable",
			}).Send(w)
			return
		}
		defer db.DB(ctx).Close(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
