package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/httpx"
)

// PanicHandler converts handler panics into a 500 response. The stack goes
// to the log, never to the caller.
func PanicHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Ctx(r.Context()).Error().
					Str("stack", string(debug.Stack())).
					Msgf("panic while serving request: %v", rec)
				httpx.ErrApplicationError("Unable to process request. Please try again later.").Send(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
