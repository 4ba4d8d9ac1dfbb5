package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type requestIdContextKey string

const requestIdKey = requestIdContextKey("requestId")

// RequestIdHeader carries the request id back to the caller so client side
// reports can be matched against server logs.
const RequestIdHeader = "X-Steward-Request-ID"

// RequestLogger assigns each request an id, stamps it on the context logger
// and the response headers, and logs the request line.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIdKey, requestID)
		ctx = log.With().Str("request_id", requestID).Caller().Logger().WithContext(ctx)
		w.Header().Set(RequestIdHeader, requestID)

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		log.Ctx(ctx).Info().
			Str("requestURL", scheme+"://"+r.Host+r.RequestURI).
			Str("requestMethod", r.Method).
			Str("requestPath", r.URL.Path).
			Str("remoteIP", r.RemoteAddr).
			Str("proto", r.Proto).
			Msg("")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIdFromContext returns the id RequestLogger assigned to this
// request, or "" outside a request scope.
func RequestIdFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIdKey).(string); ok {
		return id
	}
	return ""
}
