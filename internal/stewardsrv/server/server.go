package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/stewarddata/steward-internal/internal/common/httpx"
	"github.com/stewarddata/steward-internal/internal/common/logtrace"
	commonmiddleware "github.com/stewarddata/steward-internal/internal/common/middleware"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/apis"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/auth"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/config"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/notify"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/server/middleware"
)

type StewardServer struct {
	Router *chi.Mux
}

func CreateNewServer() (*StewardServer, error) {
	s := &StewardServer{}
	s.Router = chi.NewRouter()
	return s, nil
}

func (s *StewardServer) MountHandlers() {
	s.Router.Use(commonmiddleware.RequestLogger)
	s.Router.Use(commonmiddleware.PanicHandler)
	s.Router.Use(commonmiddleware.Metrics)
	if config.Config().Server.HandleCORS {
		s.Router.Use(s.HandleCORS)
	}
	s.Router.Handle("/metrics", promhttp.Handler())
	s.Router.Get("/version", s.getVersion)
	s.Router.Get("/ready", s.getReadiness)
	s.Router.Route("/api", s.mountResourceHandlers)
	if logtrace.IsTraceEnabled() {
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			fmt.Printf("%s %s\n", method, route)
			return nil
		}
		if err := chi.Walk(s.Router, walkFunc); err != nil {
			log.Error().Err(err).Msg("Error walking router")
		}
	}
}

func (s *StewardServer) mountResourceHandlers(r chi.Router) {
	// The stream holds its socket for the connection lifetime, so it must
	// not pin a pooled db connection.
	r.Group(func(r chi.Router) {
		r.Use(auth.IdentityMiddleware)
		r.Get("/notifications/stream", notify.Streams().HandleStream)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.LoadScopedDB)
		r.Use(auth.IdentityMiddleware)
		r.Use(auth.TokenMiddleware)
		apis.Router(r)
	})
}

type GetVersionRsp struct {
	ServerVersion string `json:"serverVersion"`
	ApiVersion    string `json:"apiVersion"`
}

func (s *StewardServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &GetVersionRsp{
		ServerVersion: "Steward Catalog Server: 0.1.0",
		ApiVersion:    "v1",
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rsp)
}

func (s *StewardServer) getReadiness(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("Readiness check")
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (s *StewardServer) HandleCORS(next http.Handler) http.Handler {
	allowedOrigins := config.Config().Server.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "Accept-Encoding"},
		ExposedHeaders:   []string{"Link", "Location", "X-Steward-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})(next)
}
