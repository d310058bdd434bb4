package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"admitgate/internal/config"
	"admitgate/internal/http-server/handlers/admin"
	"admitgate/internal/http-server/handlers/approval"
	"admitgate/internal/http-server/handlers/checkin"
	"admitgate/internal/http-server/handlers/errors"
	"admitgate/internal/http-server/handlers/registration"
	"admitgate/internal/http-server/middleware/authenticate"
	"admitgate/internal/http-server/middleware/ratelimit"
	"admitgate/internal/http-server/middleware/timeout"
	"admitgate/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	registration.Core
	approval.Core
	checkin.Core
	admin.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) *Server {
	server := &Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      Router(conf, log, handler),
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server
}

func Router(conf *config.Config, log *slog.Logger, handler Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Use(authenticate.New(log, handler))

		rootApi.Post("/register", registration.Register(log, handler))
		rootApi.With(
			ratelimit.PerCaller(log, conf.RateLimit.VerifyPerSecond, conf.RateLimit.VerifyBurst),
		).Post("/verify", checkin.Verify(log, handler))

		rootApi.Route("/events/{id}", func(ev chi.Router) {
			ev.Get("/credential", registration.Credential(log, handler))
			ev.Get("/checkins", checkin.List(log, handler))
		})
		rootApi.Route("/approvals", func(ap chi.Router) {
			ap.Post("/", approval.Request(log, handler))
			ap.Get("/mine", approval.Mine(log, handler))
			ap.Get("/pending", approval.Pending(log, handler))
			ap.Delete("/{id}", approval.Cancel(log, handler))
			ap.Post("/{id}/decision", approval.Decide(log, handler))
		})
		rootApi.Route("/admin", func(adm chi.Router) {
			adm.Post("/events/{id}/groups/{groupId}", admin.LinkGroup(log, handler))
			adm.Delete("/events/{id}/groups/{groupId}", admin.UnlinkGroup(log, handler))
			adm.Post("/events/{id}/users/{userId}", admin.AllowUser(log, handler))
			adm.Delete("/events/{id}/users/{userId}", admin.DisallowUser(log, handler))
			adm.Post("/groups/{id}/members/{userId}", admin.AddMember(log, handler))
			adm.Delete("/groups/{id}/members/{userId}", admin.RemoveMember(log, handler))
			adm.Put("/users/{id}/role", admin.SetRole(log, handler))
		})
	})

	return router
}

// Start blocks serving requests until the server is shut down.
func (s *Server) Start() error {
	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIp, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	s.log.Info("starting api server", slog.String("address", serverAddress))

	return s.httpServer.Serve(listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
