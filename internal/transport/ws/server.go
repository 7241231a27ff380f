package ws

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/kiryu-dev/battleship/internal/domain"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultAddr              = ":8080"
	defaultReadHeaderTimeout = 5 * time.Second
	queryTimeout             = 10 * time.Second
)

type server struct {
	srv       *http.Server
	hub       domain.HubUseCase
	sweep     domain.SweepUseCase
	storeName string
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

type Option func(s *server)

func WithAddr(addr string) Option {
	return func(s *server) {
		s.srv.Addr = addr
	}
}

func WithReadHeaderTimeout(timeout time.Duration) Option {
	return func(s *server) {
		s.srv.ReadHeaderTimeout = timeout
	}
}

// WithStoreName sets the store driver reported by /health.
func WithStoreName(name string) Option {
	return func(s *server) {
		s.storeName = name
	}
}

func New(hub domain.HubUseCase, sweep domain.SweepUseCase, logger *zap.Logger, opts ...Option) *server {
	s := &server{
		srv: &http.Server{
			Addr:              defaultAddr,
			ReadHeaderTimeout: defaultReadHeaderTimeout,
		},
		hub:   hub,
		sweep: sweep,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	/* hijacked websocket conns are not closed by Shutdown, cancel them through the base context */
	baseCtx, cancel := context.WithCancel(context.Background())
	s.srv.BaseContext = func(net.Listener) context.Context {
		return baseCtx
	}
	s.srv.RegisterOnShutdown(cancel)
	s.srv.Handler = s.routes()
	return s
}

func (s *server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *server) ListenAndServe() error {
	s.logger.Info("starting listening address: " + s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithMessage(err, "listen and serve")
	}
	return nil
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/commands", s.serveWs)
	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(queryTimeout))
		r.Get("/health", s.healthCheck)
		r.Route("/games", func(r chi.Router) {
			r.Get("/", s.recentGames)
			r.Get("/active", s.activeGames)
			r.Get("/{id}", s.game)
			r.Get("/{id}/shots/{x}/{y}", s.shot)
			r.Get("/{id}/payouts", s.payouts)
		})
		r.Get("/players/{address}/stats", s.playerStats)
	})
	return r
}
