package httpserver

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"mediagate/media-api/internal/auth"
	"mediagate/media-api/internal/config"
	"mediagate/media-api/internal/media"
	"mediagate/media-api/internal/migrations"
	"mediagate/media-api/internal/observability"
)

type AuthService interface {
	Signup(ctx context.Context, email, password string) (auth.AdminUser, error)
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, authorization string) (auth.AdminUser, error)
}

type MediaService interface {
	Create(ctx context.Context, a media.Asset) (media.Asset, error)
	StreamURL(ctx context.Context, id string) (media.StreamLink, error)
	Redeem(ctx context.Context, token string) (media.Asset, error)
	RecordView(ctx context.Context, id, viewerIP string) (media.View, error)
	Analytics(ctx context.Context, id string) (media.Analytics, error)
}

type MigrationService interface {
	Status(ctx context.Context) ([]migrations.Status, error)
}

type StorePinger interface {
	Ping(ctx context.Context) error
}

type AuditLogger interface {
	Log(actor, action, target, outcome, detail string) error
}

type Deps struct {
	Auth       AuthService
	Media      MediaService
	Migrations MigrationService
	Store      StorePinger
	Audit      AuditLogger
	Logger     *slog.Logger
	Metrics    *observability.Metrics
}

type Server struct {
	httpServer *http.Server
}

func New(cfg config.HTTPConfig, deps Deps) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewHandler(cfg, deps),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

type handler struct {
	deps       Deps
	log        *slog.Logger
	validate   *validator.Validate
	trustProxy bool
}

func NewHandler(cfg config.HTTPConfig, deps Deps) http.Handler {
	h := &handler{
		deps:       deps,
		log:        deps.Logger,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		trustProxy: cfg.TrustProxyHeaders,
	}
	if h.log == nil {
		h.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(h.logRequests)
	r.Use(h.recoverPanics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", h.ready)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
	})

	r.Route("/media", func(r chi.Router) {
		r.Get("/stream", h.redeemStream)
		r.Get("/{id}/stream-url", h.streamURL)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Post("/", h.createMedia)
			r.Post("/{id}/view", h.recordView)
			r.Get("/{id}/analytics", h.analytics)
		})
	})

	r.With(h.requireAdmin).Get("/system/migrations", h.migrationStatus)

	return r
}

func (h *handler) ready(w http.ResponseWriter, r *http.Request) {
	if h.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.deps.Store.Ping(ctx); err != nil {
			h.log.Warn("readiness check failed", "request_id", requestIDFromContext(r.Context()), "err", err)
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *handler) migrationStatus(w http.ResponseWriter, r *http.Request) {
	if h.deps.Migrations == nil {
		writeError(w, http.StatusServiceUnavailable, "migrations unavailable for this store")
		return
	}
	status, err := h.deps.Migrations.Status(r.Context())
	if err != nil {
		h.internalError(w, r, "migration status failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": status})
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
