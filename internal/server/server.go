package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/wg/internal/absence"
	"github.com/dukerupert/wg/internal/auth"
	"github.com/dukerupert/wg/internal/chore"
	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/handler"
	"github.com/dukerupert/wg/internal/metrics"
	"github.com/dukerupert/wg/internal/middleware"
	"github.com/dukerupert/wg/internal/push"
	"github.com/dukerupert/wg/internal/scoring"
	"github.com/dukerupert/wg/internal/store"
	ws "github.com/dukerupert/wg/internal/websocket"
)

// Config carries what the router needs beyond the database.
type Config struct {
	BaseURL    string
	SessionTTL time.Duration
	Clock      clock.Clock
	Metrics    *metrics.Metrics
	// Push is nil when VAPID keys are not configured.
	Push *push.Service
}

type Server struct {
	db      *sql.DB
	hub     *ws.Hub
	metrics *metrics.Metrics

	authH      *handler.AuthHandler
	userH      *handler.UserHandler
	choreListH *handler.ChoreListHandler
	choreH     *handler.ChoreHandler
	activityH  *handler.ActivityHandler
	absenceH   *handler.AbsenceHandler
	pushH      *handler.PushHandler

	manager        *auth.Manager
	userStore      *store.UserStore
	choreListStore *store.ChoreListStore
	pushStore      *store.PushStore
	scoring        *scoring.Service
	rateLimiter    *middleware.RateLimiter
	logger         *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System
	}
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db, clk)
	sessionStore := store.NewSessionStore(db, clk)
	choreListStore := store.NewChoreListStore(db, clk)
	choreStore := store.NewChoreStore(db, clk)
	activityStore := store.NewActivityStore(db, clk)
	absenceStore := store.NewAbsenceStore(db, clk)
	pushStore := store.NewPushStore(db, clk)

	opts := []auth.Option{auth.WithMetrics(cfg.Metrics)}
	if cfg.SessionTTL > 0 {
		opts = append(opts, auth.WithTTL(cfg.SessionTTL))
	}
	manager := auth.NewManager(userStore, sessionStore, clk, logger.With("component", "auth"), opts...)

	choreSvc := chore.NewService(choreListStore, choreStore, activityStore, clk, logger.With("component", "chore"))
	absenceSvc := absence.NewService(absenceStore, clk)
	scoringSvc := scoring.NewService(activityStore, userStore, absenceStore, clk)

	return &Server{
		db:             db,
		hub:            hub,
		metrics:        cfg.Metrics,
		authH:          handler.NewAuthHandler(manager, cfg.BaseURL, logger.With("component", "auth")),
		userH:          handler.NewUserHandler(manager, hub, logger.With("component", "user")),
		choreListH:     handler.NewChoreListHandler(choreSvc, scoringSvc, hub, logger.With("component", "chore_list")),
		choreH:         handler.NewChoreHandler(choreSvc, hub, logger.With("component", "chore")),
		activityH:      handler.NewActivityHandler(choreSvc, hub, cfg.Metrics, logger.With("component", "activity")),
		absenceH:       handler.NewAbsenceHandler(absenceSvc, hub, logger.With("component", "absence")),
		pushH:          handler.NewPushHandler(pushStore, cfg.Push, logger.With("component", "push_handler")),
		manager:        manager,
		userStore:      userStore,
		choreListStore: choreListStore,
		pushStore:      pushStore,
		scoring:        scoringSvc,
		rateLimiter:    middleware.NewRateLimiter(clk),
		logger:         logger,
	}
}

// AuthManager returns the session manager for startup and cleanup tasks.
func (s *Server) AuthManager() *auth.Manager {
	return s.manager
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) UserStore() *store.UserStore {
	return s.userStore
}

func (s *Server) ChoreListStore() *store.ChoreListStore {
	return s.choreListStore
}

// PushStore returns the push store, which also records sent notifications.
func (s *Server) PushStore() *store.PushStore {
	return s.pushStore
}

func (s *Server) Scoring() *scoring.Service {
	return s.scoring
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", handler.Health(s.db))
	if s.metrics != nil {
		outerMux.Handle("GET /metrics", s.metrics.Handler())
	}

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.manager, s.logger.With("component", "auth"))
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"), s.metrics)(outerMux)
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 10, time.Minute)
	return rl(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Users
	mux.HandleFunc("GET /api/users", s.userH.List)
	mux.HandleFunc("POST /api/users", s.userH.Create)
	mux.HandleFunc("PUT /api/users/{id}", s.userH.Update)
	mux.HandleFunc("DELETE /api/users/{id}", s.userH.Delete)
	mux.HandleFunc("POST /api/users/{id}/restore", s.userH.Restore)

	// Chore lists
	mux.HandleFunc("GET /api/chore-lists", s.choreListH.List)
	mux.HandleFunc("POST /api/chore-lists", s.choreListH.Create)
	mux.HandleFunc("GET /api/chore-lists/{id}", s.choreListH.Get)
	mux.HandleFunc("PUT /api/chore-lists/{id}", s.choreListH.Update)
	mux.HandleFunc("DELETE /api/chore-lists/{id}", s.choreListH.Delete)
	mux.HandleFunc("POST /api/chore-lists/{id}/restore", s.choreListH.Restore)
	mux.HandleFunc("GET /api/chore-lists/{id}/scores", s.choreListH.Scores)

	// Chores
	mux.HandleFunc("GET /api/chore-lists/{id}/chores", s.choreH.List)
	mux.HandleFunc("POST /api/chore-lists/{id}/chores", s.choreH.Create)
	mux.HandleFunc("PUT /api/chore-lists/{id}/chores/{chore_id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chore-lists/{id}/chores/{chore_id}", s.choreH.Delete)
	mux.HandleFunc("POST /api/chore-lists/{id}/chores/{chore_id}/restore", s.choreH.Restore)

	// Activities
	mux.HandleFunc("GET /api/chore-lists/{id}/activities", s.activityH.List)
	mux.HandleFunc("POST /api/chore-lists/{id}/activities", s.activityH.Create)
	mux.HandleFunc("PUT /api/chore-lists/{id}/activities/{activity_id}", s.activityH.Update)
	mux.HandleFunc("DELETE /api/chore-lists/{id}/activities/{activity_id}", s.activityH.Delete)
	mux.HandleFunc("POST /api/chore-lists/{id}/activities/{activity_id}/restore", s.activityH.Restore)

	// Absences
	mux.HandleFunc("GET /api/absences", s.absenceH.List)
	mux.HandleFunc("POST /api/absences", s.absenceH.Create)
	mux.HandleFunc("PUT /api/absences/{id}", s.absenceH.Update)
	mux.HandleFunc("DELETE /api/absences/{id}", s.absenceH.Delete)
	mux.HandleFunc("POST /api/absences/{id}/restore", s.absenceH.Restore)

	// Push notifications
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
