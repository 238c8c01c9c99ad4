package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hbnoboa/CRM-Builder-sub000/internal/api/handlers"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/api/middleware"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/audit"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/auth"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/cache"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/config"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/copyengine"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/queue"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/tenant"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	ts    *tenant.Service
	jwt   *auth.JWTMiddleware
	rbac  *auth.RBAC
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	ts := tenant.NewService(db)
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		ts:    ts,
		jwt:   auth.NewJWTMiddleware(cfg.Auth.JWTSecret, ts),
		rbac:  auth.NewRBAC(db),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Initialize services
	auditSvc := audit.NewService(rt.db)
	queueClient := queue.NewClient(rt.cfg.Redis)
	redisCache := cache.NewCache(rt.redis)
	engine := copyengine.NewEngine(copyengine.NewPostgresDB(rt.db), rt.cfg.Copy.TxTimeout)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		tenantH := handlers.NewTenantHandler(rt.ts)
		r.Route("/tenants", func(r chi.Router) {
			r.Post("/", tenantH.Create)
			r.Get("/{id}", tenantH.Get)
		})

		copyH := handlers.NewCopyHandler(engine, redisCache, auditSvc, queueClient, rt.cfg.Copy)
		r.Route("/copy", func(r chi.Router) {
			r.With(rt.rbac.RequirePermission(auth.PermCopyRead)).
				Get("/preview/{tenantID}", copyH.Preview)
			r.With(rt.rbac.RequirePermission(auth.PermCopyExecute)).
				Post("/execute", copyH.Execute)
			r.With(rt.rbac.RequirePermission(auth.PermCopyExecute)).
				Post("/jobs", copyH.Enqueue)
		})

		adminH := handlers.NewAdminHandler(auditSvc)
		r.Route("/admin", func(r chi.Router) {
			r.Use(rt.rbac.RequirePermission(auth.PermAdminRead))
			r.Get("/audit", adminH.AuditLogs)
		})
	})

	return r
}
