package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/distillhq/distillery/internal/api/handlers"
	"github.com/distillhq/distillery/internal/api/middleware"
	"github.com/distillhq/distillery/internal/auth"
	"github.com/distillhq/distillery/internal/cache"
	"github.com/distillhq/distillery/internal/config"
	"github.com/distillhq/distillery/internal/embedding"
	"github.com/distillhq/distillery/internal/provider"
	"github.com/distillhq/distillery/internal/queue"
	"github.com/distillhq/distillery/internal/registry"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	jwt   *auth.JWTMiddleware
}

// NewRouter wires the API. db may be nil; registry-backed endpoints
// then answer 503.
func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		jwt:   auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
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

	rl := middleware.NewRateLimiter(rt.cfg.Server.RateLimitRPS, rt.cfg.Server.RateLimitBurst)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Initialize services
	var reg *registry.Registry
	if rt.db != nil {
		reg = registry.New(rt.db)
	}
	queueClient := queue.NewClient(rt.cfg.Redis)

	providerClient := provider.NewClient(rt.cfg.OpenAI)
	embedSvc := embedding.NewService(providerClient, cache.NewCache(rt.redis),
		rt.cfg.Pipeline.EmbeddingModel, rt.cfg.Pipeline.EmbeddingDims, rt.cfg.Pipeline.EmbeddingTTL)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		runsH := handlers.NewRunsHandler(queueClient, reg, rt.cfg.Pipeline)
		r.Route("/runs", func(r chi.Router) {
			r.Post("/generate", runsH.Generate)
			r.Get("/", runsH.List)
			r.Get("/{id}", runsH.Get)
		})

		datasetsH := handlers.NewDatasetsHandler()
		r.Route("/datasets", func(r chi.Router) {
			r.Post("/validate", datasetsH.Validate)
			r.Post("/split", datasetsH.Split)
		})

		finetuneH := handlers.NewFinetuneHandler(queueClient, reg)
		r.Route("/finetune", func(r chi.Router) {
			r.Post("/jobs", finetuneH.StartJob)
			r.Get("/jobs", finetuneH.ListJobs)
			r.Get("/jobs/{id}", finetuneH.GetJob)
			r.Get("/models", finetuneH.ListModels)
		})

		evalH := handlers.NewEvalHandler(queueClient, reg, embedSvc)
		r.Route("/eval", func(r chi.Router) {
			r.Post("/runs", evalH.Start)
			r.Get("/runs/{id}/scores", evalH.Scores)
			r.Post("/runs/{id}/similar", evalH.Similar)
		})
	})

	return r
}
