package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/teamloop/feedbackhub/internal/auth"
	"github.com/teamloop/feedbackhub/internal/cache"
	"github.com/teamloop/feedbackhub/internal/config"
	"github.com/teamloop/feedbackhub/internal/domain/user"
	"github.com/teamloop/feedbackhub/internal/http/handlers"
	"github.com/teamloop/feedbackhub/internal/http/middlewares"
	"github.com/teamloop/feedbackhub/internal/observability"
	"github.com/teamloop/feedbackhub/internal/queue/redisclient"
	"github.com/teamloop/feedbackhub/internal/repo/postgres"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const listCacheTTL = 10 * time.Second

func NewRouter(
	log *slog.Logger,
	pool *pgxpool.Pool,
	redisClient *redisclient.Client,
	prom *observability.Prom,
	metrics http.Handler,
	cfg config.Config,
) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(otelgin.Middleware("feedbackhub"))
	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.RequireJSON())

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/", h.Root)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	feedbackRepo := postgres.NewFeedbackRepo(pool, prom)
	jobsRepo := postgres.NewJobsRepo(pool, prom)

	listCache := cache.NewRedisCache(redisClient, listCacheTTL)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	authMw := middlewares.NewAuthMiddleware(jwtManager, usersRepo)

	authLimiter := middlewares.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
	apiLimiter := middlewares.NewRateLimiter(120, time.Minute)

	// handlers
	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackRepo, jobsRepo, listCache, log)

	authGroup := r.Group("/api/auth")
	authGroup.Use(authLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	{
		authGroup.POST("/signup", authHandler.SignUp)
		authGroup.POST("/login", authHandler.Login)
	}

	fb := r.Group("/api/feedback")
	fb.Use(authMw.RequireAuth())
	fb.Use(apiLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))
	{
		fb.POST("/", authMw.RequireRole(user.RoleManager), feedbackHandler.Submit)
		fb.GET("/employee", authMw.RequireRole(user.RoleEmployee), feedbackHandler.ListForEmployee)
		fb.GET("/manager", authMw.RequireRole(user.RoleManager), feedbackHandler.ListForManager)
		fb.PUT("/acknowledge", authMw.RequireRole(user.RoleEmployee), feedbackHandler.Acknowledge)
	}

	return r
}
