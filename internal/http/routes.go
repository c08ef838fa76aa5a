package http

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/petitions/internal/logging"
	"github.com/sujalbistaa/petitions/internal/metrics"
	"github.com/sujalbistaa/petitions/internal/ws"
)

const (
	rateLimitRPS   = 1.0 / 3.0 // 1 request every 3 seconds
	rateLimitBurst = 1

	limiterSweepInterval = 10 * time.Minute
)

// Options carries the router settings that are not handler dependencies.
type Options struct {
	CORSOrigin string
	// Limiter throttles supporter creation; nil uses the default rate.
	Limiter *IPRateLimiter
}

// SetupRoutes configures all application routes and middleware. Background
// work started here stops when ctx is cancelled.
func SetupRoutes(ctx context.Context, router *gin.Engine, env *Env, opts Options) {

	// --- Middleware ---
	router.Use(logging.Middleware(env.Log))
	router.Use(logging.Recovery(env.Log))
	router.Use(metrics.Middleware())
	router.Use(SecurityHeadersMiddleware())

	corsOrigin := opts.CORSOrigin
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", authHeader, logging.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logging.RequestIDHeader},
		AllowCredentials: corsOrigin != "*",
	}))

	// --- Rate Limiter Setup ---
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewIPRateLimiter(rate.Limit(rateLimitRPS), rateLimitBurst)
	}
	go limiter.RunSweeper(ctx, limiterSweepInterval)

	requireAuth := AuthMiddleware(env.Tokens)

	// --- API Routes ---
	api := router.Group("/api/v1")
	{
		api.GET("/petitions", env.ListPetitions)
		api.GET("/petitions/categories", env.GetCategories)
		api.GET("/petitions/:id", env.GetPetition)
		api.POST("/petitions", requireAuth, env.CreatePetition)
		api.PATCH("/petitions/:id", requireAuth, env.EditPetition)
		api.DELETE("/petitions/:id", requireAuth, env.DeletePetition)

		api.PUT("/petitions/:id/supportTiers", requireAuth, env.AddSupportTier)
		api.PATCH("/petitions/:id/supportTiers/:tierId", requireAuth, env.EditSupportTier)
		api.DELETE("/petitions/:id/supportTiers/:tierId", requireAuth, env.DeleteSupportTier)

		api.GET("/petitions/:id/supporters", env.ListSupporters)
		api.POST("/petitions/:id/supporters", requireAuth, RateLimitMiddleware(limiter), env.AddSupporter)
	}

	// --- WebSocket Route ---
	router.GET("/ws", func(c *gin.Context) {
		if err := ws.ServeWs(env.Hub, c.Writer, c.Request); err != nil {
			env.Log.Warn("websocket upgrade failed", zap.Error(err))
		}
	})

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/healthz", env.Healthz)
}
