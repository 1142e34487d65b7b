// Package server assembles the HTTP API: middleware, route groups, and the
// wiring between handlers and their collaborators.
package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/nosmoke/nosmoke-api/internal/auth"
	"github.com/nosmoke/nosmoke-api/internal/config"
	"github.com/nosmoke/nosmoke-api/internal/events"
	"github.com/nosmoke/nosmoke-api/internal/health"
	"github.com/nosmoke/nosmoke-api/internal/insights"
	"github.com/nosmoke/nosmoke-api/internal/payments"
	"github.com/nosmoke/nosmoke-api/internal/profile"
	"github.com/nosmoke/nosmoke-api/internal/progress"
	"github.com/nosmoke/nosmoke-api/internal/triggers"
	"github.com/nosmoke/nosmoke-api/internal/worker"
)

// New builds the gin engine with all routes registered.
func New(cfg *config.Config, db *gorm.DB, provider payments.Provider, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	r.Use(cors.New(corsConfig))

	store := events.NewStore(db)
	aggregator := progress.NewAggregator(store)

	api := r.Group("/api")
	{
		api.GET("/", health.RootHandler)
		api.GET("/health", health.Handler)
		api.POST("/webhook/stripe", payments.WebhookHandler(cfg.StripeWebhookSecret, rdb, worker.EnqueueFinalizeCheckout))
	}

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", auth.RegisterHandler(db, cfg.JWTSecret, cfg.TokenTTL))
		authGroup.POST("/login", auth.LoginHandler(db, cfg.JWTSecret, cfg.TokenTTL))
		authGroup.POST("/telegram", auth.TelegramHandler(db, cfg.JWTSecret, cfg.TokenTTL))
		authGroup.GET("/me", auth.RequireAuth(db, cfg.JWTSecret), auth.MeHandler())
	}

	protected := api.Group("", auth.RequireAuth(db, cfg.JWTSecret))
	{
		protected.POST("/events", events.CreateHandler(store))
		protected.GET("/events", events.ListHandler(store))
		protected.GET("/events/today", events.TodayHandler(store))

		protected.POST("/triggers", triggers.CreateHandler(db))
		protected.GET("/triggers", triggers.ListHandler(db))
		protected.GET("/triggers/patterns", triggers.PatternsHandler(db))

		protected.GET("/progress/summary", progress.SummaryHandler(aggregator))
		protected.GET("/progress/weekly", progress.WeeklyHandler(aggregator))
		protected.GET("/progress/monthly", progress.MonthlyHandler(aggregator))

		protected.PUT("/profile", profile.UpdateHandler(db))
		protected.GET("/profile/stats", profile.StatsHandler(db, store))

		protected.POST("/subscription/checkout", payments.CreateCheckoutHandler(db, provider))
		protected.GET("/subscription/status/:session_id", payments.CheckoutStatusHandler(db, provider))

		protected.GET("/insights", insights.ListHandler())
		protected.GET("/insights/education", insights.EducationHandler())
	}

	// Plan listing is public; no account needed to see pricing.
	api.GET("/subscription/plans", payments.PlansHandler())

	return r
}
