package rest

import (
	"github.com/Dhoini/publishing-platform/internal/api/rest/handlers"
	"github.com/Dhoini/publishing-platform/internal/api/rest/middleware"
	authmw "github.com/Dhoini/publishing-platform/internal/middleware"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps все, что нужно маршрутизатору. Limiter и Registry необязательны.
type RouterDeps struct {
	Auth          *handlers.AuthHandler
	Articles      *handlers.ArticleHandler
	Subscriptions *handlers.SubscriptionHandler
	Tags          *handlers.TagHandler
	Webhooks      *handlers.WebhookHandler
	JWT           *authmw.JWTMiddleware
	Limiter       authmw.Limiter
	Store         handlers.Pinger
	Registry      *prometheus.Registry
	Log           *logger.Logger
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(d RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.LoggerMiddleware(d.Log))
	r.Use(gin.Recovery())

	r.GET("/health", handlers.HealthCheck)
	r.GET("/ready", handlers.ReadinessCheck(d.Store))

	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	requireAuth := d.JWT.RequireAuth()

	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		if d.Limiter != nil {
			authGroup.Use(authmw.RateLimit(d.Limiter, "auth", d.Log))
		}
		{
			authGroup.POST("/register", d.Auth.Register)
			authGroup.POST("/login", d.Auth.Login)
		}
		v1.GET("/auth/me", requireAuth, d.Auth.Me)

		// Публичная выдача и просмотр
		v1.GET("/articles", d.Articles.List)
		v1.GET("/articles/:id", d.Articles.Show)
		v1.GET("/tags", d.Tags.List)
		v1.GET("/tags/:id", d.Tags.Show)

		protected := v1.Group("", requireAuth)
		{
			protected.POST("/articles", d.Articles.Create)
			protected.PUT("/articles/:id", d.Articles.Update)
			protected.PATCH("/articles/:id", d.Articles.Update)
			protected.DELETE("/articles/:id", d.Articles.Delete)
			protected.POST("/articles/:id/boost", d.Articles.Boost)

			protected.POST("/tags", d.Tags.Create)
			protected.PUT("/tags/:id", d.Tags.Update)
			protected.DELETE("/tags/:id", d.Tags.Delete)

			protected.POST("/subscriptions/checkout", d.Subscriptions.Checkout)
			protected.GET("/subscriptions/current", d.Subscriptions.Current)
		}

		// Вебхук без авторизации, подлинность проверяется подписью
		v1.POST("/webhooks/stripe", d.Webhooks.HandleStripeWebhook)
	}

	return r
}
