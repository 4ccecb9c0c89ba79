package routes

import (
	authapi "qrmenu-backend/internal/api/auth"
	restaurantsapi "qrmenu-backend/internal/api/restaurants"
	subscriptionapi "qrmenu-backend/internal/api/subscription"
	stripewebhooks "qrmenu-backend/internal/api/stripewebhook"
	usersapi "qrmenu-backend/internal/api/users"
	"qrmenu-backend/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	// webhook reads its own raw body, keep it outside the sanitizer
	r.POST("/api/subscription/webhook", stripewebhooks.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// public menu lookup behind the printed QR code
	r.GET("/menu/:qrToken", restaurantsapi.GetMenuByToken)

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.POST("/register", authapi.Register)
	public.POST("/login", authapi.Login)

	public.GET("/auth/google", authapi.GoogleStart)
	public.GET("/auth/google/callback", authapi.GoogleCallback)

	// Authenticated
	auth := r.Group("/api")
	auth.Use(middleware.AuthMiddleware())
	auth.GET("/me", usersapi.GetCurrentUser)

	auth.GET("/subscription/status", subscriptionapi.GetStatus)
	auth.POST("/subscription/create-checkout", subscriptionapi.CreateCheckoutSession)
	auth.GET("/subscription/history", subscriptionapi.GetHistory)
	auth.POST("/subscription/cancel", subscriptionapi.Cancel)
	auth.POST("/subscription/reconcile", subscriptionapi.Reconcile)

	auth.POST("/restaurants", restaurantsapi.CreateRestaurant)

	// Restaurant-mutating routes require an active subscription or trial
	gated := auth.Group("/")
	gated.Use(middleware.RequireActiveSubscription())
	gated.PUT("/restaurants/:id", restaurantsapi.UpdateRestaurant)
	gated.DELETE("/restaurants/:id", restaurantsapi.DeleteRestaurant)
	gated.POST("/restaurants/:id/qr", restaurantsapi.RegenerateQR)
}
