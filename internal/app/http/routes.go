package routes

import (
	adminapi "github.com/DiegoLonghys/next-stripe-demo/internal/api/admin"
	authapi "github.com/DiegoLonghys/next-stripe-demo/internal/api/auth"
	billingapi "github.com/DiegoLonghys/next-stripe-demo/internal/api/billing"
	eventsapi "github.com/DiegoLonghys/next-stripe-demo/internal/api/events"
	plansapi "github.com/DiegoLonghys/next-stripe-demo/internal/api/plans"
	stripewebhooks "github.com/DiegoLonghys/next-stripe-demo/internal/api/stripewebhook"
	usersapi "github.com/DiegoLonghys/next-stripe-demo/internal/api/users"
	"github.com/DiegoLonghys/next-stripe-demo/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, hooks *stripewebhooks.Handler, billing *billingapi.Handler) {
	// Raw body required for signature verification; no sanitization here.
	r.POST("/webhook", hooks.HandleWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.POST("/register", authapi.Register)
	public.POST("/login", authapi.Login)
	public.GET("/plans", plansapi.ListPlans)
	public.GET("/verify", usersapi.VerifyEmail)
	public.POST("/resend-verification", authapi.ResendVerification)
	public.POST("/request-password-reset", authapi.RequestPasswordReset)
	public.POST("/reset-password", authapi.ResetPassword)

	public.GET("/auth/google", authapi.GoogleStart)
	public.GET("/auth/google/callback", authapi.GoogleCallback)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware())
	auth.GET("/me", usersapi.GetCurrentUser)
	auth.POST("/change-password", authapi.ChangePassword)

	auth.GET("/subscription", billing.GetSubscription)
	auth.GET("/invoices", billing.GetInvoiceHistory)
	auth.POST("/create-checkout-session", billing.CreateCheckoutSession)

	auth.GET("/events", eventsapi.ListEvents)
	auth.POST("/events", eventsapi.CreateEvent)
	auth.GET("/events/:id", eventsapi.GetEvent)
	auth.PUT("/events/:id", eventsapi.UpdateEvent)
	auth.DELETE("/events/:id", eventsapi.DeleteEvent)
	auth.POST("/events/:id/publish", eventsapi.PublishEvent)
	auth.POST("/events/:id/unpublish", eventsapi.UnpublishEvent)

	// Paid subscribers
	subscribed := auth.Group("/")
	subscribed.Use(middleware.RequirePaidSubscription())
	subscribed.POST("/billing-portal", billing.CreateBillingPortal)
	subscribed.POST("/cancel-subscription", billing.CancelSubscription)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"))
	admin.GET("/users", adminapi.ListAllUsers)
	admin.GET("/invoices", adminapi.ListAllInvoices)
	admin.GET("/stats", adminapi.GetAdminStats)
	admin.GET("/user/:id", adminapi.GetUserDetails)
}
