package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-billing/internal/config"
	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/internal/infrastructure/database"
	"github.com/sangkips/investify-billing/internal/presentation/http/handler"
	"github.com/sangkips/investify-billing/internal/presentation/http/middleware"
	"github.com/sangkips/investify-billing/pkg/logger"
	"github.com/sangkips/investify-billing/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth         *handler.AuthHandler
	Customer     *handler.CustomerHandler
	Invoice      *handler.InvoiceHandler
	Quote        *handler.QuoteHandler
	Payment      *handler.PaymentHandler
	Subscription *handler.SubscriptionHandler
	Report       *handler.ReportHandler
	Health       *handler.HealthHandler
	// Jobs is nil when the process runs without a scheduler
	Jobs *handler.JobHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.RateLimiter
	Log             *logger.Logger
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", h.Health.Check)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.Health.Check)

		auth := v1.Group("/auth")
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)

		// The gateway signs its requests instead of sending a bearer token.
		v1.POST("/payments/webhook", deps.RateLimiter.Middleware(), h.Payment.Webhook)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(deps.RateLimiter.Middleware())

		protected.GET("/profile", h.Auth.Profile)
		protected.PUT("/profile/password", h.Auth.ChangePassword)

		scoped := protected.Group("")
		scoped.Use(middleware.RequireTenant())

		registerCustomerRoutes(scoped, h)
		registerInvoiceRoutes(scoped, h)
		registerQuoteRoutes(scoped, h)
		registerPaymentRoutes(scoped, h, deps)
		registerSubscriptionRoutes(scoped, h)

		scoped.GET("/reports/billing", middleware.RequirePermission(database.PermViewReports), h.Report.Billing)

		if h.Jobs != nil {
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole("super-admin"))
			admin.GET("/jobs", h.Jobs.List)
			admin.POST("/jobs/:name/run", h.Jobs.Run)
		}
	}

	return router
}

func registerCustomerRoutes(rg *gin.RouterGroup, h *Handlers) {
	customers := rg.Group("/customers")
	customers.Use(middleware.RequirePermission(database.PermManageCustomers))
	{
		customers.GET("", h.Customer.List)
		customers.POST("", h.Customer.Create)
		customers.GET("/:id", h.Customer.Get)
		customers.PUT("/:id", h.Customer.Update)
		customers.DELETE("/:id", h.Customer.Delete)
	}
}

func registerInvoiceRoutes(rg *gin.RouterGroup, h *Handlers) {
	invoices := rg.Group("/invoices")
	invoices.Use(middleware.RequirePermission(database.PermManageInvoices))
	{
		invoices.GET("", h.Invoice.List)
		invoices.POST("", h.Invoice.Create)
		invoices.POST("/reminders/bulk", h.Invoice.BulkRemind)
		invoices.GET("/:id", h.Invoice.Get)
		invoices.PUT("/:id", h.Invoice.Update)
		invoices.DELETE("/:id", h.Invoice.Delete)
		invoices.POST("/:id/send", h.Invoice.Send)
		invoices.POST("/:id/view", h.Invoice.View)
		invoices.POST("/:id/pay", h.Invoice.Pay)
		invoices.POST("/:id/cancel", h.Invoice.Cancel)
		invoices.POST("/:id/remind", h.Invoice.Remind)
		invoices.POST("/:id/schedule-reminder", h.Invoice.ScheduleReminder)
		invoices.POST("/:id/duplicate", h.Invoice.Duplicate)
		invoices.GET("/:id/pdf", h.Invoice.PDF)
	}
}

func registerQuoteRoutes(rg *gin.RouterGroup, h *Handlers) {
	quotes := rg.Group("/quotes")
	quotes.Use(middleware.RequirePermission(database.PermManageQuotes))
	{
		quotes.GET("", h.Quote.List)
		quotes.POST("", h.Quote.Create)
		quotes.GET("/:id", h.Quote.Get)
		quotes.PUT("/:id", h.Quote.Update)
		quotes.DELETE("/:id", h.Quote.Delete)
		quotes.POST("/:id/send", h.Quote.Send)
		quotes.POST("/:id/accept", h.Quote.Accept)
		quotes.POST("/:id/reject", h.Quote.Reject)
		quotes.POST("/:id/convert", h.Quote.Convert)
		quotes.POST("/:id/duplicate", h.Quote.Duplicate)
		quotes.POST("/:id/items", h.Quote.AddItem)
		quotes.PUT("/:id/items/:item_id", h.Quote.UpdateItem)
		quotes.DELETE("/:id/items/:item_id", h.Quote.RemoveItem)
	}
}

func registerPaymentRoutes(rg *gin.RouterGroup, h *Handlers, deps *Deps) {
	idempotent := middleware.Idempotency(middleware.IdempotencyConfig{
		Repo: deps.IdempotencyRepo,
		Log:  deps.Log,
	})

	payments := rg.Group("/payments")
	payments.Use(middleware.RequirePermission(database.PermManagePayments))
	{
		payments.GET("", h.Payment.List)
		payments.POST("", middleware.Idempotency(middleware.IdempotencyConfig{
			Repo:     deps.IdempotencyRepo,
			Log:      deps.Log,
			Required: true,
		}), h.Payment.Create)
		payments.GET("/:id", h.Payment.Get)
		payments.POST("/:id/confirm", idempotent, h.Payment.Confirm)
		payments.POST("/:id/refund", idempotent, h.Payment.Refund)
		payments.POST("/:id/cancel", h.Payment.Cancel)
		payments.PUT("/:id/status", h.Payment.UpdateStatus)
	}
}

func registerSubscriptionRoutes(rg *gin.RouterGroup, h *Handlers) {
	subs := rg.Group("/subscriptions")
	subs.Use(middleware.RequirePermission(database.PermManageSubscriptions))
	{
		subs.GET("", h.Subscription.List)
		subs.POST("", h.Subscription.Create)
		subs.GET("/:id", h.Subscription.Get)
		subs.PUT("/:id", h.Subscription.Update)
		subs.POST("/:id/cancel", h.Subscription.Cancel)
		subs.POST("/:id/pause", h.Subscription.Pause)
		subs.POST("/:id/resume", h.Subscription.Resume)
		subs.POST("/:id/sync", h.Subscription.Sync)
		subs.GET("/:id/proration", h.Subscription.Proration)
	}
}
