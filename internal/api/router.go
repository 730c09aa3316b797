package api

import (
	"github.com/flexprice/ledger/internal/api/cron"
	v1 "github.com/flexprice/ledger/internal/api/v1"
	"github.com/flexprice/ledger/internal/config"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/pyroscope"
	"github.com/flexprice/ledger/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health      *v1.HealthHandler
	Invoice     *v1.InvoiceHandler
	Payment     *v1.PaymentHandler
	Refund      *v1.RefundHandler
	Webhook     *v1.WebhookHandler
	CronInvoice *cron.InvoiceHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger, profiler *pyroscope.Service) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.PyroscopeMiddleware(profiler),
		middleware.RequestIDMiddleware,
		middleware.ActorMiddleware,
		middleware.SentryScopeMiddleware,
		middleware.LoggerMiddleware(logger),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)
	router.POST("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	v1Group.GET("/health", handlers.Health.Health)
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	invoices := router.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.DELETE("/:id", handlers.Invoice.DeleteInvoice)
		invoices.POST("/:id/cancel", handlers.Invoice.CancelInvoice)
		invoices.POST("/:id/mark-paid", handlers.Invoice.MarkInvoicePaid)
		invoices.POST("/:id/mark-overdue", handlers.Invoice.MarkInvoiceOverdue)
		invoices.POST("/:id/archive", handlers.Invoice.ArchiveInvoice)
	}

	payments := router.Group("/payments")
	{
		payments.POST("", handlers.Payment.SubmitPayment)
		payments.GET("", handlers.Payment.ListPayments)
		payments.GET("/:id", handlers.Payment.GetPayment)
		payments.DELETE("/:id", handlers.Payment.DeletePayment)
	}

	refunds := router.Group("/refunds")
	{
		refunds.POST("", handlers.Refund.CreateRefund)
		refunds.GET("", handlers.Refund.ListRefunds)
		refunds.GET("/:id", handlers.Refund.GetRefund)
		refunds.POST("/:id/process", handlers.Refund.ProcessRefund)
		refunds.POST("/:id/cancel", handlers.Refund.CancelRefund)
	}

	registrations := router.Group("/webhooks/registrations")
	{
		registrations.POST("", handlers.Webhook.CreateRegistration)
		registrations.GET("", handlers.Webhook.ListRegistrations)
		registrations.GET("/:id", handlers.Webhook.GetRegistration)
		registrations.DELETE("/:id", handlers.Webhook.DeleteRegistration)
	}

	cronGroup := router.Group("/cron")
	{
		cronGroup.POST("/invoices/overdue", handlers.CronInvoice.MarkOverdueInvoices)
	}
}
