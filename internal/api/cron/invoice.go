package cron

import (
	"net/http"
	"time"

	"github.com/flexprice/ledger/internal/api/dto"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/service"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice related cron jobs
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	logger         *logger.Logger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService service.InvoiceService, logger *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// MarkOverdueInvoices flags every pending invoice whose due date has passed.
// External schedulers call it when the temporal worker is not deployed.
func (h *InvoiceHandler) MarkOverdueInvoices(c *gin.Context) {
	var req dto.OverdueSweepRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Invalid request format").
				Mark(ierr.ErrValidation))
			return
		}
	}

	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = req.AsOf.UTC()
	}

	h.logger.WithContext(c.Request.Context()).Infow("starting overdue invoice sweep", "as_of", asOf)

	resp, err := h.invoiceService.MarkOverdueInvoices(c.Request.Context(), asOf)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
