package v1

import (
	"net/http"

	"github.com/flexprice/ledger/internal/api/dto"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/service"
	"github.com/flexprice/ledger/internal/types"
	"github.com/gin-gonic/gin"
)

type RefundHandler struct {
	service service.RefundService
	log     *logger.Logger
}

func NewRefundHandler(service service.RefundService, log *logger.Logger) *RefundHandler {
	return &RefundHandler{service: service, log: log}
}

// @Summary Create a refund
// @Description Refund a completed payment. Set process to false to keep the refund pending.
// @Tags Refunds
// @Accept json
// @Produce json
// @Param refund body dto.CreateRefundRequest true "Refund details"
// @Success 201 {object} dto.RefundResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /refunds [post]
func (h *RefundHandler) CreateRefund(c *gin.Context) {
	var req dto.CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	resp, err := h.service.CreateRefund(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a refund
// @Tags Refunds
// @Produce json
// @Param id path int true "Refund ID"
// @Success 200 {object} dto.RefundResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /refunds/{id} [get]
func (h *RefundHandler) GetRefund(c *gin.Context) {
	id, err := parseID(c, "Refund")
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.GetRefund(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List refunds
// @Tags Refunds
// @Produce json
// @Param filter query types.RefundFilter false "Filter"
// @Success 200 {object} dto.ListRefundsResponse
// @Router /refunds [get]
func (h *RefundHandler) ListRefunds(c *gin.Context) {
	var filter types.RefundFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(bindError(err))
		return
	}

	resp, err := h.service.ListRefunds(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Process a pending refund
// @Tags Refunds
// @Produce json
// @Param id path int true "Refund ID"
// @Success 200 {object} dto.RefundResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /refunds/{id}/process [post]
func (h *RefundHandler) ProcessRefund(c *gin.Context) {
	id, err := parseID(c, "Refund")
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.ProcessRefund(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Cancel a pending refund
// @Tags Refunds
// @Produce json
// @Param id path int true "Refund ID"
// @Success 200 {object} dto.RefundResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /refunds/{id}/cancel [post]
func (h *RefundHandler) CancelRefund(c *gin.Context) {
	id, err := parseID(c, "Refund")
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.CancelRefund(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
