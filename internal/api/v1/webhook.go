package v1

import (
	"net/http"
	"strconv"

	"github.com/flexprice/ledger/internal/api/dto"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/service"
	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	service service.WebhookService
	log     *logger.Logger
}

func NewWebhookHandler(service service.WebhookService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, log: log}
}

// @Summary Register a webhook endpoint
// @Description The generated signing secret is only returned by this call
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param registration body dto.CreateWebhookRegistrationRequest true "Registration"
// @Success 201 {object} dto.WebhookRegistrationResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /webhooks/registrations [post]
func (h *WebhookHandler) CreateRegistration(c *gin.Context) {
	var req dto.CreateWebhookRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	resp, err := h.service.CreateRegistration(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a webhook registration
// @Tags Webhooks
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} dto.WebhookRegistrationResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /webhooks/registrations/{id} [get]
func (h *WebhookHandler) GetRegistration(c *gin.Context) {
	resp, err := h.service.GetRegistration(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List a provider's webhook registrations
// @Tags Webhooks
// @Produce json
// @Param provider_id query int true "Provider ID"
// @Success 200 {object} dto.ListWebhookRegistrationsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /webhooks/registrations [get]
func (h *WebhookHandler) ListRegistrations(c *gin.Context) {
	providerID, err := strconv.ParseInt(c.Query("provider_id"), 10, 64)
	if err != nil || providerID <= 0 {
		c.Error(ierr.NewError("provider_id is required").
			WithHint("Provider ID must be a positive number").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ListRegistrations(c.Request.Context(), providerID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Delete a webhook registration
// @Tags Webhooks
// @Param id path string true "Registration ID"
// @Success 204
// @Failure 404 {object} ierr.ErrorResponse
// @Router /webhooks/registrations/{id} [delete]
func (h *WebhookHandler) DeleteRegistration(c *gin.Context) {
	if err := h.service.DeleteRegistration(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
