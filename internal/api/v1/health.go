package v1

import (
	"net/http"

	"github.com/flexprice/ledger/internal/config"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	components gin.H
}

// NewHealthHandler reports the ledger store, gateway and event bus the
// process was configured with
func NewHealthHandler(cfg *config.Configuration) *HealthHandler {
	return &HealthHandler{
		components: gin.H{
			"store":   cfg.Ledger.Store,
			"gateway": cfg.Gateway.Type,
			"bus":     cfg.EventBus.PubSub,
		},
	}
}

// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "components": h.components})
}
