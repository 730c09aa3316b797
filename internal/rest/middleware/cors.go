package middleware

import (
	"net/http"
	"strings"

	"github.com/flexprice/ledger/internal/types"
	"github.com/gin-gonic/gin"
)

var corsExposed = strings.Join([]string{types.HeaderRequestID}, ", ")

// CORSMiddleware allows any origin and exposes the request id header so that
// browser clients can quote it in support requests
func CORSMiddleware(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "*")
	h.Set("Access-Control-Expose-Headers", corsExposed)
	h.Set("Access-Control-Max-Age", "86400")

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}
