package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware, ActorMiddleware, ErrorHandler(logger.NewNoopLogger()))
	r.GET("/test", handler)
	return r
}

func TestErrorHandlerRendersLedgerError(t *testing.T) {
	r := newTestRouter(func(c *gin.Context) {
		c.Error(ierr.NewError("refund too large").
			WithHint("Refund exceeds the refundable amount of 40.00").
			WithReportableDetails(map[string]any{"payment_id": 7}).
			Mark(ierr.ErrRefundExceedsRefundable))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ierr.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Refund exceeds the refundable amount of 40.00", resp.Error.Display)
	assert.Equal(t, ierr.ErrCodeRefundExceedsRefundable, resp.Error.Code)
	assert.Equal(t, float64(7), resp.Error.Details["payment_id"])
	assert.Contains(t, resp.Error.InternalError, "refund too large")
}

func TestErrorHandlerFallsBackForPlainErrors(t *testing.T) {
	r := newTestRouter(func(c *gin.Context) {
		c.Error(assert.AnError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ierr.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, defaultDisplayMessage, resp.Error.Display)
	assert.Equal(t, ierr.ErrCodeSystemError, resp.Error.Code)
	assert.Nil(t, resp.Error.Details)
}

func TestRequestScope(t *testing.T) {
	var requestID, actorID string
	r := newTestRouter(func(c *gin.Context) {
		requestID = types.GetRequestID(c.Request.Context())
		actorID = types.GetActorID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(types.HeaderRequestID, "req-1")
	req.Header.Set(types.HeaderActorID, "admin-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", requestID)
	assert.Equal(t, "admin-1", actorID)
	assert.Equal(t, "req-1", w.Header().Get(types.HeaderRequestID))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, types.DefaultActorID, actorID)
	assert.NotEmpty(t, requestID)
	assert.NotEqual(t, "req-1", requestID)
}
