package router

import (
	"context"
	"net/http"
	"testing"

	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/httpclient"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	log := logger.NewNoopLogger()

	tests := []struct {
		name  string
		err   error
		retry bool
	}{
		{"receiver unavailable", httpclient.NewError(http.StatusServiceUnavailable, nil), true},
		{"receiver throttled", httpclient.NewError(http.StatusTooManyRequests, nil), true},
		{"receiver rejected", httpclient.NewError(http.StatusBadRequest, nil), false},
		{"bad payload", ierr.NewError("bad payload").Mark(ierr.ErrValidation), false},
		{"gone", ierr.NewError("gone").Mark(ierr.ErrNotFound), false},
		{"ledger rule", ierr.NewError("paid").Mark(ierr.ErrInvoiceAlreadyPaid), false},
		{"cancelled", ierr.WithError(context.Canceled).Mark(ierr.ErrSystem), false},
		{"database down", ierr.NewError("db down").Mark(ierr.ErrDatabase), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retry, shouldRetry(log, tt.err))
		})
	}
}
