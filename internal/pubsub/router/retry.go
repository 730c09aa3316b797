package router

import (
	"context"
	"net"
	"net/http"

	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/httpclient"
	"github.com/flexprice/ledger/internal/logger"
)

// retryableStatus lists the receiver responses worth another delivery attempt
var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:     true,
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// shouldRetry decides whether a failed consumer hands the message back to the
// router. Errors a redelivery can not fix are dropped after logging.
func shouldRetry(log *logger.Logger, err error) bool {
	if httpErr, ok := httpclient.IsHTTPError(err); ok {
		retry := retryableStatus[httpErr.StatusCode]
		log.Debugw("consumer got http error",
			"status_code", httpErr.StatusCode,
			"retry", retry,
		)
		return retry
	}

	var netErr net.Error
	if ierr.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if ierr.Is(err, context.Canceled) {
		return false
	}

	switch {
	case ierr.IsValidation(err),
		ierr.IsNotFound(err),
		ierr.IsPermissionDenied(err),
		ierr.IsLedgerRule(err):
		return false
	}
	return true
}
