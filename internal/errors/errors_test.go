package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromErr(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "ledger rule",
			err:    NewError("partial payment too large").WithHint("Amount exceeds remaining").Mark(ErrAmountExceedsRemaining),
			status: http.StatusUnprocessableEntity,
			code:   ErrCodeAmountExceedsRemaining,
		},
		{
			name:   "not found",
			err:    NewError("invoice not found").Mark(ErrNotFound),
			status: http.StatusNotFound,
			code:   ErrCodeNotFound,
		},
		{
			name:   "version conflict",
			err:    WithError(assert.AnError).Mark(ErrVersionConflict),
			status: http.StatusConflict,
			code:   ErrCodeVersionConflict,
		},
		{
			name:   "unmarked",
			err:    assert.AnError,
			status: http.StatusInternalServerError,
			code:   ErrCodeSystemError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatusFromErr(tt.err))
			assert.Equal(t, tt.code, CodeFromErr(tt.err))
		})
	}
}

func TestIsLedgerRule(t *testing.T) {
	assert.True(t, IsLedgerRule(NewError("x").Mark(ErrRefundExceedsRefundable)))
	assert.False(t, IsLedgerRule(NewError("x").Mark(ErrLedgerCorrupted)))
	assert.False(t, IsLedgerRule(NewError("x").Mark(ErrValidation)))
	assert.True(t, IsLedgerCorrupted(NewError("x").Mark(ErrLedgerCorrupted)))
}

func TestDisplayMessage(t *testing.T) {
	err := NewError("card declined").WithHint("The payment method was declined").Mark(ErrInvalidOperation)
	assert.Equal(t, "The payment method was declined", DisplayMessage(err))
	assert.Equal(t, "", DisplayMessage(assert.AnError))
}

func TestReportableDetailsMergeAcrossWraps(t *testing.T) {
	inner := NewError("refund too large").
		WithReportableDetails(map[string]any{"payment_id": 7}).
		WithReportableDetails(map[string]any{"refundable": "40"}).
		Mark(ErrRefundExceedsRefundable)
	outer := WithError(inner).
		WithReportableDetails(map[string]any{"operation": "create_refund"}).
		Mark(ErrRefundExceedsRefundable)

	details := ReportableDetails(outer)
	assert.Equal(t, float64(7), details["payment_id"])
	assert.Equal(t, "40", details["refundable"])
	assert.Equal(t, "create_refund", details["operation"])
	assert.True(t, Is(outer, ErrRefundExceedsRefundable))

	assert.Nil(t, ReportableDetails(NewError("plain").Mark(ErrSystem)))
}

func TestDisplayMessagePrefersInnermostHint(t *testing.T) {
	inner := NewError("lost cas").WithHint("inner hint").Mark(ErrVersionConflict)
	outer := WithError(inner).WithHint("outer hint").Mark(ErrVersionConflict)
	assert.Equal(t, "inner hint", DisplayMessage(outer))

	fresh := NewError("gave up").WithHint("outer hint").Mark(ErrVersionConflict)
	assert.Equal(t, "outer hint", DisplayMessage(fresh))
	assert.Empty(t, DisplayMessage(assert.AnError))
}
