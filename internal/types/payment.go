package types

import (
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/samber/lo"
)

// PaymentStatus is the stored lifecycle status of a payment
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	// PaymentStatusRefunded is never stored. It is the read-only view of a
	// completed payment whose refundable amount reached zero.
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Validate() error {
	allowed := []PaymentStatus{
		PaymentStatusPending,
		PaymentStatusProcessing,
		PaymentStatusCompleted,
		PaymentStatusFailed,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid payment status").
			WithHint("Invalid payment status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"status":  s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentType tells whether a payment settles the whole outstanding balance
type PaymentType string

const (
	PaymentTypeFull    PaymentType = "full"
	PaymentTypePartial PaymentType = "partial"
)

func (t PaymentType) String() string {
	return string(t)
}

func (t PaymentType) Validate() error {
	allowed := []PaymentType{PaymentTypeFull, PaymentTypePartial}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid payment type").
			WithHint("Payment type must be full or partial").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"type":    t,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentFilter represents the filter options for listing payments
type PaymentFilter struct {
	*QueryFilter
	InvoiceID     *int64          `json:"invoice_id,omitempty" form:"invoice_id"`
	PayerID       *int64          `json:"payer_id,omitempty" form:"payer_id"`
	PaymentStatus []PaymentStatus `json:"payment_status,omitempty" form:"payment_status"`
}

func NewPaymentFilter() *PaymentFilter {
	return &PaymentFilter{QueryFilter: NewDefaultQueryFilter()}
}

func (f *PaymentFilter) Validate() error {
	if f.QueryFilter == nil {
		f.QueryFilter = NewDefaultQueryFilter()
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	for _, s := range f.PaymentStatus {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
