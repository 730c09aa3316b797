package types

import (
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/samber/lo"
)

// RefundStatus is the lifecycle status of a refund
type RefundStatus string

const (
	RefundStatusPending    RefundStatus = "pending"
	RefundStatusProcessing RefundStatus = "processing"
	RefundStatusCompleted  RefundStatus = "completed"
	RefundStatusFailed     RefundStatus = "failed"
	RefundStatusCancelled  RefundStatus = "cancelled"
)

func (s RefundStatus) String() string {
	return string(s)
}

func (s RefundStatus) Validate() error {
	allowed := []RefundStatus{
		RefundStatusPending,
		RefundStatusProcessing,
		RefundStatusCompleted,
		RefundStatusFailed,
		RefundStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid refund status").
			WithHint("Invalid refund status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"status":  s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RefundType tells whether a refund returns the whole original payment
type RefundType string

const (
	RefundTypeFull    RefundType = "full"
	RefundTypePartial RefundType = "partial"
)

func (t RefundType) String() string {
	return string(t)
}

func (t RefundType) Validate() error {
	allowed := []RefundType{RefundTypeFull, RefundTypePartial}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid refund type").
			WithHint("Refund type must be full or partial").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"type":    t,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RefundFilter represents the filter options for listing refunds
type RefundFilter struct {
	*QueryFilter
	PaymentID    *int64         `json:"payment_id,omitempty" form:"payment_id"`
	InvoiceID    *int64         `json:"invoice_id,omitempty" form:"invoice_id"`
	RefundStatus []RefundStatus `json:"refund_status,omitempty" form:"refund_status"`
}

func NewRefundFilter() *RefundFilter {
	return &RefundFilter{QueryFilter: NewDefaultQueryFilter()}
}

func (f *RefundFilter) Validate() error {
	if f.QueryFilter == nil {
		f.QueryFilter = NewDefaultQueryFilter()
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	for _, s := range f.RefundStatus {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
