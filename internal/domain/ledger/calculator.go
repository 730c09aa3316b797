// Package ledger holds the pure amount arithmetic shared by the state machines.
// Nothing here performs I/O.
package ledger

import (
	"fmt"

	"github.com/flexprice/ledger/internal/domain/invoice"
	"github.com/flexprice/ledger/internal/domain/payment"
	"github.com/flexprice/ledger/internal/domain/refund"
	"github.com/flexprice/ledger/internal/types"
	"github.com/shopspring/decimal"
)

const (
	AggregateInvoice = "invoice"
	AggregatePayment = "payment"
)

// InvariantViolation is the panic value raised when stored amounts break
// conservation. It is never a user error.
type InvariantViolation struct {
	Aggregate   string
	AggregateID int64
	Reason      string
}

func (v *InvariantViolation) Error() string {
	return fmt.Sprintf("ledger invariant violated on %s %d: %s", v.Aggregate, v.AggregateID, v.Reason)
}

func violate(aggregate string, id int64, format string, args ...any) {
	panic(&InvariantViolation{
		Aggregate:   aggregate,
		AggregateID: id,
		Reason:      fmt.Sprintf(format, args...),
	})
}

// TotalAmount returns amount plus tax at ledger precision
func TotalAmount(amount, tax decimal.Decimal) decimal.Decimal {
	return types.RoundMoney(amount.Add(tax))
}

// CompletedPaymentsSum adds up the completed payments of inv
func CompletedPaymentsSum(inv *invoice.Invoice, payments []*payment.Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		if p.InvoiceID != inv.ID {
			violate(AggregateInvoice, inv.ID, "payment %d belongs to invoice %d", p.ID, p.InvoiceID)
		}
		if p.Amount.IsNegative() {
			violate(AggregateInvoice, inv.ID, "payment %d has negative amount %s", p.ID, p.Amount)
		}
		if p.IsCompleted() {
			sum = sum.Add(p.Amount)
		}
	}
	return types.RoundMoney(sum)
}

// RemainingAmount is max(0, total - completed payments). Completed payments
// above the invoice total are a broken invariant, not a zero balance.
func RemainingAmount(inv *invoice.Invoice, payments []*payment.Payment) decimal.Decimal {
	if inv.TotalAmount.IsNegative() {
		violate(AggregateInvoice, inv.ID, "negative total %s", inv.TotalAmount)
	}
	paid := CompletedPaymentsSum(inv, payments)
	if paid.GreaterThan(inv.TotalAmount) {
		violate(AggregateInvoice, inv.ID, "completed payments %s exceed total %s", paid, inv.TotalAmount)
	}
	return decimal.Max(decimal.Zero, types.RoundMoney(inv.TotalAmount.Sub(paid)))
}

// CompletedRefundsSum adds up the completed refunds of p
func CompletedRefundsSum(p *payment.Payment, refunds []*refund.Refund) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range refunds {
		if r.PaymentID != p.ID {
			violate(AggregatePayment, p.ID, "refund %d belongs to payment %d", r.ID, r.PaymentID)
		}
		if r.Amount.IsNegative() {
			violate(AggregatePayment, p.ID, "refund %d has negative amount %s", r.ID, r.Amount)
		}
		if r.IsCompleted() {
			sum = sum.Add(r.Amount)
		}
	}
	return types.RoundMoney(sum)
}

// RefundableAmount is the payment amount minus its completed refunds
func RefundableAmount(p *payment.Payment, refunds []*refund.Refund) decimal.Decimal {
	if p.Amount.IsNegative() {
		violate(AggregatePayment, p.ID, "negative amount %s", p.Amount)
	}
	refunded := CompletedRefundsSum(p, refunds)
	if refunded.GreaterThan(p.Amount) {
		violate(AggregatePayment, p.ID, "completed refunds %s exceed amount %s", refunded, p.Amount)
	}
	return types.RoundMoney(p.Amount.Sub(refunded))
}
