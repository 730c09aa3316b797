package notifier

import (
	"fmt"
	"strings"

	"github.com/flexprice/ledger/internal/api/dto"
	"github.com/flexprice/ledger/internal/types"
	"github.com/shopspring/decimal"
)

// Message is a customer facing notification
type Message struct {
	Subject string
	Text    string
}

// BuildMessage renders the message for an event. Events that customers are
// not told about return false.
func BuildMessage(eventName string, snapshot *dto.EventSnapshot) (*Message, bool) {
	inv := snapshot.Invoice

	switch eventName {
	case types.EventInvoiceCreated:
		if inv == nil {
			return nil, false
		}
		return &Message{
			Subject: fmt.Sprintf("Invoice %s", inv.InvoiceNumber),
			Text: lines(
				fmt.Sprintf("A new invoice %s was issued to you.", inv.InvoiceNumber),
				fmt.Sprintf("Amount due: %s", money(inv.TotalAmount, inv.Currency)),
				fmt.Sprintf("Due date: %s", inv.DueDate.Format("2006-01-02")),
			),
		}, true

	case types.EventInvoicePaid:
		if inv == nil {
			return nil, false
		}
		text := fmt.Sprintf("Invoice %s is paid in full. Thank you.", inv.InvoiceNumber)
		if snapshot.Override {
			text = fmt.Sprintf("Invoice %s was marked as paid.", inv.InvoiceNumber)
		}
		return &Message{
			Subject: fmt.Sprintf("Invoice %s paid", inv.InvoiceNumber),
			Text:    text,
		}, true

	case types.EventInvoiceOverdue:
		if inv == nil {
			return nil, false
		}
		return &Message{
			Subject: fmt.Sprintf("Invoice %s is overdue", inv.InvoiceNumber),
			Text: lines(
				fmt.Sprintf("Invoice %s was due on %s.", inv.InvoiceNumber, inv.DueDate.Format("2006-01-02")),
				fmt.Sprintf("Outstanding amount: %s", money(inv.RemainingAmount, inv.Currency)),
			),
		}, true

	case types.EventInvoiceCancelled:
		if inv == nil {
			return nil, false
		}
		return &Message{
			Subject: fmt.Sprintf("Invoice %s cancelled", inv.InvoiceNumber),
			Text:    fmt.Sprintf("Invoice %s was cancelled. Nothing is owed on it.", inv.InvoiceNumber),
		}, true

	case types.EventPaymentCompleted:
		p := snapshot.Payment
		if p == nil {
			return nil, false
		}
		text := []string{fmt.Sprintf("We received your payment %s of %s.", p.PaymentReference, money(p.Amount, p.Currency))}
		if inv != nil && inv.RemainingAmount.IsPositive() {
			text = append(text, fmt.Sprintf("Remaining on invoice %s: %s", inv.InvoiceNumber, money(inv.RemainingAmount, inv.Currency)))
		}
		return &Message{
			Subject: fmt.Sprintf("Payment %s received", p.PaymentReference),
			Text:    lines(text...),
		}, true

	case types.EventPaymentFailed:
		p := snapshot.Payment
		if p == nil {
			return nil, false
		}
		reason := "the payment was not accepted"
		if p.ErrorMessage != nil {
			reason = *p.ErrorMessage
		}
		return &Message{
			Subject: fmt.Sprintf("Payment %s failed", p.PaymentReference),
			Text: lines(
				fmt.Sprintf("Your payment %s of %s failed: %s.", p.PaymentReference, money(p.Amount, p.Currency), strings.TrimSuffix(reason, ".")),
				"No money was taken. Please try again or use another payment method.",
			),
		}, true

	case types.EventPaymentRefunded:
		r := snapshot.Refund
		if r == nil {
			return nil, false
		}
		return &Message{
			Subject: fmt.Sprintf("Refund %s issued", r.RefundReference),
			Text:    fmt.Sprintf("A refund %s of %s was issued to you.", r.RefundReference, money(r.Amount, r.Currency)),
		}, true

	case types.EventRefundFailed:
		r := snapshot.Refund
		if r == nil {
			return nil, false
		}
		return &Message{
			Subject: fmt.Sprintf("Refund %s could not be issued", r.RefundReference),
			Text:    fmt.Sprintf("Refund %s of %s could not be issued. Our team will follow up.", r.RefundReference, money(r.Amount, r.Currency)),
		}, true
	}

	return nil, false
}

func money(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(2) + " " + strings.ToUpper(currency)
}

func lines(l ...string) string {
	return strings.Join(l, "\n")
}
