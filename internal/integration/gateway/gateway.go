package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway moves money for the ledger. Authorize reserves a payment and
// returns the gateway transaction id, Capture settles it. Every call carries
// an idempotency key so a retried call never moves money twice.
type Gateway interface {
	Name() string
	Authorize(ctx context.Context, req *AuthorizeRequest) (*AuthorizeResult, error)
	Capture(ctx context.Context, req *CaptureRequest) error
	Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error)
}

type AuthorizeRequest struct {
	PaymentReference string
	InvoiceNumber    string
	PayerID          int64
	PaymentMethodID  string
	Amount           decimal.Decimal
	Currency         string
	IdempotencyKey   string
}

type AuthorizeResult struct {
	TransactionID string
}

type CaptureRequest struct {
	TransactionID  string
	Amount         decimal.Decimal
	IdempotencyKey string
}

type RefundRequest struct {
	RefundReference string
	TransactionID   string
	Amount          decimal.Decimal
	Currency        string
	IdempotencyKey  string
}

type RefundResult struct {
	GatewayRefundID string
}
