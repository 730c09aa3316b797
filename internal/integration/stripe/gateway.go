package stripe

import (
	"context"
	"errors"
	"strconv"

	"github.com/flexprice/ledger/internal/config"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/integration/gateway"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/types"
	"github.com/stripe/stripe-go/v82"
)

// Name is reported as the payment gateway of stripe payments
const Name = "stripe"

// Gateway charges saved payment methods through Stripe PaymentIntents with
// manual capture, so authorization and settlement map to the payment's
// processing and completed states.
type Gateway struct {
	client *stripe.Client
	logger *logger.Logger
}

var _ gateway.Gateway = (*Gateway)(nil)

// New creates a Stripe gateway from the configured secret key
func New(cfg *config.Configuration, logger *logger.Logger) *Gateway {
	return &Gateway{
		client: stripe.NewClient(cfg.Gateway.Stripe.SecretKey, nil),
		logger: logger,
	}
}

func (g *Gateway) Name() string {
	return Name
}

func (g *Gateway) Authorize(ctx context.Context, req *gateway.AuthorizeRequest) (*gateway.AuthorizeResult, error) {
	params := &stripe.PaymentIntentCreateParams{
		Amount:        stripe.Int64(types.ToMinorUnits(req.Amount)),
		Currency:      stripe.String(req.Currency),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		OffSession:    stripe.Bool(true),
		Confirm:       stripe.Bool(true),
		Metadata: map[string]string{
			"payment_reference": req.PaymentReference,
			"invoice_number":    req.InvoiceNumber,
			"payer_id":          strconv.FormatInt(req.PayerID, 10),
			"payment_source":    "ledger",
		},
	}
	params.SetIdempotencyKey(req.IdempotencyKey)

	pi, err := g.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, g.translate(err, "Unable to authorize payment", map[string]any{
			"payment_reference": req.PaymentReference,
			"payment_method_id": req.PaymentMethodID,
		})
	}

	if pi.Status != stripe.PaymentIntentStatusRequiresCapture && pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, ierr.NewError("payment intent not authorized").
			WithHintf("Payment authorization ended in status %s", pi.Status).
			WithReportableDetails(map[string]any{
				"payment_intent_id": pi.ID,
				"status":            pi.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	g.logger.Debugw("authorized payment intent",
		"payment_intent_id", pi.ID,
		"payment_reference", req.PaymentReference,
	)
	return &gateway.AuthorizeResult{TransactionID: pi.ID}, nil
}

func (g *Gateway) Capture(ctx context.Context, req *gateway.CaptureRequest) error {
	params := &stripe.PaymentIntentCaptureParams{
		AmountToCapture: stripe.Int64(types.ToMinorUnits(req.Amount)),
	}
	params.SetIdempotencyKey(req.IdempotencyKey + "-capture")

	pi, err := g.client.V1PaymentIntents.Capture(ctx, req.TransactionID, params)
	if err != nil {
		return g.translate(err, "Unable to capture payment", map[string]any{
			"payment_intent_id": req.TransactionID,
		})
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return ierr.NewError("payment intent not captured").
			WithHintf("Payment capture ended in status %s", pi.Status).
			WithReportableDetails(map[string]any{"payment_intent_id": pi.ID}).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}

func (g *Gateway) Refund(ctx context.Context, req *gateway.RefundRequest) (*gateway.RefundResult, error) {
	params := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(req.TransactionID),
		Amount:        stripe.Int64(types.ToMinorUnits(req.Amount)),
		Metadata: map[string]string{
			"refund_reference": req.RefundReference,
		},
	}
	params.SetIdempotencyKey(req.IdempotencyKey)

	re, err := g.client.V1Refunds.Create(ctx, params)
	if err != nil {
		return nil, g.translate(err, "Unable to refund payment", map[string]any{
			"payment_intent_id": req.TransactionID,
			"refund_reference":  req.RefundReference,
		})
	}
	if re.Status == stripe.RefundStatusFailed || re.Status == stripe.RefundStatusCanceled {
		return nil, ierr.NewError("refund not accepted").
			WithHintf("Refund ended in status %s", re.Status).
			WithReportableDetails(map[string]any{"refund_id": re.ID}).
			Mark(ierr.ErrInvalidOperation)
	}
	return &gateway.RefundResult{GatewayRefundID: re.ID}, nil
}

// translate maps card errors to invalid operations and everything else to
// http client errors
func (g *Gateway) translate(err error, hint string, details map[string]any) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		details["stripe_error_code"] = stripeErr.Code
		if stripeErr.Type == stripe.ErrorTypeCard {
			return ierr.WithError(err).
				WithHint(stripeErr.Msg).
				WithReportableDetails(details).
				Mark(ierr.ErrInvalidOperation)
		}
	}

	g.logger.Errorw("stripe request failed", "error", err, "details", details)
	return ierr.WithError(err).
		WithHint(hint).
		WithReportableDetails(details).
		Mark(ierr.ErrHTTPClient)
}
