package payload

import (
	"context"
	"encoding/json"

	"github.com/flexprice/ledger/internal/api/dto"
	ierr "github.com/flexprice/ledger/internal/errors"
	webhookDto "github.com/flexprice/ledger/internal/webhook/dto"
)

type InvoicePayloadBuilder struct{}

func NewInvoicePayloadBuilder() PayloadBuilder {
	return &InvoicePayloadBuilder{}
}

func (b *InvoicePayloadBuilder) BuildPayload(_ context.Context, eventType string, snapshot *dto.EventSnapshot) (json.RawMessage, error) {
	if snapshot == nil || snapshot.Invoice == nil {
		return nil, missingEntity(eventType, "invoice")
	}
	return marshal(webhookDto.NewInvoiceWebhookPayload(snapshot, eventType))
}

type PaymentPayloadBuilder struct{}

func NewPaymentPayloadBuilder() PayloadBuilder {
	return &PaymentPayloadBuilder{}
}

func (b *PaymentPayloadBuilder) BuildPayload(_ context.Context, eventType string, snapshot *dto.EventSnapshot) (json.RawMessage, error) {
	if snapshot == nil || snapshot.Payment == nil {
		return nil, missingEntity(eventType, "payment")
	}
	return marshal(webhookDto.NewPaymentWebhookPayload(snapshot, eventType))
}

type RefundPayloadBuilder struct{}

func NewRefundPayloadBuilder() PayloadBuilder {
	return &RefundPayloadBuilder{}
}

func (b *RefundPayloadBuilder) BuildPayload(_ context.Context, eventType string, snapshot *dto.EventSnapshot) (json.RawMessage, error) {
	if snapshot == nil || snapshot.Refund == nil {
		return nil, missingEntity(eventType, "refund")
	}
	return marshal(webhookDto.NewRefundWebhookPayload(snapshot, eventType))
}

func missingEntity(eventType, entity string) error {
	return ierr.NewError("event snapshot is incomplete").
		WithHintf("Event %s carries no %s", eventType, entity).
		WithReportableDetails(map[string]any{
			"event_type": eventType,
			"entity":     entity,
		}).
		Mark(ierr.ErrValidation)
}

func marshal(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to marshal webhook payload").
			Mark(ierr.ErrSystem)
	}
	return data, nil
}
