package webhookDto

import (
	"encoding/json"
	"time"

	"github.com/flexprice/ledger/internal/api/dto"
	"github.com/flexprice/ledger/internal/types"
)

// WebhookEnvelope is the Standard Webhooks body posted to every endpoint
type WebhookEnvelope struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func NewWebhookEnvelope(event *types.LedgerEvent, data json.RawMessage) *WebhookEnvelope {
	return &WebhookEnvelope{
		Type:      event.EventName,
		Timestamp: event.Timestamp,
		Data:      data,
	}
}

type InvoiceWebhookPayload struct {
	EventType string               `json:"event_type"`
	Invoice   *dto.InvoiceResponse `json:"invoice"`
	// Override is set when the invoice was settled by an administrator
	Override bool `json:"override,omitempty"`
}

func NewInvoiceWebhookPayload(snapshot *dto.EventSnapshot, eventType string) *InvoiceWebhookPayload {
	return &InvoiceWebhookPayload{
		EventType: eventType,
		Invoice:   snapshot.Invoice,
		Override:  snapshot.Override,
	}
}

type PaymentWebhookPayload struct {
	EventType string               `json:"event_type"`
	Payment   *dto.PaymentResponse `json:"payment"`
	Invoice   *dto.InvoiceResponse `json:"invoice,omitempty"`
}

func NewPaymentWebhookPayload(snapshot *dto.EventSnapshot, eventType string) *PaymentWebhookPayload {
	return &PaymentWebhookPayload{
		EventType: eventType,
		Payment:   snapshot.Payment,
		Invoice:   snapshot.Invoice,
	}
}

type RefundWebhookPayload struct {
	EventType string               `json:"event_type"`
	Refund    *dto.RefundResponse  `json:"refund"`
	Payment   *dto.PaymentResponse `json:"payment,omitempty"`
}

func NewRefundWebhookPayload(snapshot *dto.EventSnapshot, eventType string) *RefundWebhookPayload {
	return &RefundWebhookPayload{
		EventType: eventType,
		Refund:    snapshot.Refund,
		Payment:   snapshot.Payment,
	}
}
