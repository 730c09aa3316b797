package activity

import (
	"strings"

	"github.com/flexprice/ledger/internal/api/dto"
	activityDomain "github.com/flexprice/ledger/internal/domain/activity"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Subject types of audit entries
const (
	SubjectInvoice = "invoice"
	SubjectPayment = "payment"
	SubjectRefund  = "refund"
)

// NewEntry turns a ledger event into its audit entry. The entry id is derived
// from the event id so a redelivered event maps to the same entry.
func NewEntry(event *types.LedgerEvent, snapshot *dto.EventSnapshot) (*activityDomain.Entry, error) {
	metadata := map[string]any{
		"request_id":  event.RequestID,
		"owner_id":    event.OwnerID,
		"provider_id": event.ProviderID,
	}

	var subjectType string
	var subjectID int64
	switch {
	case strings.HasPrefix(event.EventName, "invoice.") && snapshot.Invoice != nil:
		subjectType, subjectID = SubjectInvoice, snapshot.Invoice.ID
		metadata["invoice_number"] = snapshot.Invoice.InvoiceNumber
		metadata["invoice_status"] = snapshot.Invoice.InvoiceStatus
		metadata["remaining_amount"] = snapshot.Invoice.RemainingAmount.String()
		if snapshot.Override {
			metadata["override"] = true
		}
	case (event.EventName == types.EventPaymentRefunded || strings.HasPrefix(event.EventName, "refund.")) && snapshot.Refund != nil:
		subjectType, subjectID = SubjectRefund, snapshot.Refund.ID
		metadata["refund_reference"] = snapshot.Refund.RefundReference
		metadata["refund_status"] = snapshot.Refund.RefundStatus
		metadata["amount"] = snapshot.Refund.Amount.String()
		metadata["payment_id"] = snapshot.Refund.PaymentID
	case strings.HasPrefix(event.EventName, "payment.") && snapshot.Payment != nil:
		subjectType, subjectID = SubjectPayment, snapshot.Payment.ID
		metadata["payment_reference"] = snapshot.Payment.PaymentReference
		metadata["payment_status"] = snapshot.Payment.PaymentStatus
		metadata["amount"] = snapshot.Payment.Amount.String()
		metadata["invoice_id"] = snapshot.Payment.InvoiceID
	default:
		return nil, ierr.NewError("event has no audit subject").
			WithHintf("Event %s carries no entity for %s", event.ID, event.EventName).
			WithReportableDetails(map[string]any{
				"event_id":   event.ID,
				"event_name": event.EventName,
			}).
			Mark(ierr.ErrValidation)
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to encode activity metadata").
			Mark(ierr.ErrSystem)
	}

	return &activityDomain.Entry{
		ID:          types.UUID_PREFIX_ACTIVITY + "_" + strings.TrimPrefix(event.ID, types.UUID_PREFIX_EVENT+"_"),
		ActorID:     event.ActorID,
		Action:      event.EventName,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Metadata:    raw,
		OccurredAt:  event.Timestamp,
	}, nil
}
