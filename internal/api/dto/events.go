package dto

// EventSnapshot is the payload of every ledger event. Only the entities the
// event concerns are set; derived amounts are resolved at commit time.
type EventSnapshot struct {
	Invoice *InvoiceResponse `json:"invoice,omitempty"`
	Payment *PaymentResponse `json:"payment,omitempty"`
	Refund  *RefundResponse  `json:"refund,omitempty"`
	// Override is set when an administrator settled the invoice explicitly
	Override bool `json:"override,omitempty"`
}
