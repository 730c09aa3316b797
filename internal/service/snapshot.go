package service

import (
	"context"

	"github.com/flexprice/ledger/internal/api/dto"
	"github.com/flexprice/ledger/internal/domain/invoice"
	"github.com/flexprice/ledger/internal/domain/ledger"
	"github.com/flexprice/ledger/internal/domain/payment"
	"github.com/flexprice/ledger/internal/domain/refund"
)

func newInvoiceResponse(inv *invoice.Invoice, payments []*payment.Payment) *dto.InvoiceResponse {
	return dto.NewInvoiceResponse(inv,
		ledger.CompletedPaymentsSum(inv, payments),
		ledger.RemainingAmount(inv, payments),
	)
}

func newPaymentResponse(p *payment.Payment, refunds []*refund.Refund) *dto.PaymentResponse {
	return dto.NewPaymentResponse(p,
		ledger.CompletedRefundsSum(p, refunds),
		ledger.RefundableAmount(p, refunds),
	)
}

// loadInvoice resolves an invoice with its derived amounts
func (s *ServiceParams) loadInvoice(ctx context.Context, inv *invoice.Invoice) (*dto.InvoiceResponse, error) {
	payments, err := s.PaymentRepo.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	return newInvoiceResponse(inv, payments), nil
}

// loadPayment resolves a payment with its derived amounts
func (s *ServiceParams) loadPayment(ctx context.Context, p *payment.Payment) (*dto.PaymentResponse, error) {
	refunds, err := s.RefundRepo.ListByPayment(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return newPaymentResponse(p, refunds), nil
}
