package service

import (
	"context"
	"time"

	"github.com/flexprice/ledger/internal/api/dto"
	"github.com/flexprice/ledger/internal/testutil"
	"github.com/flexprice/ledger/internal/types"
	"github.com/shopspring/decimal"
)

// ledgerSuite wires every ledger service onto the in-memory store
type ledgerSuite struct {
	testutil.BaseServiceTestSuite

	invoices InvoiceService
	payments PaymentService
	refunds  RefundService
	webhooks WebhookService
}

func (s *ledgerSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupServices()
}

func (s *ledgerSuite) setupServices() {
	params := s.params()
	s.invoices = NewInvoiceService(params)
	s.payments = NewPaymentService(params)
	s.refunds = NewRefundService(params)
	s.webhooks = NewWebhookService(params)
}

func (s *ledgerSuite) params() ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		DB:                stores.Tx,
		Sentry:            s.GetSentry(),
		Cache:             s.GetCache(),
		InvoiceRepo:       stores.Invoices,
		PaymentRepo:       stores.Payments,
		RefundRepo:        stores.Refunds,
		PaymentMethodRepo: stores.PaymentMethods,
		WebhookRepo:       stores.Webhooks,
		Gateway:           s.GetGateway(),
		EventPublisher:    s.GetPublisher(),
	}
}

// declining rewires the services onto a gateway that declines amounts
func (s *ledgerSuite) declining(amounts ...string) *testutil.RecordingGateway {
	gw := s.UseDeclines(money(amounts...)...)
	s.setupServices()
	return gw
}

// newRequest returns a context carrying a fresh request id, as each API call would
func (s *ledgerSuite) newRequest() context.Context {
	return types.SetRequestID(s.GetContext(), types.GenerateUUID())
}

func (s *ledgerSuite) createInvoice(amount, tax string) *dto.InvoiceResponse {
	resp, err := s.invoices.CreateInvoice(s.newRequest(), dto.CreateInvoiceRequest{
		OwnerID:    testutil.TestOwnerID,
		ProviderID: testutil.TestProviderID,
		Amount:     decimal.RequireFromString(amount),
		TaxAmount:  decimal.RequireFromString(tax),
		DueDate:    s.GetNow().Add(14 * 24 * time.Hour),
	})
	s.Require().NoError(err)
	return resp
}

func (s *ledgerSuite) pay(invoiceID int64, paymentType types.PaymentType, amount string) (*dto.SubmitPaymentResponse, error) {
	return s.payments.SubmitPayment(s.newRequest(), dto.SubmitPaymentRequest{
		InvoiceID:       invoiceID,
		PayerID:         testutil.TestOwnerID,
		PaymentMethodID: testutil.TestPaymentMethodID,
		Amount:          decimal.RequireFromString(amount),
		PaymentType:     paymentType,
	})
}

// paidPayment creates an invoice of total and settles it with one full payment
func (s *ledgerSuite) paidPayment(total string) *dto.SubmitPaymentResponse {
	inv := s.createInvoice(total, "0")
	resp, err := s.pay(inv.ID, types.PaymentTypeFull, "0")
	s.Require().NoError(err)
	s.Require().Equal(types.PaymentStatusCompleted, resp.Payment.PaymentStatus)
	return resp
}

func (s *ledgerSuite) refund(paymentID int64, refundType types.RefundType, amount string, process bool) (*dto.RefundResponse, error) {
	return s.refunds.CreateRefund(s.newRequest(), dto.CreateRefundRequest{
		PaymentID:  paymentID,
		AdminID:    1,
		Amount:     decimal.RequireFromString(amount),
		RefundType: refundType,
		Process:    &process,
	})
}

func money(amounts ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, decimal.RequireFromString(a))
	}
	return out
}

func (s *ledgerSuite) assertMoney(expected string, actual decimal.Decimal) {
	s.True(decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}
