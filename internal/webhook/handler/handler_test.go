package handler

import (
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/ledger/internal/api/dto"
	"github.com/flexprice/ledger/internal/cache"
	"github.com/flexprice/ledger/internal/domain/invoice"
	"github.com/flexprice/ledger/internal/domain/webhook"
	"github.com/flexprice/ledger/internal/httpclient"
	"github.com/flexprice/ledger/internal/svix"
	"github.com/flexprice/ledger/internal/testutil"
	"github.com/flexprice/ledger/internal/types"
	webhookDto "github.com/flexprice/ledger/internal/webhook/dto"
	"github.com/flexprice/ledger/internal/webhook/payload"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	svixgo "github.com/svix/svix-webhooks/go"
)

type WebhookHandlerSuite struct {
	testutil.BaseServiceTestSuite
	client  *testutil.MockHTTPClient
	handler *handler
	secret  string
}

func TestWebhookHandler(t *testing.T) {
	suite.Run(t, new(WebhookHandlerSuite))
}

func (s *WebhookHandlerSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.client = testutil.NewMockHTTPClient()
	s.secret = webhook.SecretPrefix + base64.StdEncoding.EncodeToString([]byte("0123456789abcdef01234567"))

	cfg := s.GetConfig()
	cfg.Webhook.RateLimit = 0
	svixClient, err := svix.NewClient(cfg, s.GetLogger())
	s.Require().NoError(err)

	s.handler = NewHandler(
		nil,
		cfg,
		payload.NewPayloadBuilderFactory(),
		s.client,
		s.GetStores().Webhooks,
		s.GetCache(),
		s.GetLogger(),
		s.GetSentry(),
		svixClient,
	).(*handler)
}

func (s *WebhookHandlerSuite) register(id, url string, events ...string) {
	now := time.Now().UTC()
	s.Require().NoError(s.GetStores().Webhooks.Create(s.GetContext(), &webhook.Registration{
		ID:         id,
		ProviderID: testutil.TestProviderID,
		URL:        url,
		Events:     events,
		Secret:     s.secret,
		Enabled:    true,
		BaseModel: types.BaseModel{
			Status:    types.StatusPublished,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}))
}

func (s *WebhookHandlerSuite) invoicePaidMessage() (*message.Message, *types.LedgerEvent) {
	snapshot := &dto.EventSnapshot{
		Invoice: dto.NewInvoiceResponse(&invoice.Invoice{
			ID:            42,
			InvoiceNumber: "INV-202601-0001",
			OwnerID:       testutil.TestOwnerID,
			ProviderID:    testutil.TestProviderID,
			TotalAmount:   decimal.NewFromInt(100),
			Currency:      "usd",
			InvoiceStatus: types.InvoiceStatusPaid,
		}, decimal.NewFromInt(100), decimal.Zero),
	}
	event := testutil.NewLedgerEvent(types.EventInvoicePaid, snapshot)
	return testutil.NewEventMessage(event), event
}

func (s *WebhookHandlerSuite) TestDeliversSignedEnvelopeToSubscribers() {
	s.register("wh_all", "https://a.example.com/hooks", types.EventWildcard)
	s.register("wh_paid", "https://b.example.com/hooks", types.EventInvoicePaid)
	s.register("wh_refunds", "https://c.example.com/hooks", types.EventPaymentRefunded)

	msg, event := s.invoicePaidMessage()
	s.Require().NoError(s.handler.processMessage(msg))

	requests := s.client.Requests()
	s.Require().Len(requests, 2)

	verifier, err := svixgo.NewWebhook(s.secret)
	s.Require().NoError(err)
	for _, req := range requests {
		s.Equal(http.MethodPost, req.Method)
		s.Equal(event.ID, req.Headers[HeaderWebhookID])

		headers := http.Header{}
		for k, v := range req.Headers {
			headers.Set(k, v)
		}
		s.NoError(verifier.Verify(req.Body, headers))

		var envelope webhookDto.WebhookEnvelope
		s.Require().NoError(json.Unmarshal(req.Body, &envelope))
		s.Equal(types.EventInvoicePaid, envelope.Type)

		var data webhookDto.InvoiceWebhookPayload
		s.Require().NoError(json.Unmarshal(envelope.Data, &data))
		s.Equal("INV-202601-0001", data.Invoice.InvoiceNumber)
		s.False(data.Override)
	}
}

func (s *WebhookHandlerSuite) TestFailedEndpointIsRetriedAlone() {
	s.register("wh_ok", "https://ok.example.com/hooks", types.EventWildcard)
	s.register("wh_down", "https://down.example.com/hooks", types.EventWildcard)
	s.client.RegisterResponse("down.example.com/hooks", testutil.MockResponse{StatusCode: http.StatusServiceUnavailable})

	msg, _ := s.invoicePaidMessage()
	err := s.handler.processMessage(msg)
	s.Require().Error(err)

	httpErr, ok := httpclient.IsHTTPError(err)
	s.Require().True(ok)
	s.Equal(http.StatusServiceUnavailable, httpErr.StatusCode)
	s.Len(s.client.Requests(), 2)

	// the bus redelivers the same message once the endpoint recovers
	s.client.Clear()
	s.Require().NoError(s.handler.processMessage(msg))

	requests := s.client.Requests()
	s.Require().Len(requests, 1)
	s.Equal("https://down.example.com/hooks", requests[0].URL)
}

func (s *WebhookHandlerSuite) TestRoutesAreCached() {
	s.register("wh_1", "https://a.example.com/hooks", types.EventWildcard)

	msg, _ := s.invoicePaidMessage()
	s.Require().NoError(s.handler.processMessage(msg))

	_, ok := s.GetCache().Get(s.GetContext(), cache.GenerateKey(cache.PrefixWebhookRoutes, testutil.TestProviderID))
	s.True(ok)

	// registrations added behind the cache's back are not seen until it expires
	s.register("wh_2", "https://b.example.com/hooks", types.EventWildcard)
	s.client.Clear()
	next, _ := s.invoicePaidMessage()
	s.Require().NoError(s.handler.processMessage(next))
	s.Len(s.client.Requests(), 1)
}

func (s *WebhookHandlerSuite) TestNoRegistrationsIsNotAnError() {
	msg, _ := s.invoicePaidMessage()
	s.NoError(s.handler.processMessage(msg))
	s.Empty(s.client.Requests())
}

func (s *WebhookHandlerSuite) TestUndecodableMessage() {
	err := s.handler.processMessage(message.NewMessage("bad", []byte("not json")))
	s.Error(err)
	s.Empty(s.client.Requests())
}

func (s *WebhookHandlerSuite) TestIncompleteSnapshotIsRejected() {
	s.register("wh_1", "https://a.example.com/hooks", types.EventWildcard)

	event := testutil.NewLedgerEvent(types.EventPaymentCompleted, &dto.EventSnapshot{})
	s.Error(s.handler.processMessage(testutil.NewEventMessage(event)))
	s.Empty(s.client.Requests())
}
