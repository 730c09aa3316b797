package service

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/flexprice/ledger/internal/api/dto"
	"github.com/flexprice/ledger/internal/cache"
	"github.com/flexprice/ledger/internal/domain/webhook"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/testutil"
	"github.com/flexprice/ledger/internal/types"
	"github.com/stretchr/testify/suite"
)

type WebhookServiceSuite struct {
	ledgerSuite
}

func TestWebhookService(t *testing.T) {
	suite.Run(t, new(WebhookServiceSuite))
}

func (s *WebhookServiceSuite) register(events ...string) *dto.WebhookRegistrationResponse {
	resp, err := s.webhooks.CreateRegistration(s.GetContext(), dto.CreateWebhookRegistrationRequest{
		ProviderID: testutil.TestProviderID,
		URL:        "https://provider.example.com/hooks",
		Events:     events,
	})
	s.Require().NoError(err)
	return resp
}

func (s *WebhookServiceSuite) TestCreateRegistrationGeneratesSecret() {
	resp := s.register(types.EventInvoicePaid, types.EventInvoicePaid, types.EventPaymentCompleted)

	s.True(strings.HasPrefix(resp.ID, types.UUID_PREFIX_WEBHOOK_REGISTRATION))
	s.True(resp.Enabled)
	s.ElementsMatch([]string{types.EventInvoicePaid, types.EventPaymentCompleted}, []string(resp.Events))

	s.True(strings.HasPrefix(resp.Secret, webhook.SecretPrefix))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(resp.Secret, webhook.SecretPrefix))
	s.NoError(err)
	s.Len(raw, webhookSecretBytes)

	// the secret is only shown once
	got, err := s.webhooks.GetRegistration(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Empty(got.Secret)
	s.Equal(resp.Registration.Secret, got.Registration.Secret)
}

func (s *WebhookServiceSuite) TestCreateRegistrationKeepsProvidedSecret() {
	secret := webhook.SecretPrefix + base64.StdEncoding.EncodeToString([]byte("provider-chosen-secret"))
	resp, err := s.webhooks.CreateRegistration(s.GetContext(), dto.CreateWebhookRegistrationRequest{
		ProviderID: testutil.TestProviderID,
		URL:        "https://provider.example.com/hooks",
		Events:     []string{types.EventWildcard},
		Secret:     secret,
	})
	s.Require().NoError(err)
	s.Equal(secret, resp.Secret)
}

func (s *WebhookServiceSuite) TestCreateRegistrationValidation() {
	tests := []struct {
		name string
		req  dto.CreateWebhookRegistrationRequest
	}{
		{
			name: "unknown event",
			req: dto.CreateWebhookRegistrationRequest{
				ProviderID: testutil.TestProviderID,
				URL:        "https://provider.example.com/hooks",
				Events:     []string{"invoice.exploded"},
			},
		},
		{
			name: "relative url",
			req: dto.CreateWebhookRegistrationRequest{
				ProviderID: testutil.TestProviderID,
				URL:        "/hooks",
				Events:     []string{types.EventInvoicePaid},
			},
		},
		{
			name: "no events",
			req: dto.CreateWebhookRegistrationRequest{
				ProviderID: testutil.TestProviderID,
				URL:        "https://provider.example.com/hooks",
			},
		},
		{
			name: "secret without prefix",
			req: dto.CreateWebhookRegistrationRequest{
				ProviderID: testutil.TestProviderID,
				URL:        "https://provider.example.com/hooks",
				Events:     []string{types.EventInvoicePaid},
				Secret:     "plain",
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.webhooks.CreateRegistration(s.GetContext(), tt.req)
			s.True(ierr.IsValidation(err), "got %v", err)
		})
	}
}

func (s *WebhookServiceSuite) TestRegistrationChangesInvalidateRoutes() {
	key := cache.GenerateKey(cache.PrefixWebhookRoutes, testutil.TestProviderID)
	s.GetCache().Set(s.GetContext(), key, []*webhook.Registration{}, time.Minute)

	reg := s.register(types.EventInvoicePaid)
	_, ok := s.GetCache().Get(s.GetContext(), key)
	s.False(ok)

	s.GetCache().Set(s.GetContext(), key, []*webhook.Registration{}, time.Minute)
	s.NoError(s.webhooks.DeleteRegistration(s.GetContext(), reg.ID))
	_, ok = s.GetCache().Get(s.GetContext(), key)
	s.False(ok)

	_, err := s.webhooks.GetRegistration(s.GetContext(), reg.ID)
	s.True(ierr.IsNotFound(err))
}

func (s *WebhookServiceSuite) TestListRegistrations() {
	s.register(types.EventInvoicePaid)
	s.register(types.EventRefundFailed)

	resp, err := s.webhooks.ListRegistrations(s.GetContext(), testutil.TestProviderID)
	s.NoError(err)
	s.Len(resp.Items, 2)
	for _, item := range resp.Items {
		s.Empty(item.Secret)
	}

	_, err = s.webhooks.ListRegistrations(s.GetContext(), 0)
	s.True(ierr.IsValidation(err))
}
