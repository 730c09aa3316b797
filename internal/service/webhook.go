package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"github.com/flexprice/ledger/internal/api/dto"
	"github.com/flexprice/ledger/internal/cache"
	"github.com/flexprice/ledger/internal/domain/webhook"
	ierr "github.com/flexprice/ledger/internal/errors"
)

const webhookSecretBytes = 24

// WebhookService manages the endpoints providers register for ledger events
type WebhookService interface {
	CreateRegistration(ctx context.Context, req dto.CreateWebhookRegistrationRequest) (*dto.WebhookRegistrationResponse, error)
	GetRegistration(ctx context.Context, id string) (*dto.WebhookRegistrationResponse, error)
	ListRegistrations(ctx context.Context, providerID int64) (*dto.ListWebhookRegistrationsResponse, error)
	DeleteRegistration(ctx context.Context, id string) error
}

type webhookService struct {
	ServiceParams
}

func NewWebhookService(params ServiceParams) WebhookService {
	return &webhookService{
		ServiceParams: params,
	}
}

func (s *webhookService) CreateRegistration(ctx context.Context, req dto.CreateWebhookRegistrationRequest) (*dto.WebhookRegistrationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	reg := req.ToRegistration(ctx)
	if reg.Secret == "" {
		secret, err := generateWebhookSecret()
		if err != nil {
			return nil, err
		}
		reg.Secret = secret
	}

	if err := reg.Validate(); err != nil {
		return nil, err
	}

	if err := s.WebhookRepo.Create(ctx, reg); err != nil {
		return nil, err
	}
	s.invalidateRoutes(ctx, reg.ProviderID)

	s.Logger.WithContext(ctx).Infow("registered webhook endpoint",
		"registration_id", reg.ID,
		"provider_id", reg.ProviderID,
		"events", reg.Events,
	)
	return dto.NewWebhookRegistrationResponse(reg, true), nil
}

func (s *webhookService) GetRegistration(ctx context.Context, id string) (*dto.WebhookRegistrationResponse, error) {
	reg, err := s.WebhookRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewWebhookRegistrationResponse(reg, false), nil
}

func (s *webhookService) ListRegistrations(ctx context.Context, providerID int64) (*dto.ListWebhookRegistrationsResponse, error) {
	if providerID <= 0 {
		return nil, ierr.NewError("provider_id is required").
			WithHint("Provider is required").
			Mark(ierr.ErrValidation)
	}

	regs, err := s.WebhookRepo.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.WebhookRegistrationResponse, 0, len(regs))
	for _, reg := range regs {
		items = append(items, dto.NewWebhookRegistrationResponse(reg, false))
	}
	return &dto.ListWebhookRegistrationsResponse{Items: items}, nil
}

func (s *webhookService) DeleteRegistration(ctx context.Context, id string) error {
	reg, err := s.WebhookRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.WebhookRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateRoutes(ctx, reg.ProviderID)

	s.Logger.WithContext(ctx).Infow("deleted webhook endpoint",
		"registration_id", id,
		"provider_id", reg.ProviderID,
	)
	return nil
}

// invalidateRoutes drops the dispatcher's cached endpoints of a provider
func (s *webhookService) invalidateRoutes(ctx context.Context, providerID int64) {
	if s.Cache == nil {
		return
	}
	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixWebhookRoutes, providerID))
}

// generateWebhookSecret returns a Standard Webhooks signing secret
func generateWebhookSecret() (string, error) {
	buf := make([]byte, webhookSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to generate webhook secret").
			Mark(ierr.ErrSystem)
	}
	return webhook.SecretPrefix + base64.StdEncoding.EncodeToString(buf), nil
}
