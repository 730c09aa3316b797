package dto

import (
	"context"

	"github.com/flexprice/ledger/internal/domain/webhook"
	"github.com/flexprice/ledger/internal/types"
	"github.com/flexprice/ledger/internal/validator"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

// CreateWebhookRegistrationRequest subscribes a provider endpoint to ledger events
type CreateWebhookRegistrationRequest struct {
	ProviderID int64    `json:"provider_id" validate:"required,gt=0"`
	URL        string   `json:"url" validate:"required,url"`
	Events     []string `json:"events" validate:"required,min=1,dive,required"`
	// Secret is generated when omitted
	Secret  string `json:"secret,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
}

func (r *CreateWebhookRegistrationRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreateWebhookRegistrationRequest) ToRegistration(ctx context.Context) *webhook.Registration {
	return &webhook.Registration{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_REGISTRATION),
		ProviderID: r.ProviderID,
		URL:        r.URL,
		Events:     pq.StringArray(lo.Uniq(r.Events)),
		Secret:     r.Secret,
		Enabled:    lo.FromPtrOr(r.Enabled, true),
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
}

// WebhookRegistrationResponse exposes the secret only when it was just created
type WebhookRegistrationResponse struct {
	*webhook.Registration

	Secret string `json:"secret,omitempty"`
}

func NewWebhookRegistrationResponse(r *webhook.Registration, withSecret bool) *WebhookRegistrationResponse {
	resp := &WebhookRegistrationResponse{Registration: r}
	if withSecret {
		resp.Secret = r.Secret
	}
	return resp
}

type ListWebhookRegistrationsResponse struct {
	Items []*WebhookRegistrationResponse `json:"items"`
}
