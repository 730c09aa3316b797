package memory

import (
	"context"
	"sort"

	"github.com/flexprice/ledger/internal/domain/paymentmethod"
	"github.com/flexprice/ledger/internal/domain/webhook"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
)

type paymentMethodRepository struct {
	s *Store
}

// PaymentMethods returns the read-only payment method repository
func (s *Store) PaymentMethods() paymentmethod.Repository {
	return &paymentMethodRepository{s: s}
}

// PutPaymentMethod adds or replaces a payment method
func (s *Store) PutPaymentMethod(pm *paymentmethod.PaymentMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *pm
	s.methods[pm.ID] = &c
}

func (r *paymentMethodRepository) Get(_ context.Context, id string) (*paymentmethod.PaymentMethod, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	pm, ok := r.s.methods[id]
	if !ok {
		return nil, ierr.NewError("payment method not found").
			WithHintf("Payment method %s was not found", id).
			WithReportableDetails(map[string]any{"payment_method_id": id}).
			Mark(ierr.ErrNotFound)
	}
	c := *pm
	return &c, nil
}

type webhookRepository struct {
	s *Store
}

// Webhooks returns the webhook registration repository backed by the store
func (s *Store) Webhooks() webhook.Repository {
	return &webhookRepository{s: s}
}

func cloneRegistration(reg *webhook.Registration) *webhook.Registration {
	c := *reg
	c.Events = append([]string(nil), reg.Events...)
	return &c
}

func (r *webhookRepository) Create(_ context.Context, reg *webhook.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.webhooks[reg.ID]; ok {
		return ierr.NewError("webhook registration already exists").
			WithHintf("Webhook registration %s already exists", reg.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	r.s.webhooks[reg.ID] = cloneRegistration(reg)
	return nil
}

func (r *webhookRepository) Get(_ context.Context, id string) (*webhook.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reg, ok := r.s.webhooks[id]
	if !ok || reg.Status != types.StatusPublished {
		return nil, ierr.NewError("webhook registration not found").
			WithHintf("Webhook registration %s was not found", id).
			WithReportableDetails(map[string]any{"registration_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return cloneRegistration(reg), nil
}

func (r *webhookRepository) ListByProvider(_ context.Context, providerID int64) ([]*webhook.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*webhook.Registration
	for _, reg := range r.s.webhooks {
		if reg.ProviderID == providerID && reg.Status == types.StatusPublished {
			out = append(out, cloneRegistration(reg))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *webhookRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reg, ok := r.s.webhooks[id]
	if !ok || reg.Status != types.StatusPublished {
		return ierr.NewError("webhook registration not found").
			WithHintf("Webhook registration %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	reg.Status = types.StatusDeleted
	reg.UpdatedBy = types.GetActorID(ctx)
	return nil
}
