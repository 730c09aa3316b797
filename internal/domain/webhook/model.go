package webhook

import (
	"context"
	"net/url"
	"strings"

	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

// SecretPrefix marks signing secrets in the Standard Webhooks format
const SecretPrefix = "whsec_"

// Registration is a provider's subscription to ledger events
type Registration struct {
	ID         string         `db:"id" json:"id"`
	ProviderID int64          `db:"provider_id" json:"provider_id"`
	URL        string         `db:"url" json:"url"`
	Events     pq.StringArray `db:"events" json:"events"`
	Secret     string         `db:"secret" json:"-"`
	Enabled    bool           `db:"enabled" json:"enabled"`

	types.BaseModel
}

// Subscribes reports whether the registration wants eventName
func (r *Registration) Subscribes(eventName string) bool {
	return r.Enabled && (lo.Contains(r.Events, types.EventWildcard) || lo.Contains(r.Events, eventName))
}

// Validate checks the registration before it is stored
func (r *Registration) Validate() error {
	if r.ProviderID <= 0 {
		return ierr.NewError("provider_id is required").
			WithHint("Provider is required").
			Mark(ierr.ErrValidation)
	}

	u, err := url.Parse(r.URL)
	if err != nil || !u.IsAbs() || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return ierr.NewError("invalid webhook url").
			WithHint("Webhook URL must be an absolute http or https URL").
			WithReportableDetails(map[string]any{"url": r.URL}).
			Mark(ierr.ErrValidation)
	}

	if len(r.Events) == 0 {
		return ierr.NewError("events are required").
			WithHint("Subscribe to at least one event").
			Mark(ierr.ErrValidation)
	}
	for _, e := range r.Events {
		if e != types.EventWildcard && !types.IsKnownEvent(e) {
			return ierr.NewError("unknown event").
				WithHintf("Unknown event %q", e).
				WithReportableDetails(map[string]any{
					"event":   e,
					"allowed": types.KnownEvents(),
				}).
				Mark(ierr.ErrValidation)
		}
	}

	if !strings.HasPrefix(r.Secret, SecretPrefix) || len(r.Secret) <= len(SecretPrefix) {
		return ierr.NewError("invalid webhook secret").
			WithHintf("Webhook secret must start with %s", SecretPrefix).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Repository defines the interface for webhook registration persistence
type Repository interface {
	Create(ctx context.Context, registration *Registration) error
	Get(ctx context.Context, id string) (*Registration, error)
	// ListByProvider returns every live registration of a provider
	ListByProvider(ctx context.Context, providerID int64) ([]*Registration, error)
	Delete(ctx context.Context, id string) error
}
