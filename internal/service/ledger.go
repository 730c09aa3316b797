package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flexprice/ledger/internal/api/dto"
	"github.com/flexprice/ledger/internal/domain/invoice"
	"github.com/flexprice/ledger/internal/domain/ledger"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
	jsoniter "github.com/json-iterator/go"
)

const (
	defaultRetryAttempts  = 3
	defaultGatewayTimeout = 30 * time.Second
	holdTimeout           = 5 * time.Second
)

// unit collects the events of one ledger operation. Events are published only
// after the transaction that produced them committed.
type unit struct {
	events []*types.LedgerEvent
}

func (u *unit) emit(ctx context.Context, name string, inv *invoice.Invoice, snapshot *dto.EventSnapshot) error {
	payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(snapshot)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to encode %s event", name).
			Mark(ierr.ErrSystem)
	}

	actor := types.GetActorID(ctx)
	if actor == "" {
		actor = types.DefaultActorID
	}
	u.events = append(u.events, &types.LedgerEvent{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		EventName:  name,
		ActorID:    actor,
		OwnerID:    inv.OwnerID,
		ProviderID: inv.ProviderID,
		RequestID:  types.GetRequestID(ctx),
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	})
	return nil
}

// atomically runs fn in one transaction and retries it with fresh reads while
// it loses a version race. fn must be safe to run more than once: anything it
// sends to the gateway has to carry an idempotency key computed by the caller.
func (s *ServiceParams) atomically(ctx context.Context, op string, fn func(ctx context.Context, u *unit) error) error {
	attempts := s.Config.Ledger.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}

	policy := backoff.NewExponentialBackOff()
	if s.Config.Ledger.RetryBaseDelay > 0 {
		policy.InitialInterval = s.Config.Ledger.RetryBaseDelay
	}
	policy.MaxElapsedTime = 0

	var committed *unit
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		u := &unit{}
		err := s.attempt(ctx, u, fn)
		if err == nil {
			committed = u
			return nil
		}
		if ierr.IsVersionConflict(err) {
			s.Logger.WithContext(ctx).Debugw("ledger write lost a version race",
				"operation", op,
				"attempt", attempt,
				"error", err,
			)
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(attempts-1)), ctx))

	if err != nil {
		if ierr.IsVersionConflict(err) {
			s.Logger.WithContext(ctx).Warnw("ledger write gave up after repeated conflicts",
				"operation", op,
				"attempts", attempt,
			)
			// fresh error so that the store's hint does not shadow this one
			return ierr.NewError(fmt.Sprintf("%s gave up after %d attempts: %v", op, attempt, err)).
				WithHint("The record was changed by another request, please retry").
				WithReportableDetails(map[string]any{
					"operation": op,
					"attempts":  attempt,
				}).
				Mark(ierr.ErrVersionConflict)
		}
		return err
	}

	s.publish(ctx, committed.events)
	return nil
}

// attempt runs a single transaction and turns a broken ledger invariant into
// ErrLedgerCorrupted once the transaction rolled back
func (s *ServiceParams) attempt(ctx context.Context, u *unit, fn func(ctx context.Context, u *unit) error) (err error) {
	defer s.recoverInvariant(ctx, &err)

	return s.DB.WithTx(ctx, func(ctx context.Context) error {
		return fn(ctx, u)
	})
}

// recoverInvariant must be deferred. It converts an InvariantViolation panic
// into ErrLedgerCorrupted and places a hold on the affected aggregate. Any
// other panic is re-raised.
func (s *ServiceParams) recoverInvariant(ctx context.Context, errp *error) {
	r := recover()
	if r == nil {
		return
	}
	violation, ok := r.(*ledger.InvariantViolation)
	if !ok {
		panic(r)
	}
	*errp = s.ledgerCorrupted(ctx, violation)
}

func (s *ServiceParams) ledgerCorrupted(ctx context.Context, v *ledger.InvariantViolation) error {
	log := s.Logger.WithContext(ctx)
	log.Errorw("ledger invariant violated, placing reconciliation hold",
		"aggregate", v.Aggregate,
		"aggregate_id", v.AggregateID,
		"reason", v.Reason,
	)

	// the hold must survive the caller giving up on the request
	holdCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), holdTimeout)
	defer cancel()

	var holdErr error
	switch v.Aggregate {
	case ledger.AggregateInvoice:
		holdErr = s.InvoiceRepo.PlaceHold(holdCtx, v.AggregateID, v.Reason)
	case ledger.AggregatePayment:
		holdErr = s.PaymentRepo.PlaceHold(holdCtx, v.AggregateID, v.Reason)
	}
	if holdErr != nil {
		log.Errorw("failed to place reconciliation hold",
			"aggregate", v.Aggregate,
			"aggregate_id", v.AggregateID,
			"error", holdErr,
		)
	}

	err := ierr.WithError(v).
		WithHintf("The %s is inconsistent and was put on hold for manual reconciliation", v.Aggregate).
		WithReportableDetails(map[string]any{
			"aggregate":    v.Aggregate,
			"aggregate_id": v.AggregateID,
		}).
		Mark(ierr.ErrLedgerCorrupted)
	s.Sentry.CaptureLedgerCorruption(ctx, v.Aggregate, v.AggregateID, err)
	return err
}

// publish hands committed events to the bus. A failure is logged and never
// undoes the committed ledger change.
func (s *ServiceParams) publish(ctx context.Context, events []*types.LedgerEvent) {
	for _, event := range events {
		if err := s.EventPublisher.Publish(ctx, event); err != nil {
			s.Logger.WithContext(ctx).Errorw("failed to publish ledger event",
				"event_id", event.ID,
				"event_name", event.EventName,
				"error", err,
			)
			s.Sentry.CaptureException(err)
		}
	}
}

// gatewayContext bounds a gateway call by the configured timeout
func (s *ServiceParams) gatewayContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.Config.Ledger.GatewayTimeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// requestNonce identifies one client request so that its idempotency key is
// stable across retries of the same operation
func requestNonce(ctx context.Context) string {
	if id := types.GetRequestID(ctx); id != "" {
		return id
	}
	return types.GenerateUUID()
}
