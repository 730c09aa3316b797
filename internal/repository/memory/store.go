package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/flexprice/ledger/internal/config"
	"github.com/flexprice/ledger/internal/domain/paymentmethod"
	"github.com/flexprice/ledger/internal/domain/webhook"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/postgres"
	"github.com/flexprice/ledger/internal/types"
)

var _ postgres.IClient = (*Store)(nil)

// Store is the in-memory ledger store. It keeps the same contract as the
// postgres store: GetForUpdate takes a row lock held until the transaction
// ends, writes inside WithTx are buffered and applied atomically on commit,
// and every update is a compare-and-swap on the aggregate version.
type Store struct {
	mu     sync.Mutex
	logger *logger.Logger

	invoices  *table[invoiceRow]
	payments  *table[paymentRow]
	refunds   *table[refundRow]
	sequences map[string]int64
	methods   map[string]*paymentmethod.PaymentMethod
	webhooks  map[string]*webhook.Registration

	locks map[string]chan struct{}

	// failCommits makes the next n commits fail with a version conflict
	failCommits int
}

// NewStore creates an empty store and loads the configured payment method seeds
func NewStore(cfg *config.Configuration, logger *logger.Logger) *Store {
	s := &Store{
		logger:    logger,
		invoices:  newTable[invoiceRow]("invoice"),
		payments:  newTable[paymentRow]("payment"),
		refunds:   newTable[refundRow]("refund"),
		sequences: make(map[string]int64),
		methods:   make(map[string]*paymentmethod.PaymentMethod),
		webhooks:  make(map[string]*webhook.Registration),
		locks:     make(map[string]chan struct{}),
	}

	if cfg != nil {
		for _, seed := range cfg.Ledger.SeedPaymentMethods {
			s.PutPaymentMethod(&paymentmethod.PaymentMethod{
				ID:         seed.ID,
				OwnerID:    seed.OwnerID,
				MethodType: seed.MethodType,
				IsActive:   !seed.Inactive,
			})
		}
	}
	return s
}

type txKey struct{}

// tx buffers the writes of one WithTx call
type tx struct {
	id     string
	writes map[string]*write
	order  []string
	held   []string
}

// write is a staged row. expect is the committed version the row had when
// the transaction first wrote it, or -1 for rows created in the transaction.
type write struct {
	row     any
	expect  int64
	current func() (int64, bool)
	apply   func()
}

func getTx(ctx context.Context) (*tx, bool) {
	t, ok := ctx.Value(txKey{}).(*tx)
	return t, ok
}

func (t *tx) stage(key string, w *write) {
	if prev, ok := t.writes[key]; ok {
		w.expect = prev.expect
	} else {
		t.order = append(t.order, key)
	}
	t.writes[key] = w
}

func (t *tx) holds(key string) bool {
	for _, k := range t.held {
		if k == key {
			return true
		}
	}
	return false
}

// WithTx runs fn in a transaction. A nested call joins the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := getTx(ctx); ok {
		return fn(ctx)
	}

	t := &tx{
		id:     types.GenerateUUID(),
		writes: make(map[string]*write),
	}
	ctx = context.WithValue(ctx, txKey{}, t)
	defer s.release(t)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("panic in transaction", "tx_id", t.id, "panic", r)
			panic(r)
		}
	}()

	if err := fn(ctx); err != nil {
		if ierr.IsLedgerRule(err) || ierr.IsVersionConflict(err) {
			s.logger.Debugw("transaction rejected", "tx_id", t.id, "error", err)
		} else {
			s.logger.Errorw("transaction failed", "tx_id", t.id, "error", err)
		}
		return err
	}

	return s.commit(t)
}

func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failCommits > 0 {
		s.failCommits--
		return ierr.NewError("injected commit conflict").
			WithHint("A concurrent update won the race, please retry").
			Mark(ierr.ErrVersionConflict)
	}

	for _, key := range t.order {
		w := t.writes[key]
		if w.expect < 0 {
			continue
		}
		if v, ok := w.current(); !ok || v != w.expect {
			return ierr.NewError("commit version conflict").
				WithHintf("%s was modified concurrently", key).
				WithReportableDetails(map[string]any{
					"key":      key,
					"expected": w.expect,
					"found":    v,
				}).
				Mark(ierr.ErrVersionConflict)
		}
	}

	for _, key := range t.order {
		t.writes[key].apply()
	}

	s.logger.Debugw("committed transaction", "tx_id", t.id, "writes", len(t.order))
	return nil
}

// lock takes the row lock for key on behalf of the transaction in ctx.
// Waiting stops when ctx is done.
func (s *Store) lock(ctx context.Context, key string) error {
	t, ok := getTx(ctx)
	if !ok {
		return ierr.NewError("GetForUpdate called outside a transaction").
			Mark(ierr.ErrSystem)
	}
	if t.holds(key) {
		return nil
	}

	s.mu.Lock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	s.mu.Unlock()

	select {
	case ch <- struct{}{}:
		t.held = append(t.held, key)
		return nil
	case <-ctx.Done():
		return ierr.WithError(ctx.Err()).
			WithHintf("Timed out waiting for the %s lock", key).
			Mark(ierr.ErrVersionConflict)
	}
}

func (s *Store) release(t *tx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range t.held {
		<-s.locks[key]
	}
	t.held = nil
}

// FailNextCommits makes the next n commits fail with a version conflict
func (s *Store) FailNextCommits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommits = n
}

func rowKey(table string, id any) string {
	return fmt.Sprintf("%s:%v", table, id)
}
