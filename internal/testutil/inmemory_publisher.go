package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/ledger/internal/publisher"
	"github.com/flexprice/ledger/internal/types"
	"github.com/samber/lo"
)

// InMemoryEventPublisher records published ledger events for assertions
type InMemoryEventPublisher struct {
	mu     sync.RWMutex
	events []*types.LedgerEvent
	err    error
}

var _ publisher.EventPublisher = (*InMemoryEventPublisher)(nil)

func NewInMemoryEventPublisher() *InMemoryEventPublisher {
	return &InMemoryEventPublisher{}
}

func (p *InMemoryEventPublisher) Publish(_ context.Context, event *types.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// FailWith makes every later Publish return err
func (p *InMemoryEventPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// GetEvents returns all published events in publish order
func (p *InMemoryEventPublisher) GetEvents() []*types.LedgerEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*types.LedgerEvent(nil), p.events...)
}

// EventNames returns the names of all published events in publish order
func (p *InMemoryEventPublisher) EventNames() []string {
	return lo.Map(p.GetEvents(), func(e *types.LedgerEvent, _ int) string { return e.EventName })
}

// CountEvents returns how many events named name were published
func (p *InMemoryEventPublisher) CountEvents(name string) int {
	return lo.CountBy(p.GetEvents(), func(e *types.LedgerEvent) bool { return e.EventName == name })
}

func (p *InMemoryEventPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
	p.err = nil
}
