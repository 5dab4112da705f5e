// Package invalidation maps change-feed events to the query results they
// stale. Subscriptions are explicit handles, so the invalidation graph is
// inspectable and tears down cleanly.
package invalidation

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/changefeed"
)

// Handler is invoked for each matching change event. Handlers must not block;
// they signal staleness, they do not fetch.
type Handler func(ev changefeed.Event)

type subscriber struct {
	op      string
	handler Handler
}

// Registry fans change events out to interested subscribers by table name.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]map[string]*subscriber // table -> subscription ID -> subscriber
}

func NewRegistry() *Registry {
	return &Registry{subs: make(map[string]map[string]*subscriber)}
}

// Subscription is a handle to an active registration.
type Subscription struct {
	id       string
	tables   []string
	registry *Registry
	once     sync.Once
}

// Subscribe registers handler for events on the given tables. op is one of
// the changefeed operations or OpAny for any change.
func (r *Registry) Subscribe(tables []string, op string, handler Handler) *Subscription {
	id := uuid.New().String()

	r.mu.Lock()
	for _, table := range tables {
		if r.subs[table] == nil {
			r.subs[table] = make(map[string]*subscriber)
		}
		r.subs[table][id] = &subscriber{op: op, handler: handler}
	}
	r.mu.Unlock()

	return &Subscription{id: id, tables: tables, registry: r}
}

// Close removes the subscription from every table it watches. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.registry.mu.Lock()
		defer s.registry.mu.Unlock()
		for _, table := range s.tables {
			delete(s.registry.subs[table], s.id)
			if len(s.registry.subs[table]) == 0 {
				delete(s.registry.subs, table)
			}
		}
	})
}

// Dispatch delivers an event to every subscriber watching its table whose
// operation mask matches. Delivery is synchronous and in no defined order.
func (r *Registry) Dispatch(ev changefeed.Event) {
	r.mu.RLock()
	var handlers []Handler
	for _, sub := range r.subs[ev.Table] {
		if sub.op == changefeed.OpAny || sub.op == ev.Op {
			handlers = append(handlers, sub.handler)
		}
	}
	r.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// SubscriberCount reports how many subscriptions watch a table.
func (r *Registry) SubscriberCount(table string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[table])
}

// HandleFeed adapts the registry to the change-feed consumer.
func (r *Registry) HandleFeed(ctx context.Context, ev changefeed.Event) {
	log.Printf("[Invalidation] %s on %s (record %s)", ev.Op, ev.Table, ev.RecordID)
	r.Dispatch(ev)
}
