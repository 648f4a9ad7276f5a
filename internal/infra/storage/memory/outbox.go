package memory

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// OutboxRepository события outbox в памяти, в порядке вставки
type OutboxRepository struct {
	store *Store
}

// Insert записывает событие
func (r *OutboxRepository) Insert(ctx context.Context, event *domain.OutboxEvent) error {
	stored := *event
	stored.Payload = append([]byte(nil), event.Payload...)
	return r.store.write(ctx, func(s *Store) (func(), error) {
		s.events = append(s.events, &stored)
		return func() { s.events = s.events[:len(s.events)-1] }, nil
	})
}

// FetchUnpublished первые limit неопубликованных событий
func (r *OutboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	events := make([]*domain.OutboxEvent, 0)
	for _, e := range r.store.events {
		if len(events) >= limit {
			break
		}
		if e.PublishedAt == nil {
			c := *e
			events = append(events, &c)
		}
	}
	return events, nil
}

// MarkPublished отмечает события опубликованными
func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	return r.store.write(ctx, func(s *Store) (func(), error) {
		marked := make([]*domain.OutboxEvent, 0, len(ids))
		for _, e := range s.events {
			if _, ok := wanted[e.ID]; ok && e.PublishedAt == nil {
				published := at
				e.PublishedAt = &published
				marked = append(marked, e)
			}
		}
		return func() {
			for _, e := range marked {
				e.PublishedAt = nil
			}
		}, nil
	})
}

// All все события, для тестов и отладки
func (r *OutboxRepository) All() []*domain.OutboxEvent {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	events := make([]*domain.OutboxEvent, len(r.store.events))
	for i, e := range r.store.events {
		c := *e
		events[i] = &c
	}
	return events
}
