package outboxrelay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
)

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []*domain.OutboxEvent
}

func (p *fakePublisher) Publish(_ context.Context, events []*domain.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *fakePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, len(p.events))
	for i, e := range p.events {
		ids[i] = e.ID
	}
	return ids
}

func seed(t *testing.T, store *memory.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, store.Outbox().Insert(context.Background(), &domain.OutboxEvent{
			ID:          id,
			TenantID:    "t1",
			AggregateID: "b1",
			EventType:   domain.EventBookingCreated,
			Payload:     []byte(`{}`),
		}))
	}
}

func TestRelay_PublishBatch(t *testing.T) {
	store := memory.New()
	seed(t, store, "e1", "e2", "e3")
	pub := &fakePublisher{}
	relay := NewRelay(store.Outbox(), pub, store, metrics.Nop{}, logger.Nop(), Config{BatchSize: 2})

	n, err := relay.PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = relay.PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = relay.PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.Equal(t, []string{"e1", "e2", "e3"}, pub.published())
}

func TestRelay_PublishFailureKeepsEvents(t *testing.T) {
	store := memory.New()
	seed(t, store, "e1")
	pub := &fakePublisher{err: errors.New("broker down")}
	relay := NewRelay(store.Outbox(), pub, store, metrics.Nop{}, logger.Nop(), Config{BatchSize: 10})

	_, err := relay.PublishBatch(context.Background())
	assert.ErrorIs(t, err, ErrRelay)

	pending, err := store.Outbox().FetchUnpublished(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	pub.mu.Lock()
	pub.err = nil
	pub.mu.Unlock()

	n, err := relay.PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	store := memory.New()
	seed(t, store, "e1", "e2")
	pub := &fakePublisher{}
	relay := NewRelay(store.Outbox(), pub, store, metrics.Nop{}, logger.Nop(), Config{PollInterval: 5 * time.Millisecond, BatchSize: 10})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(pub.published()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
