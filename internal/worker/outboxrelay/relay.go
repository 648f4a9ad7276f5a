package outboxrelay

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRelay ошибка публикации пачки событий
var ErrRelay = errors.New("outboxrelay: relay failed")

// Config параметры опроса
type Config struct {
	PollInterval time.Duration
	BatchSize    int
}

// Relay переносит события из outbox в брокер с гарантией at-least-once:
// события отмечаются опубликованными только после подтверждения брокера.
type Relay struct {
	repo         OutboxRepository
	publisher    Publisher
	txManager    TxManager
	metrics      Metrics
	logger       Logger
	timeProvider TimeProvider
	pollInterval time.Duration
	batchSize    int
}

// NewRelay создает релей outbox
func NewRelay(repo OutboxRepository, publisher Publisher, txManager TxManager, metrics Metrics, logger Logger, cfg Config) *Relay {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Relay{
		repo:         repo,
		publisher:    publisher,
		txManager:    txManager,
		metrics:      metrics,
		logger:       logger,
		timeProvider: RealTimeProvider{},
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
	}
}

// Run опрашивает outbox до отмены контекста
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info("OutboxRelay: started, poll interval %s, batch size %d", r.pollInterval, r.batchSize)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("OutboxRelay: stopped")
			return
		case <-ticker.C:
			// Полная пачка означает, что в очереди могут быть ещё события
			for {
				n, err := r.PublishBatch(ctx)
				if err != nil {
					if ctx.Err() == nil {
						r.logger.Error("OutboxRelay: %v", err)
					}
					break
				}
				if n < r.batchSize || ctx.Err() != nil {
					break
				}
			}
		}
	}
}

// PublishBatch публикует одну пачку и возвращает число опубликованных событий
func (r *Relay) PublishBatch(ctx context.Context) (int, error) {
	published := 0

	err := r.txManager.Do(ctx, func(ctx context.Context) error {
		events, err := r.repo.FetchUnpublished(ctx, r.batchSize)
		if err != nil {
			return fmt.Errorf("%w: fetch: %v", ErrRelay, err)
		}
		if len(events) == 0 {
			return nil
		}

		if err := r.publisher.Publish(ctx, events); err != nil {
			return fmt.Errorf("%w: publish %d events: %v", ErrRelay, len(events), err)
		}

		ids := make([]string, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		if err := r.repo.MarkPublished(ctx, ids, r.timeProvider.Now().UTC()); err != nil {
			return fmt.Errorf("%w: mark published: %v", ErrRelay, err)
		}

		for _, e := range events {
			r.metrics.EventPublished(e.EventType)
		}
		published = len(events)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}
