// Package keylock реализует реестр блокировок по ключу с ограниченным временем ожидания.
// Для каждого ключа создаётся отдельный семафор, поэтому операции над разными ключами
// никогда не ждут друг друга. Неиспользуемые записи удаляются из реестра.
package keylock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrBusy возвращается, если блокировку не удалось получить за отведённое время
var ErrBusy = errors.New("keylock: lock wait timeout")

// Observer получает длительность ожидания каждой попытки захвата
type Observer func(wait time.Duration, acquired bool)

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// Registry реестр блокировок
type Registry struct {
	mu       sync.Mutex
	entries  map[string]*entry
	timeout  time.Duration
	observer Observer
}

// Option настройка реестра
type Option func(*Registry)

// WithObserver подключает наблюдателя за временем ожидания (метрики)
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// NewRegistry создает реестр с таймаутом ожидания timeout (0 = ждать до отмены контекста)
func NewRegistry(timeout time.Duration, opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResourceKey ключ блокировки для пары (tenant, resource)
func ResourceKey(tenantID, resourceID string) string {
	return tenantID + "/" + resourceID
}

// Acquire захватывает блокировку key. Возвращаемую функцию release нужно вызвать ровно один раз.
func (r *Registry) Acquire(ctx context.Context, key string) (func(), error) {
	e := r.retain(key)

	waitCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	started := time.Now()
	err := e.sem.Acquire(waitCtx, 1)
	if r.observer != nil {
		r.observer(time.Since(started), err == nil)
	}
	if err != nil {
		r.releaseRef(key)
		return nil, fmt.Errorf("%w: key=%s after %s", ErrBusy, key, time.Since(started).Round(time.Millisecond))
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			r.releaseRef(key)
		})
	}, nil
}

// Len количество ключей в реестре
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) retain(key string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		r.entries[key] = e
	}
	e.refs++
	return e
}

func (r *Registry) releaseRef(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(r.entries, key)
	}
}
