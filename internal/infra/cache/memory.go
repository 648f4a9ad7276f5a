package cache

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

type memoryEntry struct {
	windows   []interval.MinuteRange
	expiresAt time.Time
}

// Memory кеш окон доступности в памяти процесса, используется без Redis.
// Как и в Redis, у ресурса есть версия: Invalidate ее увеличивает,
// а Get и Set с устаревшей версией не видят и не пишут данные.
type Memory struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	versions map[string]int64                  // tenant/resource -> версия
	entries  map[string]map[string]memoryEntry // tenant/resource -> дата -> окна
}

// NewMemory создает кеш с заданным TTL
func NewMemory(ttl time.Duration) *Memory {
	return NewMemoryWithClock(ttl, time.Now)
}

// NewMemoryWithClock кеш с подменяемыми часами
func NewMemoryWithClock(ttl time.Duration, now func() time.Time) *Memory {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Memory{
		ttl:      ttl,
		now:      now,
		versions: make(map[string]int64),
		entries:  make(map[string]map[string]memoryEntry),
	}
}

// Version текущая версия окон ресурса
func (c *Memory) Version(_ context.Context, tenantID, resourceID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[memoryKey(tenantID, resourceID)], nil
}

// Get окна ресурса на дату; ok = false при промахе, истекшей записи или устаревшей версии
func (c *Memory) Get(_ context.Context, tenantID, resourceID string, version int64, date time.Time) ([]interval.MinuteRange, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := memoryKey(tenantID, resourceID)
	if c.versions[key] != version {
		return nil, false, nil
	}
	byDate, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	day := date.Format(types.DateFormat)
	entry, ok := byDate[day]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(byDate, day)
		return nil, false, nil
	}
	return copyWindows(entry.windows), true, nil
}

// Set сохраняет окна ресурса на дату. Окна, посчитанные до инвалидации, отбрасываются.
func (c *Memory) Set(_ context.Context, tenantID, resourceID string, version int64, date time.Time, windows []interval.MinuteRange) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := memoryKey(tenantID, resourceID)
	if c.versions[key] != version {
		return nil
	}
	byDate, ok := c.entries[key]
	if !ok {
		byDate = make(map[string]memoryEntry)
		c.entries[key] = byDate
	}
	byDate[date.Format(types.DateFormat)] = memoryEntry{windows: copyWindows(windows), expiresAt: c.now().Add(c.ttl)}
	return nil
}

// Invalidate сбрасывает все даты ресурса
func (c *Memory) Invalidate(_ context.Context, tenantID, resourceID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := memoryKey(tenantID, resourceID)
	c.versions[key]++
	delete(c.entries, key)
	return nil
}

func memoryKey(tenantID, resourceID string) string {
	return tenantID + "/" + resourceID
}

func copyWindows(windows []interval.MinuteRange) []interval.MinuteRange {
	out := make([]interval.MinuteRange, len(windows))
	copy(out, windows)
	return out
}
