package testfixtures

import (
	"sync"
	"time"
)

// ReferenceTime воскресенье 2025-01-05 12:00 UTC: ближайший понедельник целиком в будущем
var ReferenceTime = time.Date(2025, time.January, 5, 12, 0, 0, 0, time.UTC)

// Clock управляемые часы для тестов
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock часы, выставленные на start; нулевое значение = ReferenceTime
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime
	}
	return &Clock{current: start}
}

// Now текущее время часов
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Set выставляет время
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance сдвигает часы вперед и возвращает новое время
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}
