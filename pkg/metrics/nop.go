package metrics

import "time"

// Nop реализация с тем же набором методов, когда метрики выключены
type Nop struct{}

func (Nop) ObserveHTTP(string, string, int, time.Duration) {}
func (Nop) BookingOperation(string, string)                {}
func (Nop) LockWait(time.Duration, bool)                   {}
func (Nop) SlotsGenerated(int)                             {}
func (Nop) CacheLookup(bool)                               {}
func (Nop) EventPublished(string)                          {}
