package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability"
	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
)

// AvailabilityResolver открытые окна ресурса по датам
type AvailabilityResolver interface {
	Resolve(ctx context.Context, tenantID, resourceID string, from, to time.Time) (*availability.Result, error)
}

// TimezoneResolver перевод окон из минут суток в абсолютное время
type TimezoneResolver interface {
	WindowToAbsolute(loc *time.Location, date time.Time, window interval.MinuteRange) (interval.Span, error)
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	// ListActiveOverlapping активные бронирования ресурса, чей интервал с буферами пересекается со span
	ListActiveOverlapping(ctx context.Context, tenantID, resourceID string, span interval.Span, excludeID string) ([]*domain.Booking, error)
}

// Directory справочник услуг
type Directory interface {
	GetService(ctx context.Context, serviceID string) (*domain.Service, error)
}

// Metrics учет количества выданных слотов
type Metrics interface {
	SlotsGenerated(n int)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (RealTimeProvider) Now() time.Time {
	return time.Now()
}
