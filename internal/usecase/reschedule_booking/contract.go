package reschedule_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.Booking, error)
	GetByClientID(ctx context.Context, tenantID, clientID string) (*domain.Booking, error)
	ListActiveOverlapping(ctx context.Context, tenantID, resourceID string, span interval.Span, excludeID string) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, tenantID, id string, status domain.BookingStatus, at time.Time) error
}

// OutboxRepository запись доменных событий в той же транзакции
type OutboxRepository interface {
	Insert(ctx context.Context, event *domain.OutboxEvent) error
}

// Directory справочник ресурсов
type Directory interface {
	GetResource(ctx context.Context, resourceID string) (*domain.Resource, error)
}

// TimezoneResolver зона ресурса и перевод локального времени в UTC
type TimezoneResolver interface {
	Location(ctx context.Context, resource *domain.Resource) (*time.Location, error)
	PointToAbsolute(loc *time.Location, date time.Time, minuteOfDay int) (time.Time, error)
}

// Locker блокировка (tenant, resource) с ограниченным ожиданием
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics учет результатов операций
type Metrics interface {
	BookingOperation(operation, outcome string)
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
