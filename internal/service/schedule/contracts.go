package schedule

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Repository хранилище правил, исключений и блоков расписания
type Repository interface {
	CreateRule(ctx context.Context, rule *domain.AvailabilityRule) (*domain.AvailabilityRule, error)
	DeleteRule(ctx context.Context, tenantID, resourceID, ruleID string) error
	ListRules(ctx context.Context, tenantID, resourceID string) ([]*domain.AvailabilityRule, error)
	CreateException(ctx context.Context, exception *domain.AvailabilityException) (*domain.AvailabilityException, error)
	DeleteException(ctx context.Context, tenantID, resourceID, exceptionID string) error
	ListExceptions(ctx context.Context, tenantID, resourceID string, from, to time.Time) ([]*domain.AvailabilityException, error)
	CreateTimeBlock(ctx context.Context, block *domain.TimeBlock) (*domain.TimeBlock, error)
	ListTimeBlocks(ctx context.Context, tenantID, resourceID string) ([]*domain.TimeBlock, error)
}

// Directory справочник ресурсов
type Directory interface {
	GetResource(ctx context.Context, resourceID string) (*domain.Resource, error)
}

// CacheInvalidator сброс кеша окон ресурса
type CacheInvalidator interface {
	Invalidate(ctx context.Context, tenantID, resourceID string)
}

// Locker блокировка по ключу с ограниченным ожиданием
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// TxManager интерфейс для управления транзакциями
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider реальная реализация TimeProvider
type RealTimeProvider struct{}

func (RealTimeProvider) Now() time.Time {
	return time.Now()
}
