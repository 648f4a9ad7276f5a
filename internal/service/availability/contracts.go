package availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
)

// Repository источник правил, исключений и блоков расписания
type Repository interface {
	ListRules(ctx context.Context, tenantID, resourceID string) ([]*domain.AvailabilityRule, error)
	ListExceptions(ctx context.Context, tenantID, resourceID string, from, to time.Time) ([]*domain.AvailabilityException, error)
	ListTimeBlocks(ctx context.Context, tenantID, resourceID string) ([]*domain.TimeBlock, error)
}

// Directory справочник ресурсов
type Directory interface {
	GetResource(ctx context.Context, resourceID string) (*domain.Resource, error)
}

// TimezoneResolver зона ресурса с откатом на зону tenant
type TimezoneResolver interface {
	Location(ctx context.Context, resource *domain.Resource) (*time.Location, error)
}

// WindowCache короткоживущий кеш окон по (ресурс, дата).
// Сбрасывается целиком для ресурса при любой записи правил, исключений или блоков.
// Версия читается до загрузки источников: Set с версией, устаревшей к моменту записи, не виден.
type WindowCache interface {
	Version(ctx context.Context, tenantID, resourceID string) (int64, error)
	Get(ctx context.Context, tenantID, resourceID string, version int64, date time.Time) ([]interval.MinuteRange, bool, error)
	Set(ctx context.Context, tenantID, resourceID string, version int64, date time.Time, windows []interval.MinuteRange) error
	Invalidate(ctx context.Context, tenantID, resourceID string) error
}

// Metrics учет попаданий в кеш
type Metrics interface {
	CacheLookup(hit bool)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
