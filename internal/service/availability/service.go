package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/directory"
	"github.com/m04kA/SMC-SchedulingService/internal/service/timezone"
	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Service разворачивает еженедельные правила и исключения в открытые окна по датам
type Service struct {
	repo         Repository
	directory    Directory
	timezones    TimezoneResolver
	cache        WindowCache
	metrics      Metrics
	logger       Logger
	maxRangeDays int
}

// NewService создает сервис доступности. cache может быть nil.
func NewService(
	repo Repository,
	dir Directory,
	timezones TimezoneResolver,
	cache WindowCache,
	metrics Metrics,
	logger Logger,
	maxRangeDays int,
) *Service {
	return &Service{
		repo:         repo,
		directory:    dir,
		timezones:    timezones,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		maxRangeDays: maxRangeDays,
	}
}

// MaxRangeDays максимальная длина запрашиваемого диапазона
func (s *Service) MaxRangeDays() int {
	return s.maxRangeDays
}

// Resolve открытые окна ресурса на даты from..to включительно.
// Неактивный ресурс или ресурс с нулевой вместимостью получает пустые окна на каждую дату.
func (s *Service) Resolve(ctx context.Context, tenantID, resourceID string, from, to time.Time) (*Result, error) {
	from, to = types.DateOnly(from), types.DateOnly(to)
	if err := s.validateRange(from, to); err != nil {
		return nil, err
	}

	resource, err := s.Resource(ctx, tenantID, resourceID)
	if err != nil {
		return nil, err
	}

	loc, err := s.timezones.Location(ctx, resource)
	if err != nil {
		if errors.Is(err, timezone.ErrInternal) {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		return nil, fmt.Errorf("%w: timezone of resource %s: %w", ErrInvalidInput, resourceID, err)
	}

	days := types.DaysBetween(from, to)
	result := &Result{Resource: resource, Location: loc, Days: make([]DayWindows, 0, len(days))}

	if !resource.IsBookable() {
		for _, d := range days {
			result.Days = append(result.Days, s.day(d, loc, []interval.MinuteRange{}))
		}
		return result, nil
	}

	src := &sources{tenantID: tenantID, resourceID: resourceID, from: from, to: to, repo: s.repo}
	s.pinCacheVersion(ctx, src)
	for _, d := range days {
		windows, err := s.windowsForDate(ctx, src, d)
		if err != nil {
			return nil, err
		}
		result.Days = append(result.Days, s.day(d, loc, windows))
	}
	return result, nil
}

// Resource ресурс tenant из справочника; удаленный или чужой ресурс считается отсутствующим
func (s *Service) Resource(ctx context.Context, tenantID, resourceID string) (*domain.Resource, error) {
	resource, err := s.directory.GetResource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, directory.ErrResourceNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("%w: failed to get resource %s: %v", ErrInternal, resourceID, err)
	}
	if resource.IsDeleted() || resource.TenantID != tenantID {
		return nil, ErrResourceNotFound
	}
	return resource, nil
}

// Invalidate сбрасывает кешированные окна ресурса
func (s *Service) Invalidate(ctx context.Context, tenantID, resourceID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, tenantID, resourceID); err != nil {
		s.logger.Warn("Availability: failed to invalidate cache for resource %s: %v", resourceID, err)
	}
}

func (s *Service) validateRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: from and to are required", ErrInvalidInput)
	}
	if to.Before(from) {
		return fmt.Errorf("%w: to is before from", ErrInvalidInput)
	}
	if s.maxRangeDays > 0 && int(to.Sub(from).Hours()/24) > s.maxRangeDays {
		return fmt.Errorf("%w: range exceeds %d days", ErrInvalidInput, s.maxRangeDays)
	}
	return nil
}

// pinCacheVersion фиксирует версию кеша до чтения правил, исключений и блоков.
// Если ресурс инвалидирован во время расчета, посчитанные окна в кеш не попадут.
func (s *Service) pinCacheVersion(ctx context.Context, src *sources) {
	if s.cache == nil {
		return
	}
	version, err := s.cache.Version(ctx, src.tenantID, src.resourceID)
	if err != nil {
		s.logger.Warn("Availability: cache version failed for resource %s: %v", src.resourceID, err)
		return
	}
	src.cacheVersion = version
	src.cached = true
}

func (s *Service) windowsForDate(ctx context.Context, src *sources, date time.Time) ([]interval.MinuteRange, error) {
	if src.cached {
		windows, ok, err := s.cache.Get(ctx, src.tenantID, src.resourceID, src.cacheVersion, date)
		if err != nil {
			s.logger.Warn("Availability: cache get failed for resource %s: %v", src.resourceID, err)
		}
		if err == nil {
			s.metrics.CacheLookup(ok)
			if ok {
				return windows, nil
			}
		}
	}

	if err := src.load(ctx); err != nil {
		return nil, err
	}
	windows := Expand(date, src.rules, src.exceptions[date.Format(types.DateFormat)], src.blocks, s.logger)

	if src.cached {
		if err := s.cache.Set(ctx, src.tenantID, src.resourceID, src.cacheVersion, date, windows); err != nil {
			s.logger.Warn("Availability: cache set failed for resource %s: %v", src.resourceID, err)
		}
	}
	return windows, nil
}

func (s *Service) day(date time.Time, loc *time.Location, windows []interval.MinuteRange) DayWindows {
	return DayWindows{
		Date:     date,
		Weekday:  types.ISOWeekday(date),
		Timezone: loc.String(),
		Location: loc,
		Windows:  windows,
	}
}

// sources данные расписания ресурса, загружаемые один раз на запрос и только при промахе кеша
type sources struct {
	tenantID   string
	resourceID string
	from, to   time.Time
	repo       Repository

	cached       bool
	cacheVersion int64

	loaded     bool
	rules      []*domain.AvailabilityRule
	exceptions map[string]*domain.AvailabilityException
	blocks     []*domain.TimeBlock
}

func (src *sources) load(ctx context.Context) error {
	if src.loaded {
		return nil
	}

	rules, err := src.repo.ListRules(ctx, src.tenantID, src.resourceID)
	if err != nil {
		return fmt.Errorf("%w: failed to list rules: %v", ErrInternal, err)
	}
	exceptions, err := src.repo.ListExceptions(ctx, src.tenantID, src.resourceID, src.from, src.to)
	if err != nil {
		return fmt.Errorf("%w: failed to list exceptions: %v", ErrInternal, err)
	}
	blocks, err := src.repo.ListTimeBlocks(ctx, src.tenantID, src.resourceID)
	if err != nil {
		return fmt.Errorf("%w: failed to list time blocks: %v", ErrInternal, err)
	}

	src.rules = rules
	src.blocks = blocks
	src.exceptions = make(map[string]*domain.AvailabilityException, len(exceptions))
	for _, e := range exceptions {
		src.exceptions[types.DateOnly(e.Date).Format(types.DateFormat)] = e
	}
	src.loaded = true
	return nil
}
