package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/directory"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability"
	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
)

// UseCase use case для получения доступных слотов для бронирования.
// Работает без блокировок: результат является снимком и может устареть к моменту бронирования.
type UseCase struct {
	availability AvailabilityResolver
	timezones    TimezoneResolver
	bookingRepo  BookingRepository
	directory    Directory
	metrics      Metrics
	logger       Logger
	config       Config
	TimeProvider TimeProvider
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	availability AvailabilityResolver,
	timezones TimezoneResolver,
	bookingRepo BookingRepository,
	dir Directory,
	metrics Metrics,
	logger Logger,
	config Config,
) *UseCase {
	if config.DefaultGridMinutes <= 0 {
		config.DefaultGridMinutes = 15
	}
	return &UseCase{
		availability: availability,
		timezones:    timezones,
		bookingRepo:  bookingRepo,
		directory:    dir,
		metrics:      metrics,
		logger:       logger,
		config:       config,
		TimeProvider: RealTimeProvider{},
	}
}

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: tenant=%s, resource=%s, service=%s, from=%s, to=%s",
		req.TenantID, req.ResourceID, req.ServiceID, req.From.Format(domain.DateFormat), req.To.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}
	grid := req.GridMinutes
	if grid == 0 {
		grid = uc.config.DefaultGridMinutes
	}

	// 2. Получаем услугу
	service, err := uc.directory.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, directory.ErrServiceNotFound) {
			uc.logger.Warn("GetAvailableSlots: service id=%s not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get service id=%s: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}
	if err := validateService(service, req.TenantID); err != nil {
		uc.logger.Warn("GetAvailableSlots: service id=%s rejected: %v", req.ServiceID, err)
		return nil, err
	}

	// 3. Открытые окна по датам в зоне ресурса
	resolved, err := uc.availability.Resolve(ctx, req.TenantID, req.ResourceID, req.From, req.To)
	if err != nil {
		return nil, uc.translateResolveError(req.ResourceID, err)
	}

	resp := &Response{
		ResourceID:      req.ResourceID,
		ServiceID:       req.ServiceID,
		Timezone:        resolved.Location.String(),
		DurationMinutes: service.DurationMinutes,
		GridMinutes:     grid,
		Slots:           []domain.AvailableSlot{},
	}

	// 4. Переводим окна в UTC
	windows, envelope, err := uc.absoluteWindows(resolved)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to convert windows for resource=%s: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: failed to convert windows: %v", ErrInternal, err)
	}
	if len(windows) == 0 {
		uc.logger.Info("GetAvailableSlots: resource=%s has no open windows in range", req.ResourceID)
		uc.metrics.SlotsGenerated(0)
		return resp, nil
	}

	// 5. Активные бронирования, пересекающие диапазон окон
	bookings, err := uc.bookingRepo.ListActiveOverlapping(ctx, req.TenantID, req.ResourceID, envelope, "")
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}
	busy := busySpans(bookings)

	// 6. Сетка внутри свободных отрезков
	params := slotParams{
		duration:     time.Duration(service.DurationMinutes) * time.Minute,
		bufferBefore: time.Duration(service.BufferBeforeMinutes) * time.Minute,
		bufferAfter:  time.Duration(service.BufferAfterMinutes) * time.Minute,
		grid:         time.Duration(grid) * time.Minute,
		earliest:     uc.TimeProvider.Now().Add(time.Duration(uc.config.MinNoticeMinutes) * time.Minute),
	}
	starts := make([]time.Time, 0)
	for _, w := range windows {
		starts = append(starts, generateStarts(w, busy, params)...)
	}
	resp.Slots = toSlots(starts, params.duration, resolved.Location)

	uc.metrics.SlotsGenerated(len(resp.Slots))
	uc.logger.Info("GetAvailableSlots: generated %d slots for resource=%s, service=%s, busy=%d",
		len(resp.Slots), req.ResourceID, req.ServiceID, len(busy))

	return resp, nil
}

// absoluteWindows окна всех дат в UTC и охватывающий их интервал
func (uc *UseCase) absoluteWindows(resolved *availability.Result) ([]interval.Span, interval.Span, error) {
	windows := make([]interval.Span, 0)
	var envelope interval.Span
	for _, day := range resolved.Days {
		for _, w := range day.Windows {
			span, err := uc.timezones.WindowToAbsolute(day.Location, day.Date, w)
			if err != nil {
				return nil, interval.Span{}, err
			}
			// окно целиком в разрыве перехода на летнее время
			if span.IsEmpty() {
				continue
			}
			windows = append(windows, span)
			if envelope.Start.IsZero() || span.Start.Before(envelope.Start) {
				envelope.Start = span.Start
			}
			if span.End.After(envelope.End) {
				envelope.End = span.End
			}
		}
	}
	return windows, envelope, nil
}

func (uc *UseCase) translateResolveError(resourceID string, err error) error {
	switch {
	case errors.Is(err, availability.ErrResourceNotFound):
		uc.logger.Warn("GetAvailableSlots: resource id=%s not found", resourceID)
		return ErrResourceNotFound
	case errors.Is(err, availability.ErrInvalidInput):
		uc.logger.Warn("GetAvailableSlots: invalid range for resource=%s: %v", resourceID, err)
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		uc.logger.Error("GetAvailableSlots: failed to resolve availability for resource=%s: %v", resourceID, err)
		return fmt.Errorf("%w: failed to resolve availability: %v", ErrInternal, err)
	}
}
