package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/directory"
	"github.com/m04kA/SMC-SchedulingService/internal/service/timezone"
	"github.com/m04kA/SMC-SchedulingService/pkg/keylock"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

const operation = "create"

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	outboxRepo   OutboxRepository
	directory    Directory
	timezones    TimezoneResolver
	locker       Locker
	txManager    TransactionManager
	metrics      Metrics
	logger       Logger
	config       Config
	TimeProvider TimeProvider
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	outboxRepo OutboxRepository,
	dir Directory,
	timezones TimezoneResolver,
	locker Locker,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
	config Config,
) *UseCase {
	if config.InitialStatus == "" {
		config.InitialStatus = domain.StatusConfirmed
	}
	return &UseCase{
		bookingRepo:  bookingRepo,
		outboxRepo:   outboxRepo,
		directory:    dir,
		timezones:    timezones,
		locker:       locker,
		txManager:    txManager,
		metrics:      metrics,
		logger:       logger,
		config:       config,
		TimeProvider: RealTimeProvider{},
	}
}

// Execute выполняет use case создания бронирования.
// Проверка пересечений и вставка выполняются под блокировкой (tenant, resource)
// в одной сериализуемой транзакции; повтор с тем же client_generated_id возвращает
// существующее бронирование.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: tenant=%s, resource=%s, services=%v, client_id=%s",
		req.TenantID, req.ResourceID, req.ServiceIDs, req.ClientGeneratedID)

	resp, err := uc.execute(ctx, req)
	uc.metrics.BookingOperation(operation, outcome(resp, err))
	return resp, err
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Повтор запроса возвращает ранее созданное бронирование
	if existing, err := uc.findByClientID(ctx, req); err != nil || existing != nil {
		return existing, err
	}

	// 3. Проверяем ресурс и услуги
	resource, err := uc.loadResource(ctx, req)
	if err != nil {
		return nil, err
	}
	services, err := uc.loadServices(ctx, req)
	if err != nil {
		return nil, err
	}

	// 4. Начало бронирования в UTC
	start, loc, err := uc.resolveStart(ctx, req, resource)
	if err != nil {
		return nil, err
	}
	now := uc.TimeProvider.Now().UTC()
	if err := validateStart(start, now, uc.config.MinNoticeMinutes); err != nil {
		uc.logger.Warn("CreateBooking: start validation failed: %v", err)
		return nil, err
	}

	booking := uc.newBooking(req, services, start, loc, now)

	// 5. Блокировка ресурса
	release, err := uc.locker.Acquire(ctx, keylock.ResourceKey(req.TenantID, req.ResourceID))
	if err != nil {
		uc.logger.Warn("CreateBooking: lock wait failed for resource=%s: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	}
	defer release()

	// Параллельный запрос с тем же ключом мог завершиться, пока мы ждали блокировку
	if existing, err := uc.findByClientID(ctx, req); err != nil || existing != nil {
		return existing, err
	}

	// 6. Проверка пересечений и вставка в одной транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		overlapping, err := uc.bookingRepo.ListActiveOverlapping(txCtx, req.TenantID, req.ResourceID, booking.PaddedSpan(), "")
		if err != nil {
			return fmt.Errorf("%w: failed to list overlapping bookings: %v", ErrInternal, err)
		}
		if len(overlapping) > 0 {
			uc.logger.Warn("CreateBooking: padded range overlaps booking id=%s on resource=%s", overlapping[0].ID, req.ResourceID)
			return fmt.Errorf("%w: overlaps booking %s", ErrConflict, overlapping[0].ID)
		}

		if _, err := uc.bookingRepo.Create(txCtx, booking); err != nil {
			return err
		}

		event, err := domain.NewBookingEvent(uuid.NewString(), domain.EventBookingCreated, booking, "", now)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInternal, err)
		}
		return uc.outboxRepo.Insert(txCtx, event)
	})
	if err != nil {
		return uc.translateTxError(ctx, req, err)
	}

	uc.logger.Info("CreateBooking: created booking id=%s on resource=%s [%s, %s)",
		booking.ID, booking.ResourceID, booking.StartAt.Format(time.RFC3339), booking.EndAt.Format(time.RFC3339))
	return &Response{Booking: booking}, nil
}

// findByClientID существующее бронирование с тем же ключом идемпотентности
func (uc *UseCase) findByClientID(ctx context.Context, req *Request) (*Response, error) {
	existing, err := uc.bookingRepo.GetByClientID(ctx, req.TenantID, req.ClientGeneratedID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, nil
		}
		uc.logger.Error("CreateBooking: failed to look up client_id=%s: %v", req.ClientGeneratedID, err)
		return nil, fmt.Errorf("%w: failed to look up client id: %v", ErrInternal, err)
	}
	uc.logger.Info("CreateBooking: replay of client_id=%s, returning booking id=%s", req.ClientGeneratedID, existing.ID)
	return &Response{Booking: existing, Replayed: true}, nil
}

func (uc *UseCase) loadResource(ctx context.Context, req *Request) (*domain.Resource, error) {
	resource, err := uc.directory.GetResource(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, directory.ErrResourceNotFound) {
			uc.logger.Warn("CreateBooking: resource id=%s not found", req.ResourceID)
			return nil, ErrResourceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get resource id=%s: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: failed to get resource: %v", ErrInternal, err)
	}
	if err := validateResource(resource, req.TenantID, req.AttendeeCount); err != nil {
		uc.logger.Warn("CreateBooking: resource id=%s rejected: %v", req.ResourceID, err)
		return nil, err
	}
	return resource, nil
}

func (uc *UseCase) loadServices(ctx context.Context, req *Request) ([]*domain.Service, error) {
	services := make([]*domain.Service, 0, len(req.ServiceIDs))
	for _, id := range req.ServiceIDs {
		service, err := uc.directory.GetService(ctx, id)
		if err != nil {
			if errors.Is(err, directory.ErrServiceNotFound) {
				uc.logger.Warn("CreateBooking: service id=%s not found", id)
				return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
			}
			uc.logger.Error("CreateBooking: failed to get service id=%s: %v", id, err)
			return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
		}
		if err := validateService(service, req.TenantID); err != nil {
			uc.logger.Warn("CreateBooking: service id=%s rejected: %v", id, err)
			return nil, err
		}
		services = append(services, service)
	}
	return services, nil
}

// resolveStart абсолютное начало; локальное время переводится по политике для переходов
func (uc *UseCase) resolveStart(ctx context.Context, req *Request, resource *domain.Resource) (time.Time, *time.Location, error) {
	loc, err := uc.timezones.Location(ctx, resource)
	if err != nil {
		if errors.Is(err, timezone.ErrInternal) {
			return time.Time{}, nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		uc.logger.Warn("CreateBooking: no timezone for resource=%s: %v", resource.ID, err)
		return time.Time{}, nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if req.StartAt != nil {
		start := req.StartAt.UTC()
		if !start.Equal(start.Truncate(time.Minute)) {
			uc.logger.Warn("CreateBooking: start_at=%s is not minute-aligned", start.Format(time.RFC3339Nano))
			return time.Time{}, nil, fmt.Errorf("%w: start_at must be aligned to a whole minute", ErrInvalidInput)
		}
		return start, loc, nil
	}

	minute, err := req.LocalTime.Minutes()
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	start, err := uc.timezones.PointToAbsolute(loc, *req.LocalDate, minute)
	if err != nil {
		uc.logger.Warn("CreateBooking: local time %s %s rejected: %v", req.LocalDate.Format(domain.DateFormat), req.LocalTime, err)
		return time.Time{}, nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return start.UTC(), loc, nil
}

func (uc *UseCase) newBooking(req *Request, services []*domain.Service, start time.Time, loc *time.Location, now time.Time) *domain.Booking {
	items, duration, before, after := buildItems(services)

	status := req.Status
	if status == "" {
		status = uc.config.InitialStatus
	}

	booking := &domain.Booking{
		ID:                  uuid.NewString(),
		TenantID:            req.TenantID,
		CustomerID:          req.CustomerID,
		ResourceID:          req.ResourceID,
		ServiceID:           services[0].ID,
		StartAt:             start,
		EndAt:               start.Add(time.Duration(duration) * time.Minute),
		BookingTZ:           loc.String(),
		BufferBeforeMinutes: before,
		BufferAfterMinutes:  after,
		Status:              status,
		AttendeeCount:       req.AttendeeCount,
		ClientGeneratedID:   ptr.Ptr(req.ClientGeneratedID),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].BookingID = booking.ID
	}
	booking.Items = items
	return booking
}

// translateTxError переводит ошибки транзакции в ошибки use case.
// Дубликат ключа идемпотентности означает, что бронирование уже создано: возвращаем его.
func (uc *UseCase) translateTxError(ctx context.Context, req *Request, err error) (*Response, error) {
	switch {
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInternal):
		return nil, err
	case errors.Is(err, bookingRepo.ErrDuplicateClientID):
		existing, lookupErr := uc.findByClientID(ctx, req)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing == nil {
			return nil, fmt.Errorf("%w: duplicate client id without stored booking", ErrInternal)
		}
		return existing, nil
	case errors.Is(err, bookingRepo.ErrOverlap):
		uc.logger.Warn("CreateBooking: storage rejected overlapping booking on resource=%s", req.ResourceID)
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, bookingRepo.ErrSerialization), errors.Is(err, txmanager.ErrSerialization):
		uc.logger.Warn("CreateBooking: serialization failure on resource=%s", req.ResourceID)
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	default:
		uc.logger.Error("CreateBooking: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
}

func outcome(resp *Response, err error) string {
	switch {
	case err == nil && resp != nil && resp.Replayed:
		return metrics.OutcomeReplay
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrConflict):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrBusy):
		return metrics.OutcomeBusy
	case errors.Is(err, ErrInternal):
		return metrics.OutcomeError
	default:
		return metrics.OutcomeInvalid
	}
}
