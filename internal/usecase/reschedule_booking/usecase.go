package reschedule_booking

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

const operation = "reschedule"

// UseCase use case для переноса бронирования
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

// Execute переносит бронирование на новое время.
// Под той же блокировкой ресурса, что и создание, в одной транзакции: проверка нового интервала
// без учета самого переносимого бронирования, перевод исходного в rescheduled, вставка нового
// с rescheduled_from и событие outbox. При конфликте исходное бронирование не меняется.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("RescheduleBooking: tenant=%s, booking=%s, client_id=%s", req.TenantID, req.BookingID, req.ClientGeneratedID)

	resp, err := uc.execute(ctx, req)
	uc.metrics.BookingOperation(operation, outcome(resp, err))
	return resp, err
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("RescheduleBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Повтор запроса
	if replay, err := uc.findReplay(ctx, req); err != nil || replay != nil {
		return replay, err
	}

	// 3. Исходное бронирование и его ресурс
	original, err := uc.getBooking(ctx, req.TenantID, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !original.CanBeRescheduled() {
		uc.logger.Warn("RescheduleBooking: booking id=%s has status %s", original.ID, original.Status)
		return nil, fmt.Errorf("%w: status %s", ErrCannotReschedule, original.Status)
	}

	resource, err := uc.directory.GetResource(ctx, original.ResourceID)
	if err != nil {
		if errors.Is(err, directory.ErrResourceNotFound) {
			return nil, ErrResourceNotFound
		}
		uc.logger.Error("RescheduleBooking: failed to get resource id=%s: %v", original.ResourceID, err)
		return nil, fmt.Errorf("%w: failed to get resource: %v", ErrInternal, err)
	}
	if err := validateResource(resource, req.TenantID); err != nil {
		uc.logger.Warn("RescheduleBooking: resource id=%s rejected: %v", resource.ID, err)
		return nil, err
	}

	// 4. Новое начало
	start, err := uc.resolveStart(ctx, req, resource)
	if err != nil {
		return nil, err
	}
	now := uc.TimeProvider.Now().UTC()
	if err := validateStart(start, now, uc.config.MinNoticeMinutes); err != nil {
		uc.logger.Warn("RescheduleBooking: start validation failed: %v", err)
		return nil, err
	}

	// 5. Блокировка ресурса
	release, err := uc.locker.Acquire(ctx, keylock.ResourceKey(req.TenantID, original.ResourceID))
	if err != nil {
		uc.logger.Warn("RescheduleBooking: lock wait failed for resource=%s: %v", original.ResourceID, err)
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	}
	defer release()

	if replay, err := uc.findReplay(ctx, req); err != nil || replay != nil {
		return replay, err
	}

	// 6. Перенос в одной транзакции
	var created, previous *domain.Booking
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		current, err := uc.bookingRepo.GetByID(txCtx, req.TenantID, req.BookingID)
		if err != nil {
			return err
		}
		// статус мог измениться, пока мы ждали блокировку
		if !current.CanBeRescheduled() {
			return fmt.Errorf("%w: status %s", ErrCannotReschedule, current.Status)
		}

		replacement := uc.newBooking(current, req, start, now)
		overlapping, err := uc.bookingRepo.ListActiveOverlapping(txCtx, req.TenantID, current.ResourceID, replacement.PaddedSpan(), current.ID)
		if err != nil {
			return fmt.Errorf("%w: failed to list overlapping bookings: %v", ErrInternal, err)
		}
		if len(overlapping) > 0 {
			uc.logger.Warn("RescheduleBooking: new range overlaps booking id=%s", overlapping[0].ID)
			return fmt.Errorf("%w: overlaps booking %s", ErrConflict, overlapping[0].ID)
		}

		if err := uc.bookingRepo.UpdateStatus(txCtx, req.TenantID, current.ID, domain.StatusRescheduled, now); err != nil {
			return err
		}
		if _, err := uc.bookingRepo.Create(txCtx, replacement); err != nil {
			return err
		}

		event, err := domain.NewBookingEvent(uuid.NewString(), domain.EventBookingRescheduled, replacement, "", now)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInternal, err)
		}
		if err := uc.outboxRepo.Insert(txCtx, event); err != nil {
			return err
		}

		current.Status = domain.StatusRescheduled
		current.UpdatedAt = now
		created, previous = replacement, current
		return nil
	})
	if err != nil {
		return uc.translateTxError(ctx, req, err)
	}

	uc.logger.Info("RescheduleBooking: booking id=%s moved to id=%s [%s, %s)",
		previous.ID, created.ID, created.StartAt.Format(time.RFC3339), created.EndAt.Format(time.RFC3339))
	return &Response{Booking: created, Previous: previous}, nil
}

// findReplay результат ранее выполненного переноса с тем же ключом
func (uc *UseCase) findReplay(ctx context.Context, req *Request) (*Response, error) {
	if req.ClientGeneratedID == "" {
		return nil, nil
	}
	existing, err := uc.bookingRepo.GetByClientID(ctx, req.TenantID, req.ClientGeneratedID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, nil
		}
		uc.logger.Error("RescheduleBooking: failed to look up client_id=%s: %v", req.ClientGeneratedID, err)
		return nil, fmt.Errorf("%w: failed to look up client id: %v", ErrInternal, err)
	}
	if ptr.Value(existing.RescheduledFrom) != req.BookingID {
		uc.logger.Warn("RescheduleBooking: client_id=%s already used by booking id=%s", req.ClientGeneratedID, existing.ID)
		return nil, ErrClientIDReused
	}

	previous, err := uc.getBooking(ctx, req.TenantID, req.BookingID)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("RescheduleBooking: replay of client_id=%s, returning booking id=%s", req.ClientGeneratedID, existing.ID)
	return &Response{Booking: existing, Previous: previous, Replayed: true}, nil
}

func (uc *UseCase) getBooking(ctx context.Context, tenantID, id string) (*domain.Booking, error) {
	booking, err := uc.bookingRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Warn("RescheduleBooking: booking id=%s not found", id)
			return nil, ErrBookingNotFound
		}
		uc.logger.Error("RescheduleBooking: failed to get booking id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}
	return booking, nil
}

func (uc *UseCase) resolveStart(ctx context.Context, req *Request, resource *domain.Resource) (time.Time, error) {
	if req.NewStartAt != nil {
		start := req.NewStartAt.UTC()
		if !start.Equal(start.Truncate(time.Minute)) {
			uc.logger.Warn("RescheduleBooking: new_start_at=%s is not minute-aligned", start.Format(time.RFC3339Nano))
			return time.Time{}, fmt.Errorf("%w: new_start_at must be aligned to a whole minute", ErrInvalidInput)
		}
		return start, nil
	}

	loc, err := uc.timezones.Location(ctx, resource)
	if err != nil {
		if errors.Is(err, timezone.ErrInternal) {
			return time.Time{}, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	minute, err := req.LocalTime.Minutes()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	start, err := uc.timezones.PointToAbsolute(loc, *req.LocalDate, minute)
	if err != nil {
		uc.logger.Warn("RescheduleBooking: local time %s %s rejected: %v", req.LocalDate.Format(domain.DateFormat), req.LocalTime, err)
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return start.UTC(), nil
}

// newBooking копия исходного бронирования на новом времени.
// Длительность, позиции и буферы сохраняются с исходного бронирования.
func (uc *UseCase) newBooking(original *domain.Booking, req *Request, start, now time.Time) *domain.Booking {
	b := original.Clone()
	b.ID = uuid.NewString()
	b.StartAt = start
	b.EndAt = start.Add(original.EndAt.Sub(original.StartAt))
	b.RescheduledFrom = ptr.Ptr(original.ID)
	b.ClientGeneratedID = nil
	if req.ClientGeneratedID != "" {
		b.ClientGeneratedID = ptr.Ptr(req.ClientGeneratedID)
	}
	b.CancellationReason = nil
	b.CanceledAt = nil
	b.CreatedAt = now
	b.UpdatedAt = now
	for i := range b.Items {
		b.Items[i].ID = uuid.NewString()
		b.Items[i].BookingID = b.ID
	}
	return b
}

func (uc *UseCase) translateTxError(ctx context.Context, req *Request, err error) (*Response, error) {
	switch {
	case errors.Is(err, ErrConflict), errors.Is(err, ErrCannotReschedule), errors.Is(err, ErrInternal):
		return nil, err
	case errors.Is(err, bookingRepo.ErrBookingNotFound):
		return nil, ErrBookingNotFound
	case errors.Is(err, bookingRepo.ErrDuplicateClientID):
		replay, lookupErr := uc.findReplay(ctx, req)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if replay == nil {
			return nil, fmt.Errorf("%w: duplicate client id without stored booking", ErrInternal)
		}
		return replay, nil
	case errors.Is(err, bookingRepo.ErrOverlap):
		uc.logger.Warn("RescheduleBooking: storage rejected overlapping booking for id=%s", req.BookingID)
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, bookingRepo.ErrSerialization), errors.Is(err, txmanager.ErrSerialization):
		uc.logger.Warn("RescheduleBooking: serialization failure for id=%s", req.BookingID)
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	default:
		uc.logger.Error("RescheduleBooking: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
}

func outcome(resp *Response, err error) string {
	switch {
	case err == nil && resp != nil && resp.Replayed:
		return metrics.OutcomeReplay
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrConflict), errors.Is(err, ErrCannotReschedule):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrBusy):
		return metrics.OutcomeBusy
	case errors.Is(err, ErrInternal):
		return metrics.OutcomeError
	default:
		return metrics.OutcomeInvalid
	}
}
