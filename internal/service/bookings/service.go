package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/keylock"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

// Service сервис для работы с бронированиями: чтение, отмена и смена статуса
type Service struct {
	bookingRepo  BookingRepository
	outboxRepo   OutboxRepository
	locker       Locker
	txManager    TransactionManager
	metrics      Metrics
	logger       Logger
	TimeProvider TimeProvider
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	outboxRepo OutboxRepository,
	locker Locker,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		outboxRepo:   outboxRepo,
		locker:       locker,
		txManager:    txManager,
		metrics:      metrics,
		logger:       logger,
		TimeProvider: RealTimeProvider{},
	}
}

// GetByID получает бронирование по ID в рамках tenant
func (s *Service) GetByID(ctx context.Context, tenantID, id string) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%s for tenant=%s", id, tenantID)

	booking, err := s.getBooking(ctx, "GetByID", tenantID, id)
	if err != nil {
		return nil, err
	}

	return models.FromDomainBooking(booking), nil
}

// ListByResource получает бронирования ресурса с фильтрацией по периоду и статусам
//
// Примеры использования:
// - Все бронирования ресурса: ListByResource(ctx, &ListBookingsRequest{TenantID: "t", ResourceID: "r"})
// - Бронирования за период: указать From и To
// - Только активные: Statuses = ["pending", "confirmed", "checked_in"]
func (s *Service) ListByResource(ctx context.Context, req *models.ListBookingsRequest) (*models.BookingListResponse, error) {
	logMsg := fmt.Sprintf("ListByResource: fetching bookings for tenant=%s, resource=%s", req.TenantID, req.ResourceID)
	if req.From != nil && req.To != nil {
		logMsg += fmt.Sprintf(", period=%s to %s", req.From.Format(domain.DateFormat), req.To.Format(domain.DateFormat))
	}
	if len(req.Statuses) > 0 {
		logMsg += ", statuses=" + strings.Join(req.Statuses, ",")
	}
	s.logger.Info(logMsg)

	if req.TenantID == "" || req.ResourceID == "" {
		return nil, fmt.Errorf("%w: tenantID and resourceID are required", ErrInvalidInput)
	}
	if req.From != nil && req.To != nil && !req.From.Before(*req.To) {
		return nil, fmt.Errorf("%w: from must be before to", ErrInvalidInput)
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("ListByResource: invalid filter for resource=%s: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: invalid status filter", ErrInvalidInput)
	}

	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ListByResource: repository error for resource=%s: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: ListByResource - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListByResource: successfully fetched %d bookings for resource=%s", len(bookings), req.ResourceID)
	return models.FromDomainBookingList(bookings), nil
}

// Cancel отменяет бронирование.
// Повторная отмена уже отмененного бронирования успешна и ничего не меняет.
// Выполняется под блокировкой ресурса, чтобы конкурентное создание видело либо старое, либо новое состояние.
func (s *Service) Cancel(ctx context.Context, tenantID, bookingID string, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%s for tenant=%s", bookingID, tenantID)

	resp, err := s.cancel(ctx, tenantID, bookingID, req)
	s.metrics.BookingOperation("cancel", operationOutcome(err))
	return resp, err
}

func (s *Service) cancel(ctx context.Context, tenantID, bookingID string, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	// Получаем бронирование
	booking, err := s.getBooking(ctx, "Cancel", tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.StatusCanceled {
		s.logger.Info("Cancel: booking id=%s is already canceled", bookingID)
		return models.FromDomainBooking(booking), nil
	}
	if !booking.CanBeCanceled() {
		s.logger.Warn("Cancel: booking id=%s cannot be canceled, status=%s", bookingID, booking.Status)
		return nil, fmt.Errorf("%w: status %s", ErrCannotCancel, booking.Status)
	}

	var reason *string
	if req != nil && req.Reason != "" {
		reason = &req.Reason
	}

	updated, err := s.transition(ctx, "Cancel", booking, domain.StatusCanceled, func(txCtx context.Context, current *domain.Booking) error {
		now := s.TimeProvider.Now().UTC()
		if err := s.bookingRepo.Cancel(txCtx, tenantID, current.ID, reason, now); err != nil {
			return err
		}
		current.CancellationReason = reason
		current.CanceledAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Cancel: successfully canceled booking id=%s", bookingID)
	return models.FromDomainBooking(updated), nil
}

// UpdateStatus переводит бронирование в новый статус по правилам жизненного цикла.
// Отмена и перенос выполняются отдельными операциями.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, bookingID string, req *models.UpdateStatusRequest) (*models.BookingResponse, error) {
	s.logger.Info("UpdateStatus: updating booking id=%s to status=%s", bookingID, req.Status)

	resp, err := s.updateStatus(ctx, tenantID, bookingID, req)
	s.metrics.BookingOperation("update_status", operationOutcome(err))
	return resp, err
}

func (s *Service) updateStatus(ctx context.Context, tenantID, bookingID string, req *models.UpdateStatusRequest) (*models.BookingResponse, error) {
	// Валидируем и конвертируем статус
	newStatus, err := models.ToDomainBookingStatus(req.Status)
	if err != nil {
		s.logger.Warn("UpdateStatus: invalid status=%s for booking id=%s", req.Status, bookingID)
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}
	if newStatus == domain.StatusCanceled || newStatus == domain.StatusRescheduled {
		return nil, fmt.Errorf("%w: %s has its own operation", ErrInvalidStatus, newStatus)
	}

	booking, err := s.getBooking(ctx, "UpdateStatus", tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == newStatus {
		return models.FromDomainBooking(booking), nil
	}
	if !booking.Status.CanTransitionTo(newStatus) {
		s.logger.Warn("UpdateStatus: transition %s -> %s rejected for booking id=%s", booking.Status, newStatus, bookingID)
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, newStatus)
	}

	updated, err := s.transition(ctx, "UpdateStatus", booking, newStatus, func(txCtx context.Context, current *domain.Booking) error {
		return s.bookingRepo.UpdateStatus(txCtx, tenantID, current.ID, newStatus, s.TimeProvider.Now().UTC())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("UpdateStatus: successfully updated booking id=%s to status=%s", bookingID, newStatus)
	return models.FromDomainBooking(updated), nil
}

// Вспомогательные методы

// transition выполняет смену статуса под блокировкой ресурса в одной транзакции с событием outbox.
// apply пишет изменение в хранилище и может дополнить current.
func (s *Service) transition(
	ctx context.Context,
	op string,
	booking *domain.Booking,
	next domain.BookingStatus,
	apply func(txCtx context.Context, current *domain.Booking) error,
) (*domain.Booking, error) {
	release, err := s.locker.Acquire(ctx, keylock.ResourceKey(booking.TenantID, booking.ResourceID))
	if err != nil {
		s.logger.Warn("%s: lock wait failed for resource=%s: %v", op, booking.ResourceID, err)
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	}
	defer release()

	var updated *domain.Booking
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		current, err := s.bookingRepo.GetByID(txCtx, booking.TenantID, booking.ID)
		if err != nil {
			return err
		}
		// статус мог измениться, пока мы ждали блокировку
		if current.Status == next {
			updated = current
			return nil
		}
		if !current.Status.CanTransitionTo(next) {
			if next == domain.StatusCanceled {
				return fmt.Errorf("%w: status %s", ErrCannotCancel, current.Status)
			}
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
		}

		previous := current.Status
		if err := apply(txCtx, current); err != nil {
			return err
		}
		current.Status = next
		current.UpdatedAt = s.TimeProvider.Now().UTC()

		eventType := domain.EventBookingStatus
		if next == domain.StatusCanceled {
			eventType = domain.EventBookingCanceled
		}
		event, err := domain.NewBookingEvent(uuid.NewString(), eventType, current, previous, current.UpdatedAt)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInternal, err)
		}
		if err := s.outboxRepo.Insert(txCtx, event); err != nil {
			return err
		}

		updated = current
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrCannotCancel), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInternal):
			return nil, err
		case errors.Is(err, bookingRepo.ErrBookingNotFound):
			return nil, ErrBookingNotFound
		case errors.Is(err, bookingRepo.ErrSerialization), errors.Is(err, txmanager.ErrSerialization):
			return nil, fmt.Errorf("%w: %v", ErrBusy, err)
		default:
			s.logger.Error("%s: transaction failed for booking id=%s: %v", op, booking.ID, err)
			return nil, fmt.Errorf("%w: %s - transaction error: %v", ErrInternal, op, err)
		}
	}
	return updated, nil
}

func (s *Service) getBooking(ctx context.Context, op, tenantID, id string) (*domain.Booking, error) {
	if tenantID == "" || id == "" {
		return nil, fmt.Errorf("%w: tenantID and bookingID are required", ErrInvalidInput)
	}

	booking, err := s.bookingRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%s not found", op, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%s: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return booking, nil
}

func operationOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrCannotCancel), errors.Is(err, ErrInvalidTransition):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrBusy):
		return metrics.OutcomeBusy
	case errors.Is(err, ErrInternal):
		return metrics.OutcomeError
	default:
		return metrics.OutcomeInvalid
	}
}
