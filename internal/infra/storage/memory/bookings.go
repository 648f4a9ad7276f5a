package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingrepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

// BookingRepository бронирования в памяти; ошибки совпадают с PostgreSQL репозиторием
type BookingRepository struct {
	store *Store
}

// Create сохраняет бронирование; пересечение проверяется при фиксации
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	stored := booking.Clone()
	err := r.store.write(ctx, func(s *Store) (func(), error) {
		if stored.ClientGeneratedID != nil {
			if _, exists := s.clientIDs[clientKey(stored.TenantID, *stored.ClientGeneratedID)]; exists {
				return nil, bookingrepo.ErrDuplicateClientID
			}
		}
		if stored.IsActive() && s.overlapsActiveLocked(stored) {
			return nil, bookingrepo.ErrOverlap
		}

		s.bookings[stored.ID] = stored
		if stored.ClientGeneratedID != nil {
			s.clientIDs[clientKey(stored.TenantID, *stored.ClientGeneratedID)] = stored.ID
		}
		return func() {
			delete(s.bookings, stored.ID)
			if stored.ClientGeneratedID != nil {
				delete(s.clientIDs, clientKey(stored.TenantID, *stored.ClientGeneratedID))
			}
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// GetByID получает бронирование по ID в рамках tenant
func (r *BookingRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	b, ok := r.store.bookings[id]
	if !ok || b.TenantID != tenantID {
		return nil, bookingrepo.ErrBookingNotFound
	}
	return b.Clone(), nil
}

// GetByClientID получает бронирование по ключу идемпотентности
func (r *BookingRepository) GetByClientID(ctx context.Context, tenantID, clientID string) (*domain.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.clientIDs[clientKey(tenantID, clientID)]
	if !ok {
		return nil, bookingrepo.ErrBookingNotFound
	}
	return r.store.bookings[id].Clone(), nil
}

// ListActiveOverlapping активные бронирования ресурса, чей интервал с буферами пересекается со span
func (r *BookingRepository) ListActiveOverlapping(
	ctx context.Context,
	tenantID, resourceID string,
	span interval.Span,
	excludeID string,
) ([]*domain.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*domain.Booking, 0)
	for _, b := range r.store.bookings {
		if b.TenantID != tenantID || b.ResourceID != resourceID || b.ID == excludeID || !b.IsActive() {
			continue
		}
		if interval.Overlaps(b.PaddedSpan(), span) {
			result = append(result, b.Clone())
		}
	}
	sortByStart(result)
	return result, nil
}

// List бронирования ресурса по фильтру
func (r *BookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*domain.Booking, 0)
	for _, b := range r.store.bookings {
		if b.TenantID != filter.TenantID || b.ResourceID != filter.ResourceID {
			continue
		}
		if filter.From != nil && !b.EndAt.After(*filter.From) {
			continue
		}
		if filter.To != nil && !b.StartAt.Before(*filter.To) {
			continue
		}
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, b.Status) {
			continue
		}
		result = append(result, b.Clone())
	}
	sortByStart(result)
	return result, nil
}

// UpdateStatus обновляет статус бронирования
func (r *BookingRepository) UpdateStatus(ctx context.Context, tenantID, id string, status domain.BookingStatus, at time.Time) error {
	if _, err := r.GetByID(ctx, tenantID, id); err != nil {
		return err
	}
	return r.store.write(ctx, func(s *Store) (func(), error) {
		return s.mutateBookingLocked(tenantID, id, func(b *domain.Booking) {
			b.Status = status
			b.UpdatedAt = at
		})
	})
}

// Cancel отменяет бронирование с указанием причины
func (r *BookingRepository) Cancel(ctx context.Context, tenantID, id string, reason *string, at time.Time) error {
	if _, err := r.GetByID(ctx, tenantID, id); err != nil {
		return err
	}
	return r.store.write(ctx, func(s *Store) (func(), error) {
		return s.mutateBookingLocked(tenantID, id, func(b *domain.Booking) {
			b.Status = domain.StatusCanceled
			b.CancellationReason = reason
			b.CanceledAt = ptr.Ptr(at)
			b.UpdatedAt = at
		})
	})
}

func (s *Store) mutateBookingLocked(tenantID, id string, mutate func(b *domain.Booking)) (func(), error) {
	current, ok := s.bookings[id]
	if !ok || current.TenantID != tenantID {
		return nil, bookingrepo.ErrBookingNotFound
	}

	updated := current.Clone()
	mutate(updated)
	if updated.IsActive() && !current.IsActive() && s.overlapsActiveLocked(updated) {
		return nil, bookingrepo.ErrOverlap
	}

	s.bookings[id] = updated
	return func() { s.bookings[id] = current }, nil
}

// overlapsActiveLocked индекс пересечений: активные бронирования того же ресурса
func (s *Store) overlapsActiveLocked(candidate *domain.Booking) bool {
	padded := candidate.PaddedSpan()
	for _, b := range s.bookings {
		if b.ID == candidate.ID || b.ResourceID != candidate.ResourceID || !b.IsActive() {
			continue
		}
		if interval.Overlaps(b.PaddedSpan(), padded) {
			return true
		}
	}
	return false
}

func sortByStart(bookings []*domain.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].StartAt.Equal(bookings[j].StartAt) {
			return bookings[i].ID < bookings[j].ID
		}
		return bookings[i].StartAt.Before(bookings[j].StartAt)
	})
}

func hasStatus(statuses []domain.BookingStatus, status domain.BookingStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
