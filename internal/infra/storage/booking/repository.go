package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

var bookingColumns = []string{
	"id",
	"tenant_id",
	"customer_id",
	"resource_id",
	"service_id",
	"start_at",
	"end_at",
	"booking_tz",
	"buffer_before_minutes",
	"buffer_after_minutes",
	"status",
	"attendee_count",
	"client_generated_id",
	"rescheduled_from",
	"cancellation_reason",
	"canceled_at",
	"created_at",
	"updated_at",
}

var itemColumns = []string{
	"id",
	"booking_id",
	"service_id",
	"duration_minutes",
	"buffer_before_minutes",
	"buffer_after_minutes",
}

// Repository репозиторий бронирований в PostgreSQL
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет бронирование вместе с позициями.
// padded_start/padded_end вычисляются здесь и защищены ограничением исключения,
// поэтому пересечение активных бронирований невозможно даже при гонке между инстансами.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)
	padded := booking.PaddedSpan()

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(append(bookingColumns, "padded_start", "padded_end")...).
		Values(
			booking.ID,
			booking.TenantID,
			booking.CustomerID,
			booking.ResourceID,
			booking.ServiceID,
			booking.StartAt,
			booking.EndAt,
			booking.BookingTZ,
			booking.BufferBeforeMinutes,
			booking.BufferAfterMinutes,
			booking.Status,
			booking.AttendeeCount,
			booking.ClientGeneratedID,
			booking.RescheduledFrom,
			booking.CancellationReason,
			booking.CanceledAt,
			booking.CreatedAt,
			booking.UpdatedAt,
			padded.Start,
			padded.End,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return nil, translateError("Create - execute insert", err)
	}

	if len(booking.Items) > 0 {
		insert := psqlbuilder.Insert("booking_items").Columns(itemColumns...)
		for _, item := range booking.Items {
			insert = insert.Values(
				item.ID,
				booking.ID,
				item.ServiceID,
				item.DurationMinutes,
				item.BufferBeforeMinutes,
				item.BufferAfterMinutes,
			)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return nil, fmt.Errorf("%w: Create - build items insert query: %v", ErrBuildQuery, err)
		}
		if _, err := executor.ExecContext(ctx, query, args...); err != nil {
			return nil, translateError("Create - execute items insert", err)
		}
	}

	return booking, nil
}

// GetByID получает бронирование по ID в рамках tenant
func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (*domain.Booking, error) {
	return r.getOne(ctx, "GetByID", squirrel.Eq{"tenant_id": tenantID, "id": id})
}

// GetByClientID получает бронирование по ключу идемпотентности
func (r *Repository) GetByClientID(ctx context.Context, tenantID, clientID string) (*domain.Booking, error) {
	return r.getOne(ctx, "GetByClientID", squirrel.Eq{"tenant_id": tenantID, "client_generated_id": clientID})
}

// ListActiveOverlapping получает активные бронирования ресурса, чей интервал с буферами
// пересекается с span. excludeID исключает переносимое бронирование.
// Внутри транзакции строки блокируются (FOR UPDATE).
func (r *Repository) ListActiveOverlapping(
	ctx context.Context,
	tenantID, resourceID string,
	span interval.Span,
	excludeID string,
) ([]*domain.Booking, error) {
	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{
			"tenant_id":   tenantID,
			"resource_id": resourceID,
			"status":      statusStrings(domain.ActiveStatuses),
		}).
		Where(squirrel.Lt{"padded_start": span.End}).
		Where(squirrel.Gt{"padded_end": span.Start}).
		OrderBy("start_at ASC")

	if excludeID != "" {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": excludeID})
	}

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	return r.list(ctx, "ListActiveOverlapping", selectBuilder)
}

// List получает бронирования ресурса по фильтру
func (r *Repository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"tenant_id": filter.TenantID, "resource_id": filter.ResourceID}).
		OrderBy("start_at ASC")

	if filter.From != nil {
		selectBuilder = selectBuilder.Where(squirrel.Gt{"end_at": *filter.From})
	}
	if filter.To != nil {
		selectBuilder = selectBuilder.Where(squirrel.Lt{"start_at": *filter.To})
	}
	if len(filter.Statuses) > 0 {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statusStrings(filter.Statuses)})
	}

	return r.list(ctx, "List", selectBuilder)
}

// UpdateStatus обновляет статус бронирования
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id string, status domain.BookingStatus, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", status).
		Set("updated_at", at).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	return r.execOne(ctx, executor, "UpdateStatus", query, args)
}

// Cancel отменяет бронирование с указанием причины
func (r *Repository) Cancel(ctx context.Context, tenantID, id string, reason *string, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCanceled).
		Set("cancellation_reason", reason).
		Set("canceled_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	return r.execOne(ctx, executor, "Cancel", query, args)
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Eq) (*domain.Booking, error) {
	bookings, err := r.list(ctx, op, psqlbuilder.Select(bookingColumns...).From("bookings").Where(where).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, ErrBookingNotFound
	}
	return bookings[0], nil
}

func (r *Repository) list(ctx context.Context, op string, selectBuilder squirrel.SelectBuilder) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateError(op+" - execute query", err)
	}
	bookings, err := scanBookings(rows)
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrScanRow, op, err)
	}

	if err := r.attachItems(ctx, executor, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// attachItems загружает позиции одним запросом для всех бронирований
func (r *Repository) attachItems(ctx context.Context, executor DBExecutor, bookings []*domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	ids := make([]string, len(bookings))
	byID := make(map[string]*domain.Booking, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
		byID[b.ID] = b
	}

	query, args, err := psqlbuilder.Select(itemColumns...).
		From("booking_items").
		Where(squirrel.Eq{"booking_id": ids}).
		OrderBy("booking_id", "id").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: attachItems - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return translateError("attachItems - execute query", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.BookingItem
		if err := rows.Scan(
			&item.ID,
			&item.BookingID,
			&item.ServiceID,
			&item.DurationMinutes,
			&item.BufferBeforeMinutes,
			&item.BufferAfterMinutes,
		); err != nil {
			return fmt.Errorf("%w: attachItems - scan item: %v", ErrScanRow, err)
		}
		if b, ok := byID[item.BookingID]; ok {
			b.Items = append(b.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: attachItems - rows error: %v", ErrScanRow, err)
	}
	return nil
}

func (r *Repository) execOne(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(op+" - execute update", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}
	if rowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID,
			&b.TenantID,
			&b.CustomerID,
			&b.ResourceID,
			&b.ServiceID,
			&b.StartAt,
			&b.EndAt,
			&b.BookingTZ,
			&b.BufferBeforeMinutes,
			&b.BufferAfterMinutes,
			&b.Status,
			&b.AttendeeCount,
			&b.ClientGeneratedID,
			&b.RescheduledFrom,
			&b.CancellationReason,
			&b.CanceledAt,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		b.StartAt = b.StartAt.UTC()
		b.EndAt = b.EndAt.UTC()
		bookings = append(bookings, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// translateError переводит коды ошибок PostgreSQL в ошибки репозитория
func translateError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqExclusionViolation:
			if pqErr.Constraint == constraintNoOverlap {
				return fmt.Errorf("%w: %s", ErrOverlap, op)
			}
		case pqUniqueViolation:
			if pqErr.Constraint == constraintClientID {
				return fmt.Errorf("%w: %s", ErrDuplicateClientID, op)
			}
		case pqSerialization:
			return fmt.Errorf("%w: %s: %v", ErrSerialization, op, err)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrExecQuery, op, err)
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
