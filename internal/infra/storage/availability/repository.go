package availability

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
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

var ruleColumns = []string{
	"id",
	"tenant_id",
	"resource_id",
	"day_of_week",
	"start_minute",
	"end_minute",
	"recurrence",
	"created_at",
}

var exceptionColumns = []string{
	"id",
	"tenant_id",
	"resource_id",
	"exception_date",
	"start_minute",
	"end_minute",
	"description",
	"created_at",
}

var timeBlockColumns = []string{
	"id",
	"tenant_id",
	"resource_id",
	"rule_id",
	"day_of_week",
	"start_time",
	"end_time",
	"break_start",
	"break_end",
	"recurring",
	"color",
	"staff_name",
	"staff_role",
	"created_at",
}

// Repository репозиторий правил, исключений и блоков расписания в PostgreSQL
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписания
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// CreateRule создает правило доступности.
// Пересечение с правилом того же дня недели отклоняется ограничением исключения.
func (r *Repository) CreateRule(ctx context.Context, rule *domain.AvailabilityRule) (*domain.AvailabilityRule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("availability_rules").
		Columns(ruleColumns...).
		Values(
			rule.ID,
			rule.TenantID,
			rule.ResourceID,
			rule.DayOfWeek,
			rule.StartMinute,
			rule.EndMinute,
			rule.Recurrence,
			rule.CreatedAt,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateRule - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return nil, translateError("CreateRule - execute insert", err)
	}
	return rule, nil
}

// DeleteRule удаляет правило; связанный блок расписания удаляется каскадно
func (r *Repository) DeleteRule(ctx context.Context, tenantID, resourceID, ruleID string) error {
	query, args, err := psqlbuilder.Delete("availability_rules").
		Where(squirrel.Eq{"tenant_id": tenantID, "resource_id": resourceID, "id": ruleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: DeleteRule - build delete query: %v", ErrBuildQuery, err)
	}
	return r.execDelete(ctx, "DeleteRule", query, args, ErrRuleNotFound)
}

// ListRules получает все правила ресурса.
// Внутри транзакции строки блокируются, чтобы проверка пересечений не гонялась с вставкой.
func (r *Repository) ListRules(ctx context.Context, tenantID, resourceID string) ([]*domain.AvailabilityRule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(ruleColumns...).
		From("availability_rules").
		Where(squirrel.Eq{"tenant_id": tenantID, "resource_id": resourceID}).
		OrderBy("day_of_week ASC", "start_minute ASC")
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListRules - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListRules - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	rules := make([]*domain.AvailabilityRule, 0)
	for rows.Next() {
		var rule domain.AvailabilityRule
		if err := rows.Scan(
			&rule.ID,
			&rule.TenantID,
			&rule.ResourceID,
			&rule.DayOfWeek,
			&rule.StartMinute,
			&rule.EndMinute,
			&rule.Recurrence,
			&rule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: ListRules - scan rule: %v", ErrScanRow, err)
		}
		rules = append(rules, &rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListRules - rows error: %v", ErrScanRow, err)
	}
	return rules, nil
}

// CreateException создает исключение на дату
func (r *Repository) CreateException(ctx context.Context, exception *domain.AvailabilityException) (*domain.AvailabilityException, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("availability_exceptions").
		Columns(exceptionColumns...).
		Values(
			exception.ID,
			exception.TenantID,
			exception.ResourceID,
			exception.Date,
			exception.StartMinute,
			exception.EndMinute,
			exception.Description,
			exception.CreatedAt,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateException - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return nil, translateError("CreateException - execute insert", err)
	}
	return exception, nil
}

// DeleteException удаляет исключение
func (r *Repository) DeleteException(ctx context.Context, tenantID, resourceID, exceptionID string) error {
	query, args, err := psqlbuilder.Delete("availability_exceptions").
		Where(squirrel.Eq{"tenant_id": tenantID, "resource_id": resourceID, "id": exceptionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: DeleteException - build delete query: %v", ErrBuildQuery, err)
	}
	return r.execDelete(ctx, "DeleteException", query, args, ErrExceptionNotFound)
}

// ListExceptions получает исключения ресурса на даты [from, to] включительно
func (r *Repository) ListExceptions(ctx context.Context, tenantID, resourceID string, from, to time.Time) ([]*domain.AvailabilityException, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(exceptionColumns...).
		From("availability_exceptions").
		Where(squirrel.Eq{"tenant_id": tenantID, "resource_id": resourceID}).
		Where(squirrel.GtOrEq{"exception_date": from}).
		Where(squirrel.LtOrEq{"exception_date": to}).
		OrderBy("exception_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListExceptions - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListExceptions - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	exceptions := make([]*domain.AvailabilityException, 0)
	for rows.Next() {
		var e domain.AvailabilityException
		var description sql.NullString
		if err := rows.Scan(
			&e.ID,
			&e.TenantID,
			&e.ResourceID,
			&e.Date,
			&e.StartMinute,
			&e.EndMinute,
			&description,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: ListExceptions - scan exception: %v", ErrScanRow, err)
		}
		y, m, d := e.Date.Date()
		e.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		e.Description = description.String
		exceptions = append(exceptions, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListExceptions - rows error: %v", ErrScanRow, err)
	}
	return exceptions, nil
}

// CreateTimeBlock сохраняет блок расписания; правило блока создается вызывающим в той же транзакции
func (r *Repository) CreateTimeBlock(ctx context.Context, block *domain.TimeBlock) (*domain.TimeBlock, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("time_blocks").
		Columns(timeBlockColumns...).
		Values(
			block.ID,
			block.TenantID,
			block.ResourceID,
			block.RuleID,
			block.DayOfWeek,
			block.StartTime,
			block.EndTime,
			block.BreakStart,
			block.BreakEnd,
			block.Recurring,
			block.Color,
			block.StaffName,
			block.StaffRole,
			block.CreatedAt,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateTimeBlock - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return nil, translateError("CreateTimeBlock - execute insert", err)
	}
	return block, nil
}

// ListTimeBlocks получает блоки расписания ресурса
func (r *Repository) ListTimeBlocks(ctx context.Context, tenantID, resourceID string) ([]*domain.TimeBlock, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(timeBlockColumns...).
		From("time_blocks").
		Where(squirrel.Eq{"tenant_id": tenantID, "resource_id": resourceID}).
		OrderBy("day_of_week ASC", "start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListTimeBlocks - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListTimeBlocks - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	blocks := make([]*domain.TimeBlock, 0)
	for rows.Next() {
		var b domain.TimeBlock
		if err := rows.Scan(
			&b.ID,
			&b.TenantID,
			&b.ResourceID,
			&b.RuleID,
			&b.DayOfWeek,
			&b.StartTime,
			&b.EndTime,
			&b.BreakStart,
			&b.BreakEnd,
			&b.Recurring,
			&b.Color,
			&b.StaffName,
			&b.StaffRole,
			&b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: ListTimeBlocks - scan block: %v", ErrScanRow, err)
		}
		blocks = append(blocks, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListTimeBlocks - rows error: %v", ErrScanRow, err)
	}
	return blocks, nil
}

func (r *Repository) execDelete(ctx context.Context, op, query string, args []interface{}, notFound error) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute delete: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

// translateError переводит нарушения ограничений PostgreSQL в ошибки репозитория
func translateError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == pqExclusionViolation && pqErr.Constraint == constraintRuleNoOverlap:
			return fmt.Errorf("%w: %s", ErrRuleOverlap, op)
		case pqErr.Code == pqUniqueViolation && pqErr.Constraint == constraintExceptionDate:
			return fmt.Errorf("%w: %s", ErrExceptionExists, op)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrExecQuery, op, err)
}
