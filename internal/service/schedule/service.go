package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	availabilityRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/directory"
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
	"github.com/m04kA/SMC-SchedulingService/pkg/keylock"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Service запись правил доступности, исключений и блоков расписания.
// Записи одного ресурса сериализуются, чтобы проверка пересечения правил и вставка были атомарны.
type Service struct {
	repo         Repository
	directory    Directory
	invalidator  CacheInvalidator
	locker       Locker
	txManager    TxManager
	logger       Logger
	TimeProvider TimeProvider
}

// NewService создает новый экземпляр сервиса расписания
func NewService(
	repo Repository,
	dir Directory,
	invalidator CacheInvalidator,
	locker Locker,
	txManager TxManager,
	logger Logger,
) *Service {
	return &Service{
		repo:         repo,
		directory:    dir,
		invalidator:  invalidator,
		locker:       locker,
		txManager:    txManager,
		logger:       logger,
		TimeProvider: RealTimeProvider{},
	}
}

// CreateRule создает еженедельное правило.
// Пересечение с правилом того же дня недели отклоняется с ErrRuleOverlap.
func (s *Service) CreateRule(ctx context.Context, req *models.CreateRuleRequest) (*models.RuleResponse, error) {
	s.logger.Info("CreateRule: resource=%s, day=%d, [%d, %d)", req.ResourceID, req.DayOfWeek, req.StartMinute, req.EndMinute)

	rule := &domain.AvailabilityRule{
		ID:          uuid.NewString(),
		TenantID:    req.TenantID,
		ResourceID:  req.ResourceID,
		DayOfWeek:   req.DayOfWeek,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
		CreatedAt:   s.TimeProvider.Now().UTC(),
	}
	if err := rule.Validate(); err != nil {
		s.logger.Warn("CreateRule: validation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	err := s.write(ctx, "CreateRule", req.TenantID, req.ResourceID, func(ctx context.Context) error {
		return s.insertRule(ctx, rule)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("CreateRule: created rule id=%s for resource=%s", rule.ID, rule.ResourceID)
	return models.FromDomainRule(rule), nil
}

// DeleteRule удаляет правило и связанный с ним блок расписания
func (s *Service) DeleteRule(ctx context.Context, tenantID, resourceID, ruleID string) error {
	s.logger.Info("DeleteRule: resource=%s, rule=%s", resourceID, ruleID)

	err := s.write(ctx, "DeleteRule", tenantID, resourceID, func(ctx context.Context) error {
		return s.repo.DeleteRule(ctx, tenantID, resourceID, ruleID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("DeleteRule: deleted rule id=%s", ruleID)
	return nil
}

// ListRules правила ресурса
func (s *Service) ListRules(ctx context.Context, tenantID, resourceID string) ([]*models.RuleResponse, error) {
	if err := s.checkResource(ctx, "ListRules", tenantID, resourceID); err != nil {
		return nil, err
	}
	rules, err := s.repo.ListRules(ctx, tenantID, resourceID)
	if err != nil {
		s.logger.Error("ListRules: repository error for resource=%s: %v", resourceID, err)
		return nil, fmt.Errorf("%w: ListRules - repository error: %v", ErrInternal, err)
	}
	return models.FromDomainRuleList(rules), nil
}

// CreateException создает исключение на дату; одно исключение на дату ресурса
func (s *Service) CreateException(ctx context.Context, req *models.CreateExceptionRequest) (*models.ExceptionResponse, error) {
	s.logger.Info("CreateException: resource=%s, date=%s", req.ResourceID, req.Date)

	date, err := types.ParseDate(req.Date)
	if err != nil {
		s.logger.Warn("CreateException: invalid date=%s", req.Date)
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	if len(req.Description) > domain.MaxDescriptionLength {
		return nil, fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, domain.MaxDescriptionLength)
	}

	exception := &domain.AvailabilityException{
		ID:          uuid.NewString(),
		TenantID:    req.TenantID,
		ResourceID:  req.ResourceID,
		Date:        date,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
		Description: req.Description,
		CreatedAt:   s.TimeProvider.Now().UTC(),
	}
	if err := exception.Validate(); err != nil {
		s.logger.Warn("CreateException: validation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	err = s.write(ctx, "CreateException", req.TenantID, req.ResourceID, func(ctx context.Context) error {
		_, err := s.repo.CreateException(ctx, exception)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("CreateException: created exception id=%s, closed=%t", exception.ID, exception.IsClosure())
	return models.FromDomainException(exception), nil
}

// DeleteException удаляет исключение
func (s *Service) DeleteException(ctx context.Context, tenantID, resourceID, exceptionID string) error {
	s.logger.Info("DeleteException: resource=%s, exception=%s", resourceID, exceptionID)

	return s.write(ctx, "DeleteException", tenantID, resourceID, func(ctx context.Context) error {
		return s.repo.DeleteException(ctx, tenantID, resourceID, exceptionID)
	})
}

// CreateTimeBlock создает блок расписания вместе с правилом его окна в одной транзакции.
// Перерыв блока вырезается из окон дня недели при разрешении доступности.
func (s *Service) CreateTimeBlock(ctx context.Context, req *models.CreateTimeBlockRequest) (*models.TimeBlockResponse, error) {
	s.logger.Info("CreateTimeBlock: resource=%s, day=%d, %s-%s", req.ResourceID, req.DayOfWeek, req.StartTime, req.EndTime)

	block, err := s.buildTimeBlock(req)
	if err != nil {
		s.logger.Warn("CreateTimeBlock: validation failed: %v", err)
		return nil, err
	}

	window, err := block.Range()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	rule := &domain.AvailabilityRule{
		ID:          uuid.NewString(),
		TenantID:    block.TenantID,
		ResourceID:  block.ResourceID,
		DayOfWeek:   block.DayOfWeek,
		StartMinute: window.Start,
		EndMinute:   window.End,
		CreatedAt:   block.CreatedAt,
	}
	block.RuleID = rule.ID

	err = s.write(ctx, "CreateTimeBlock", req.TenantID, req.ResourceID, func(ctx context.Context) error {
		if err := s.insertRule(ctx, rule); err != nil {
			return err
		}
		_, err := s.repo.CreateTimeBlock(ctx, block)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("CreateTimeBlock: created block id=%s with rule id=%s", block.ID, rule.ID)
	return models.FromDomainTimeBlock(block), nil
}

// ListTimeBlocks блоки расписания ресурса
func (s *Service) ListTimeBlocks(ctx context.Context, tenantID, resourceID string) ([]*models.TimeBlockResponse, error) {
	if err := s.checkResource(ctx, "ListTimeBlocks", tenantID, resourceID); err != nil {
		return nil, err
	}
	blocks, err := s.repo.ListTimeBlocks(ctx, tenantID, resourceID)
	if err != nil {
		s.logger.Error("ListTimeBlocks: repository error for resource=%s: %v", resourceID, err)
		return nil, fmt.Errorf("%w: ListTimeBlocks - repository error: %v", ErrInternal, err)
	}
	return models.FromDomainTimeBlockList(blocks), nil
}

// Вспомогательные методы

// write проверяет ресурс, берет блокировку расписания ресурса, выполняет fn в транзакции
// и после фиксации сбрасывает кеш окон
func (s *Service) write(ctx context.Context, op, tenantID, resourceID string, fn func(ctx context.Context) error) error {
	if err := s.checkResource(ctx, op, tenantID, resourceID); err != nil {
		return err
	}

	release, err := s.locker.Acquire(ctx, keylock.ResourceKey(tenantID, resourceID)+"/schedule")
	if err != nil {
		s.logger.Warn("%s: lock wait failed for resource=%s: %v", op, resourceID, err)
		return fmt.Errorf("%w: %v", ErrBusy, err)
	}
	defer release()

	if err := s.txManager.Do(ctx, fn); err != nil {
		return s.translate(op, resourceID, err)
	}

	s.invalidator.Invalidate(ctx, tenantID, resourceID)
	return nil
}

// insertRule проверяет пересечение с правилами того же дня и сохраняет правило.
// Хранилище проверяет пересечение повторно при вставке.
func (s *Service) insertRule(ctx context.Context, rule *domain.AvailabilityRule) error {
	existing, err := s.repo.ListRules(ctx, rule.TenantID, rule.ResourceID)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.DayOfWeek == rule.DayOfWeek && interval.OverlapsMinutes(other.Range(), rule.Range()) {
			return fmt.Errorf("%w: overlaps rule %s", ErrRuleOverlap, other.ID)
		}
	}
	_, err = s.repo.CreateRule(ctx, rule)
	return err
}

func (s *Service) buildTimeBlock(req *models.CreateTimeBlockRequest) (*domain.TimeBlock, error) {
	start, err := types.NewTimeStringFromString(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: start_time: %v", ErrInvalidInput, err)
	}
	end, err := types.NewTimeStringFromString(req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: end_time: %v", ErrInvalidInput, err)
	}

	block := &domain.TimeBlock{
		ID:         uuid.NewString(),
		TenantID:   req.TenantID,
		ResourceID: req.ResourceID,
		DayOfWeek:  req.DayOfWeek,
		StartTime:  start,
		EndTime:    end,
		Recurring:  req.Recurring,
		Color:      req.Color,
		StaffName:  req.StaffName,
		StaffRole:  req.StaffRole,
		CreatedAt:  s.TimeProvider.Now().UTC(),
	}

	if req.BreakStart != nil {
		ts, err := types.NewTimeStringFromString(*req.BreakStart)
		if err != nil {
			return nil, fmt.Errorf("%w: break_start: %v", ErrInvalidInput, err)
		}
		block.BreakStart = &ts
	}
	if req.BreakEnd != nil {
		ts, err := types.NewTimeStringFromString(*req.BreakEnd)
		if err != nil {
			return nil, fmt.Errorf("%w: break_end: %v", ErrInvalidInput, err)
		}
		block.BreakEnd = &ts
	}

	if err := block.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return block, nil
}

// checkResource ресурс существует, не удален и принадлежит tenant
func (s *Service) checkResource(ctx context.Context, op, tenantID, resourceID string) error {
	resource, err := s.directory.GetResource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, directory.ErrResourceNotFound) {
			s.logger.Warn("%s: resource id=%s not found", op, resourceID)
			return ErrResourceNotFound
		}
		s.logger.Error("%s: failed to get resource id=%s: %v", op, resourceID, err)
		return fmt.Errorf("%w: failed to get resource: %v", ErrInternal, err)
	}
	if resource.IsDeleted() || resource.TenantID != tenantID {
		s.logger.Warn("%s: resource id=%s not found for tenant=%s", op, resourceID, tenantID)
		return ErrResourceNotFound
	}
	return nil
}

// translate переводит ошибки хранилища в ошибки сервиса
func (s *Service) translate(op, resourceID string, err error) error {
	switch {
	case errors.Is(err, ErrRuleOverlap), errors.Is(err, availabilityRepo.ErrRuleOverlap):
		s.logger.Warn("%s: rule overlap for resource=%s: %v", op, resourceID, err)
		return fmt.Errorf("%w: %v", ErrRuleOverlap, err)
	case errors.Is(err, availabilityRepo.ErrRuleNotFound):
		s.logger.Warn("%s: rule not found for resource=%s", op, resourceID)
		return ErrRuleNotFound
	case errors.Is(err, availabilityRepo.ErrExceptionExists):
		s.logger.Warn("%s: exception already exists for resource=%s", op, resourceID)
		return ErrExceptionExists
	case errors.Is(err, availabilityRepo.ErrExceptionNotFound):
		s.logger.Warn("%s: exception not found for resource=%s", op, resourceID)
		return ErrExceptionNotFound
	default:
		s.logger.Error("%s: repository error for resource=%s: %v", op, resourceID, err)
		return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
}
