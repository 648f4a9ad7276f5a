package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	availabilityrepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/availability"
	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
)

// AvailabilityRepository правила, исключения и блоки расписания в памяти
type AvailabilityRepository struct {
	store *Store
}

// CreateRule сохраняет правило; пересечение с правилом того же дня недели отклоняется
func (r *AvailabilityRepository) CreateRule(ctx context.Context, rule *domain.AvailabilityRule) (*domain.AvailabilityRule, error) {
	stored := cloneRule(rule)
	err := r.store.write(ctx, func(s *Store) (func(), error) {
		for _, existing := range s.rules {
			if existing.ResourceID == stored.ResourceID && existing.DayOfWeek == stored.DayOfWeek &&
				interval.OverlapsMinutes(existing.Range(), stored.Range()) {
				return nil, availabilityrepo.ErrRuleOverlap
			}
		}
		s.rules[stored.ID] = stored
		return func() { delete(s.rules, stored.ID) }, nil
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// DeleteRule удаляет правило вместе с блоками расписания, которые на него ссылаются
func (r *AvailabilityRepository) DeleteRule(ctx context.Context, tenantID, resourceID, ruleID string) error {
	if !r.ruleExists(tenantID, resourceID, ruleID) {
		return availabilityrepo.ErrRuleNotFound
	}
	return r.store.write(ctx, func(s *Store) (func(), error) {
		rule, ok := s.rules[ruleID]
		if !ok || rule.TenantID != tenantID || rule.ResourceID != resourceID {
			return nil, availabilityrepo.ErrRuleNotFound
		}

		removed := make([]*domain.TimeBlock, 0)
		for id, b := range s.blocks {
			if b.RuleID == ruleID {
				removed = append(removed, b)
				delete(s.blocks, id)
			}
		}
		delete(s.rules, ruleID)

		return func() {
			s.rules[ruleID] = rule
			for _, b := range removed {
				s.blocks[b.ID] = b
			}
		}, nil
	})
}

// ListRules правила ресурса по дню недели и началу
func (r *AvailabilityRepository) ListRules(ctx context.Context, tenantID, resourceID string) ([]*domain.AvailabilityRule, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rules := make([]*domain.AvailabilityRule, 0)
	for _, rule := range r.store.rules {
		if rule.TenantID == tenantID && rule.ResourceID == resourceID {
			rules = append(rules, cloneRule(rule))
		}
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].DayOfWeek == rules[j].DayOfWeek {
			return rules[i].StartMinute < rules[j].StartMinute
		}
		return rules[i].DayOfWeek < rules[j].DayOfWeek
	})
	return rules, nil
}

// CreateException сохраняет исключение; на дату ресурса допускается одно исключение
func (r *AvailabilityRepository) CreateException(ctx context.Context, exception *domain.AvailabilityException) (*domain.AvailabilityException, error) {
	stored := cloneException(exception)
	err := r.store.write(ctx, func(s *Store) (func(), error) {
		for _, existing := range s.exceptions {
			if existing.ResourceID == stored.ResourceID && existing.Date.Equal(stored.Date) {
				return nil, availabilityrepo.ErrExceptionExists
			}
		}
		s.exceptions[stored.ID] = stored
		return func() { delete(s.exceptions, stored.ID) }, nil
	})
	if err != nil {
		return nil, err
	}
	return exception, nil
}

// DeleteException удаляет исключение
func (r *AvailabilityRepository) DeleteException(ctx context.Context, tenantID, resourceID, exceptionID string) error {
	r.store.mu.RLock()
	e, ok := r.store.exceptions[exceptionID]
	found := ok && e.TenantID == tenantID && e.ResourceID == resourceID
	r.store.mu.RUnlock()
	if !found {
		return availabilityrepo.ErrExceptionNotFound
	}

	return r.store.write(ctx, func(s *Store) (func(), error) {
		e, ok := s.exceptions[exceptionID]
		if !ok || e.TenantID != tenantID || e.ResourceID != resourceID {
			return nil, availabilityrepo.ErrExceptionNotFound
		}
		delete(s.exceptions, exceptionID)
		return func() { s.exceptions[exceptionID] = e }, nil
	})
}

// ListExceptions исключения ресурса на даты [from, to] включительно
func (r *AvailabilityRepository) ListExceptions(ctx context.Context, tenantID, resourceID string, from, to time.Time) ([]*domain.AvailabilityException, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	exceptions := make([]*domain.AvailabilityException, 0)
	for _, e := range r.store.exceptions {
		if e.TenantID != tenantID || e.ResourceID != resourceID {
			continue
		}
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		exceptions = append(exceptions, cloneException(e))
	}
	sort.Slice(exceptions, func(i, j int) bool { return exceptions[i].Date.Before(exceptions[j].Date) })
	return exceptions, nil
}

// CreateTimeBlock сохраняет блок расписания
func (r *AvailabilityRepository) CreateTimeBlock(ctx context.Context, block *domain.TimeBlock) (*domain.TimeBlock, error) {
	stored := cloneBlock(block)
	err := r.store.write(ctx, func(s *Store) (func(), error) {
		s.blocks[stored.ID] = stored
		return func() { delete(s.blocks, stored.ID) }, nil
	})
	if err != nil {
		return nil, err
	}
	return block, nil
}

// ListTimeBlocks блоки расписания ресурса
func (r *AvailabilityRepository) ListTimeBlocks(ctx context.Context, tenantID, resourceID string) ([]*domain.TimeBlock, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	blocks := make([]*domain.TimeBlock, 0)
	for _, b := range r.store.blocks {
		if b.TenantID == tenantID && b.ResourceID == resourceID {
			blocks = append(blocks, cloneBlock(b))
		}
	}
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].DayOfWeek == blocks[j].DayOfWeek {
			return blocks[i].StartTime.IsBefore(blocks[j].StartTime)
		}
		return blocks[i].DayOfWeek < blocks[j].DayOfWeek
	})
	return blocks, nil
}

func (r *AvailabilityRepository) ruleExists(tenantID, resourceID, ruleID string) bool {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rule, ok := r.store.rules[ruleID]
	return ok && rule.TenantID == tenantID && rule.ResourceID == resourceID
}

func cloneRule(rule *domain.AvailabilityRule) *domain.AvailabilityRule {
	c := *rule
	if rule.Recurrence != nil {
		v := *rule.Recurrence
		c.Recurrence = &v
	}
	return &c
}

func cloneException(e *domain.AvailabilityException) *domain.AvailabilityException {
	c := *e
	if e.StartMinute != nil {
		v := *e.StartMinute
		c.StartMinute = &v
	}
	if e.EndMinute != nil {
		v := *e.EndMinute
		c.EndMinute = &v
	}
	return &c
}

func cloneBlock(b *domain.TimeBlock) *domain.TimeBlock {
	c := *b
	if b.BreakStart != nil {
		v := *b.BreakStart
		c.BreakStart = &v
	}
	if b.BreakEnd != nil {
		v := *b.BreakEnd
		c.BreakEnd = &v
	}
	return &c
}
