package models

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Request модели

// CreateRuleRequest запрос на создание еженедельного правила
type CreateRuleRequest struct {
	TenantID    string `json:"-"`
	ResourceID  string `json:"-"`
	DayOfWeek   int    `json:"dayOfWeek"`   // ISO: 1 = понедельник
	StartMinute int    `json:"startMinute"` // 0..1439
	EndMinute   int    `json:"endMinute"`   // до 1440 включительно = конец суток
}

// CreateExceptionRequest запрос на создание исключения на дату
// StartMinute и EndMinute оба nil = закрыто весь день
type CreateExceptionRequest struct {
	TenantID    string `json:"-"`
	ResourceID  string `json:"-"`
	Date        string `json:"date"` // YYYY-MM-DD
	StartMinute *int   `json:"startMinute,omitempty"`
	EndMinute   *int   `json:"endMinute,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreateTimeBlockRequest запрос на создание блока расписания сотрудника
type CreateTimeBlockRequest struct {
	TenantID   string  `json:"-"`
	ResourceID string  `json:"-"`
	DayOfWeek  int     `json:"dayOfWeek"`
	StartTime  string  `json:"startTime"` // HH:MM
	EndTime    string  `json:"endTime"`   // HH:MM
	BreakStart *string `json:"breakStart,omitempty"`
	BreakEnd   *string `json:"breakEnd,omitempty"`
	Recurring  bool    `json:"recurring"`
	Color      string  `json:"color,omitempty"`
	StaffName  string  `json:"staffName,omitempty"`
	StaffRole  string  `json:"staffRole,omitempty"`
}

// Response модели

// RuleResponse правило доступности
type RuleResponse struct {
	ID          string    `json:"id"`
	ResourceID  string    `json:"resourceId"`
	DayOfWeek   int       `json:"dayOfWeek"`
	StartMinute int       `json:"startMinute"`
	EndMinute   int       `json:"endMinute"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ExceptionResponse исключение на дату
type ExceptionResponse struct {
	ID          string    `json:"id"`
	ResourceID  string    `json:"resourceId"`
	Date        string    `json:"date"`
	Closed      bool      `json:"closed"`
	StartMinute *int      `json:"startMinute,omitempty"`
	EndMinute   *int      `json:"endMinute,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TimeBlockResponse блок расписания
type TimeBlockResponse struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resourceId"`
	RuleID     string    `json:"ruleId"`
	DayOfWeek  int       `json:"dayOfWeek"`
	StartTime  string    `json:"startTime"`
	EndTime    string    `json:"endTime"`
	BreakStart *string   `json:"breakStart,omitempty"`
	BreakEnd   *string   `json:"breakEnd,omitempty"`
	Recurring  bool      `json:"recurring"`
	Color      string    `json:"color,omitempty"`
	StaffName  string    `json:"staffName,omitempty"`
	StaffRole  string    `json:"staffRole,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Конвертеры

// FromDomainRule конвертирует доменное правило в ответ
func FromDomainRule(r *domain.AvailabilityRule) *RuleResponse {
	return &RuleResponse{
		ID:          r.ID,
		ResourceID:  r.ResourceID,
		DayOfWeek:   r.DayOfWeek,
		StartMinute: r.StartMinute,
		EndMinute:   r.EndMinute,
		StartTime:   minuteLabel(r.StartMinute),
		EndTime:     minuteLabel(r.EndMinute),
		CreatedAt:   r.CreatedAt,
	}
}

// FromDomainRuleList конвертирует список правил
func FromDomainRuleList(rules []*domain.AvailabilityRule) []*RuleResponse {
	out := make([]*RuleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, FromDomainRule(r))
	}
	return out
}

// FromDomainException конвертирует доменное исключение в ответ
func FromDomainException(e *domain.AvailabilityException) *ExceptionResponse {
	return &ExceptionResponse{
		ID:          e.ID,
		ResourceID:  e.ResourceID,
		Date:        e.Date.Format(types.DateFormat),
		Closed:      e.IsClosure(),
		StartMinute: e.StartMinute,
		EndMinute:   e.EndMinute,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}

// FromDomainTimeBlock конвертирует доменный блок расписания в ответ
func FromDomainTimeBlock(b *domain.TimeBlock) *TimeBlockResponse {
	resp := &TimeBlockResponse{
		ID:         b.ID,
		ResourceID: b.ResourceID,
		RuleID:     b.RuleID,
		DayOfWeek:  b.DayOfWeek,
		StartTime:  b.StartTime.String(),
		EndTime:    b.EndTime.String(),
		Recurring:  b.Recurring,
		Color:      b.Color,
		StaffName:  b.StaffName,
		StaffRole:  b.StaffRole,
		CreatedAt:  b.CreatedAt,
	}
	if b.BreakStart != nil && b.BreakEnd != nil {
		start, end := b.BreakStart.String(), b.BreakEnd.String()
		resp.BreakStart = &start
		resp.BreakEnd = &end
	}
	return resp
}

// FromDomainTimeBlockList конвертирует список блоков
func FromDomainTimeBlockList(blocks []*domain.TimeBlock) []*TimeBlockResponse {
	out := make([]*TimeBlockResponse, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, FromDomainTimeBlock(b))
	}
	return out
}

func minuteLabel(minute int) string {
	ts, err := types.FromMinutes(minute)
	if err != nil {
		return ""
	}
	return ts.String()
}
