package schedule

import (
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule/models"
)

// CreateRuleRequest HTTP request model
type CreateRuleRequest struct {
	DayOfWeek   int `json:"dayOfWeek" validate:"min=1,max=7"`
	StartMinute int `json:"startMinute" validate:"min=0,max=1439"`
	EndMinute   int `json:"endMinute" validate:"min=1,max=1440,gtfield=StartMinute"`
}

// CreateExceptionRequest HTTP request model; без минут = закрыто весь день
type CreateExceptionRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartMinute *int   `json:"startMinute,omitempty" validate:"omitempty,min=0,max=1439"`
	EndMinute   *int   `json:"endMinute,omitempty" validate:"omitempty,min=1,max=1440"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// CreateTimeBlockRequest HTTP request model
type CreateTimeBlockRequest struct {
	DayOfWeek  int     `json:"dayOfWeek" validate:"min=1,max=7"`
	StartTime  string  `json:"startTime" validate:"required,len=5"`
	EndTime    string  `json:"endTime" validate:"required,len=5"`
	BreakStart *string `json:"breakStart,omitempty" validate:"omitempty,len=5"`
	BreakEnd   *string `json:"breakEnd,omitempty" validate:"omitempty,len=5"`
	Recurring  *bool   `json:"recurring,omitempty"`
	Color      string  `json:"color,omitempty" validate:"omitempty,hexcolor"`
	StaffName  string  `json:"staffName,omitempty" validate:"max=200"`
	StaffRole  string  `json:"staffRole,omitempty" validate:"max=100"`
}

func (r *CreateRuleRequest) toServiceRequest(tenantID, resourceID string) *models.CreateRuleRequest {
	return &models.CreateRuleRequest{
		TenantID:    tenantID,
		ResourceID:  resourceID,
		DayOfWeek:   r.DayOfWeek,
		StartMinute: r.StartMinute,
		EndMinute:   r.EndMinute,
	}
}

func (r *CreateExceptionRequest) toServiceRequest(tenantID, resourceID string) *models.CreateExceptionRequest {
	return &models.CreateExceptionRequest{
		TenantID:    tenantID,
		ResourceID:  resourceID,
		Date:        r.Date,
		StartMinute: r.StartMinute,
		EndMinute:   r.EndMinute,
		Description: r.Description,
	}
}

// toServiceRequest recurring по умолчанию true
func (r *CreateTimeBlockRequest) toServiceRequest(tenantID, resourceID string) *models.CreateTimeBlockRequest {
	recurring := true
	if r.Recurring != nil {
		recurring = *r.Recurring
	}
	return &models.CreateTimeBlockRequest{
		TenantID:   tenantID,
		ResourceID: resourceID,
		DayOfWeek:  r.DayOfWeek,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		BreakStart: r.BreakStart,
		BreakEnd:   r.BreakEnd,
		Recurring:  recurring,
		Color:      r.Color,
		StaffName:  r.StaffName,
		StaffRole:  r.StaffRole,
	}
}
