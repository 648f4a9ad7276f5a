package directory

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Tenant модель tenant из справочника
type Tenant struct {
	ID       string `json:"id" toml:"id"`
	Timezone string `json:"timezone" toml:"timezone"`
}

// Resource модель ресурса (сотрудник или помещение)
type Resource struct {
	ID        string     `json:"id" toml:"id"`
	TenantID  string     `json:"tenant_id" toml:"tenant_id"`
	Type      string     `json:"type" toml:"type"`
	Name      string     `json:"name" toml:"name"`
	Timezone  string     `json:"timezone" toml:"timezone"`
	Capacity  int        `json:"capacity" toml:"capacity"`
	Active    bool       `json:"active" toml:"active"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" toml:"deleted_at"`
}

// Service модель услуги из каталога
type Service struct {
	ID                  string `json:"id" toml:"id"`
	TenantID            string `json:"tenant_id" toml:"tenant_id"`
	Name                string `json:"name" toml:"name"`
	DurationMinutes     int    `json:"duration_minutes" toml:"duration_minutes"`
	BufferBeforeMinutes int    `json:"buffer_before_minutes" toml:"buffer_before_minutes"`
	BufferAfterMinutes  int    `json:"buffer_after_minutes" toml:"buffer_after_minutes"`
	Active              bool   `json:"active" toml:"active"`
}

// ErrorResponse модель ошибки от справочника
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (t *Tenant) toDomain() *domain.Tenant {
	return &domain.Tenant{ID: t.ID, Timezone: t.Timezone}
}

func (r *Resource) toDomain() *domain.Resource {
	return &domain.Resource{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Type:      domain.ResourceType(r.Type),
		Name:      r.Name,
		Timezone:  r.Timezone,
		Capacity:  r.Capacity,
		Active:    r.Active,
		DeletedAt: r.DeletedAt,
	}
}

func (s *Service) toDomain() *domain.Service {
	return &domain.Service{
		ID:                  s.ID,
		TenantID:            s.TenantID,
		Name:                s.Name,
		DurationMinutes:     s.DurationMinutes,
		BufferBeforeMinutes: s.BufferBeforeMinutes,
		BufferAfterMinutes:  s.BufferAfterMinutes,
		Active:              s.Active,
	}
}
