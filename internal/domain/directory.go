package domain

import "time"

// ResourceType kind of a bookable resource
type ResourceType string

const (
	ResourceStaff ResourceType = "staff"
	ResourceRoom  ResourceType = "room"
)

// Tenant business account; only the timezone is consumed
type Tenant struct {
	ID       string
	Timezone string
}

// Resource staff member or room, owned by the directory service
type Resource struct {
	ID        string
	TenantID  string
	Type      ResourceType
	Name      string
	Timezone  string // пусто = зона tenant
	Capacity  int
	Active    bool
	DeletedAt *time.Time
}

// IsDeleted returns true if the resource was soft-deleted
func (r *Resource) IsDeleted() bool {
	return r.DeletedAt != nil
}

// IsBookable returns true if the resource can produce open windows
func (r *Resource) IsBookable() bool {
	return r.Active && !r.IsDeleted() && r.Capacity > 0
}

// Service catalog entry; only scheduling attributes are consumed
type Service struct {
	ID                  string
	TenantID            string
	Name                string
	DurationMinutes     int
	BufferBeforeMinutes int
	BufferAfterMinutes  int
	Active              bool
}
