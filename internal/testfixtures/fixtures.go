package testfixtures

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/directory"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Идентификаторы справочника
const (
	TenantID = "tenant-1"

	ResourceNY       = "res-ny"       // America/New_York, вместимость 1
	ResourceRoom     = "res-room"     // зона tenant, вместимость 4
	ResourceInactive = "res-inactive" // неактивный
	ResourceDeleted  = "res-deleted"  // мягко удален
	ResourceOther    = "res-other"    // другой tenant

	ServiceHour     = "svc-60"       // 60 минут без буферов
	ServiceBuffered = "svc-30-buf"   // 30 минут, буферы 10 до и 5 после
	ServiceShort    = "svc-15"       // 15 минут, буфер 5 после
	ServiceInactive = "svc-inactive" // отключена
)

// Monday понедельник 2025-01-06, зимнее время в New York (UTC-5)
var Monday = time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

// Directory справочник с набором ресурсов и услуг для тестов
func Directory() *directory.Static {
	dir := directory.NewStatic()
	dir.PutTenant(&domain.Tenant{ID: TenantID, Timezone: "America/Chicago"})
	dir.PutTenant(&domain.Tenant{ID: "tenant-2", Timezone: "Europe/Berlin"})

	dir.PutResource(&domain.Resource{ID: ResourceNY, TenantID: TenantID, Type: domain.ResourceStaff, Name: "Anna", Timezone: "America/New_York", Capacity: 1, Active: true})
	dir.PutResource(&domain.Resource{ID: ResourceRoom, TenantID: TenantID, Type: domain.ResourceRoom, Name: "Room A", Capacity: 4, Active: true})
	dir.PutResource(&domain.Resource{ID: ResourceInactive, TenantID: TenantID, Type: domain.ResourceStaff, Name: "Idle", Timezone: "America/New_York", Capacity: 1, Active: false})
	deletedAt := ReferenceTime.Add(-time.Hour)
	dir.PutResource(&domain.Resource{ID: ResourceDeleted, TenantID: TenantID, Type: domain.ResourceStaff, Name: "Gone", Timezone: "America/New_York", Capacity: 1, Active: true, DeletedAt: &deletedAt})
	dir.PutResource(&domain.Resource{ID: ResourceOther, TenantID: "tenant-2", Type: domain.ResourceStaff, Name: "Max", Capacity: 1, Active: true})

	dir.PutService(&domain.Service{ID: ServiceHour, TenantID: TenantID, Name: "Consultation", DurationMinutes: 60, Active: true})
	dir.PutService(&domain.Service{ID: ServiceBuffered, TenantID: TenantID, Name: "Haircut", DurationMinutes: 30, BufferBeforeMinutes: 10, BufferAfterMinutes: 5, Active: true})
	dir.PutService(&domain.Service{ID: ServiceShort, TenantID: TenantID, Name: "Wash", DurationMinutes: 15, BufferAfterMinutes: 5, Active: true})
	dir.PutService(&domain.Service{ID: ServiceInactive, TenantID: TenantID, Name: "Retired", DurationMinutes: 30, Active: false})
	return dir
}

// AddWeeklyRule добавляет правило "день недели HH:MM-HH:MM" в хранилище
func AddWeeklyRule(t *testing.T, store *memory.Store, resourceID string, dayOfWeek int, start, end string) *domain.AvailabilityRule {
	t.Helper()
	rule := &domain.AvailabilityRule{
		ID:          fmt.Sprintf("rule-%s-%d-%s", resourceID, dayOfWeek, start),
		TenantID:    TenantID,
		ResourceID:  resourceID,
		DayOfWeek:   dayOfWeek,
		StartMinute: minutes(t, start),
		EndMinute:   minutes(t, end),
		CreatedAt:   ReferenceTime,
	}
	_, err := store.Availability().CreateRule(context.Background(), rule)
	require.NoError(t, err)
	return rule
}

// Minutes минута суток для HH:MM
func Minutes(t *testing.T, hhmm string) int {
	t.Helper()
	return minutes(t, hhmm)
}

func minutes(t *testing.T, hhmm string) int {
	t.Helper()
	ts, err := types.NewTimeStringFromString(hhmm)
	require.NoError(t, err)
	m, err := ts.Minutes()
	require.NoError(t, err)
	return m
}

// IDGenerator детерминированные идентификаторы
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewIDGenerator генератор с префиксом; пустой префикс = "id"
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next следующий идентификатор
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}
