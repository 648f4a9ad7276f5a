package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Seed содержимое файла статического справочника
type Seed struct {
	Tenants   []Tenant   `toml:"tenants"`
	Resources []Resource `toml:"resources"`
	Services  []Service  `toml:"services"`
}

// Static справочник в памяти: для локального запуска и тестов
type Static struct {
	mu        sync.RWMutex
	tenants   map[string]*domain.Tenant
	resources map[string]*domain.Resource
	services  map[string]*domain.Service
}

// NewStatic создает пустой справочник
func NewStatic() *Static {
	return &Static{
		tenants:   make(map[string]*domain.Tenant),
		resources: make(map[string]*domain.Resource),
		services:  make(map[string]*domain.Service),
	}
}

// LoadStatic читает справочник из TOML файла
func LoadStatic(path string) (*Static, error) {
	var seed Seed
	if _, err := toml.DecodeFile(path, &seed); err != nil {
		return nil, fmt.Errorf("%w: failed to decode seed file %s: %v", ErrInternal, path, err)
	}

	s := NewStatic()
	for i := range seed.Tenants {
		s.PutTenant(seed.Tenants[i].toDomain())
	}
	for i := range seed.Resources {
		s.PutResource(seed.Resources[i].toDomain())
	}
	for i := range seed.Services {
		s.PutService(seed.Services[i].toDomain())
	}
	return s, nil
}

func (s *Static) PutTenant(t *domain.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *t
	s.tenants[t.ID] = &c
}

func (s *Static) PutResource(r *domain.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *r
	s.resources[r.ID] = &c
}

func (s *Static) PutService(svc *domain.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *svc
	s.services[svc.ID] = &c
}

func (s *Static) GetTenant(_ context.Context, tenantID string) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, ErrTenantNotFound
	}
	c := *t
	return &c, nil
}

func (s *Static) GetResource(_ context.Context, resourceID string) (*domain.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[resourceID]
	if !ok {
		return nil, ErrResourceNotFound
	}
	c := *r
	return &c, nil
}

func (s *Static) GetService(_ context.Context, serviceID string) (*domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[serviceID]
	if !ok {
		return nil, ErrServiceNotFound
	}
	c := *svc
	return &c, nil
}
