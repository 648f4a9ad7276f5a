package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент справочника ресурсов, услуг и tenant
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента справочника
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetTenant получает tenant по ID
func (c *Client) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	var tenant Tenant
	if err := c.get(ctx, "/internal/tenants/"+url.PathEscape(tenantID), ErrTenantNotFound, &tenant); err != nil {
		return nil, err
	}
	return tenant.toDomain(), nil
}

// GetResource получает ресурс по ID
func (c *Client) GetResource(ctx context.Context, resourceID string) (*domain.Resource, error) {
	var resource Resource
	if err := c.get(ctx, "/internal/resources/"+url.PathEscape(resourceID), ErrResourceNotFound, &resource); err != nil {
		return nil, err
	}
	return resource.toDomain(), nil
}

// GetService получает услугу по ID
func (c *Client) GetService(ctx context.Context, serviceID string) (*domain.Service, error) {
	var service Service
	if err := c.get(ctx, "/internal/services/"+url.PathEscape(serviceID), ErrServiceNotFound, &service); err != nil {
		return nil, err
	}
	return service.toDomain(), nil
}

func (c *Client) get(ctx context.Context, path string, notFound error, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Directory request %s failed: %v", path, err)
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusNotFound:
		return notFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return nil
}
