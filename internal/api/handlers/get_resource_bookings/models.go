package get_resource_bookings

import (
	"strings"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров.
// from и to в RFC 3339; status через запятую.
func ToServiceRequest(tenantID, resourceID, fromStr, toStr, statusStr string) (*models.ListBookingsRequest, error) {
	req := &models.ListBookingsRequest{
		TenantID:   tenantID,
		ResourceID: resourceID,
	}

	if fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return nil, err
		}
		req.From = &from
	}

	if toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return nil, err
		}
		req.To = &to
	}

	if statusStr != "" {
		for _, s := range strings.Split(statusStr, ",") {
			if s = strings.TrimSpace(s); s != "" {
				req.Statuses = append(req.Statuses, s)
			}
		}
	}

	return req, nil
}
