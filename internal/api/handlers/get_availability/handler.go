package get_availability

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability"
)

const (
	msgMissingFrom      = "дата from обязательна"
	msgInvalidDate      = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidRange     = "некорректный диапазон дат"
	msgResourceNotFound = "ресурс не найден"
)

type Handler struct {
	service AvailabilityService
	logger  Logger
}

func NewHandler(service AvailabilityService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/resources/{resourceId}/availability
// Query params: from (required, YYYY-MM-DD), to (YYYY-MM-DD, по умолчанию = from)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := handlers.GetTenantID(r.Context())
	resourceID := mux.Vars(r)["resourceId"]
	query := r.URL.Query()

	if query.Get("from") == "" {
		handlers.RespondBadRequest(w, msgMissingFrom)
		return
	}
	from, err := handlers.ParseDate(query.Get("from"))
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}
	to := from
	if query.Get("to") != "" {
		if to, err = handlers.ParseDate(query.Get("to")); err != nil {
			handlers.RespondBadRequest(w, msgInvalidDate)
			return
		}
	}

	result, err := h.service.Resolve(r.Context(), tenantID, resourceID, from, to)
	if err != nil {
		switch {
		case errors.Is(err, availability.ErrInvalidInput):
			h.logger.Warn("GET /resources/{id}/availability - Invalid range: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRange)

		case errors.Is(err, availability.ErrResourceNotFound):
			h.logger.Warn("GET /resources/{id}/availability - Resource not found: resource_id=%s", resourceID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		default:
			h.logger.Error("GET /resources/{id}/availability - Failed to resolve: resource_id=%s, error=%v", resourceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /resources/{id}/availability - Windows resolved: resource_id=%s, days=%d", resourceID, len(result.Days))
	handlers.RespondJSON(w, http.StatusOK, FromServiceResult(resourceID, result))
}
