package get_available_slots

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
)

const (
	msgMissingServiceID = "ID услуги обязателен"
	msgMissingFrom      = "дата from обязательна"
	msgInvalidParams    = "некорректные параметры запроса, даты ожидаются в формате YYYY-MM-DD"
	msgInvalidInput     = "некорректный запрос слотов"
	msgResourceNotFound = "ресурс не найден"
	msgServiceNotFound  = "услуга не найдена"
	msgServiceInactive  = "услуга недоступна для записи"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/resources/{resourceId}/available-slots
// Query params: serviceId (required), from (required, YYYY-MM-DD), to (YYYY-MM-DD), grid (минуты)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := handlers.GetTenantID(r.Context())
	resourceID := mux.Vars(r)["resourceId"]
	query := r.URL.Query()

	serviceID := query.Get("serviceId")
	if serviceID == "" {
		h.logger.Warn("GET /resources/{id}/available-slots - Missing service ID")
		handlers.RespondBadRequest(w, msgMissingServiceID)
		return
	}
	if query.Get("from") == "" {
		h.logger.Warn("GET /resources/{id}/available-slots - Missing from")
		handlers.RespondBadRequest(w, msgMissingFrom)
		return
	}

	useCaseReq, err := ToUseCaseRequest(tenantID, resourceID, serviceID, query.Get("from"), query.Get("to"), query.Get("grid"))
	if err != nil {
		h.logger.Warn("GET /resources/{id}/available-slots - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrResourceNotFound):
			h.logger.Warn("GET /resources/{id}/available-slots - Resource not found: resource_id=%s", resourceID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case errors.Is(err, getAvailableSlots.ErrServiceNotFound):
			h.logger.Warn("GET /resources/{id}/available-slots - Service not found: service_id=%s", serviceID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, getAvailableSlots.ErrServiceInactive):
			h.logger.Warn("GET /resources/{id}/available-slots - Service inactive: service_id=%s", serviceID)
			handlers.RespondBadRequest(w, msgServiceInactive)

		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /resources/{id}/available-slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("GET /resources/{id}/available-slots - Failed to get slots: resource_id=%s, service_id=%s, error=%v",
				resourceID, serviceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /resources/{id}/available-slots - Slots retrieved successfully: resource_id=%s, service_id=%s, slots_count=%d",
		resourceID, serviceID, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
