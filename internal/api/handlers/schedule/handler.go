package schedule

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgResourceNotFound   = "ресурс не найден"
	msgRuleNotFound       = "правило не найдено"
	msgRuleOverlap        = "правило пересекается с существующим правилом этого дня"
	msgExceptionNotFound  = "исключение не найдено"
	msgExceptionExists    = "исключение на эту дату уже существует"
	msgBusy               = "ресурс занят другой операцией, повторите запрос"
)

// Handler запись расписания ресурса: правила, исключения и блоки
type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// CreateRule POST /api/v1/resources/{resourceId}/availability-rules
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	tenantID, resourceID := h.target(r)

	var req CreateRuleRequest
	if !h.decode(w, r, "POST /resources/{id}/availability-rules", &req) {
		return
	}

	rule, err := h.service.CreateRule(r.Context(), req.toServiceRequest(tenantID, resourceID))
	if err != nil {
		h.respondError(w, "POST /resources/{id}/availability-rules", resourceID, err)
		return
	}

	h.logger.Info("POST /resources/{id}/availability-rules - Rule created: resource_id=%s, rule_id=%s", resourceID, rule.ID)
	handlers.RespondJSON(w, http.StatusCreated, rule)
}

// ListRules GET /api/v1/resources/{resourceId}/availability-rules
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	tenantID, resourceID := h.target(r)

	rules, err := h.service.ListRules(r.Context(), tenantID, resourceID)
	if err != nil {
		h.respondError(w, "GET /resources/{id}/availability-rules", resourceID, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, rules)
}

// DeleteRule DELETE /api/v1/resources/{resourceId}/availability-rules/{ruleId}
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	tenantID, resourceID := h.target(r)
	ruleID := mux.Vars(r)["ruleId"]

	if err := h.service.DeleteRule(r.Context(), tenantID, resourceID, ruleID); err != nil {
		h.respondError(w, "DELETE /resources/{id}/availability-rules/{id}", resourceID, err)
		return
	}

	h.logger.Info("DELETE /resources/{id}/availability-rules/{id} - Rule deleted: resource_id=%s, rule_id=%s", resourceID, ruleID)
	handlers.RespondJSON(w, http.StatusNoContent, nil)
}

// CreateException POST /api/v1/resources/{resourceId}/availability-exceptions
func (h *Handler) CreateException(w http.ResponseWriter, r *http.Request) {
	tenantID, resourceID := h.target(r)

	var req CreateExceptionRequest
	if !h.decode(w, r, "POST /resources/{id}/availability-exceptions", &req) {
		return
	}

	exception, err := h.service.CreateException(r.Context(), req.toServiceRequest(tenantID, resourceID))
	if err != nil {
		h.respondError(w, "POST /resources/{id}/availability-exceptions", resourceID, err)
		return
	}

	h.logger.Info("POST /resources/{id}/availability-exceptions - Exception created: resource_id=%s, date=%s", resourceID, exception.Date)
	handlers.RespondJSON(w, http.StatusCreated, exception)
}

// DeleteException DELETE /api/v1/resources/{resourceId}/availability-exceptions/{exceptionId}
func (h *Handler) DeleteException(w http.ResponseWriter, r *http.Request) {
	tenantID, resourceID := h.target(r)
	exceptionID := mux.Vars(r)["exceptionId"]

	if err := h.service.DeleteException(r.Context(), tenantID, resourceID, exceptionID); err != nil {
		h.respondError(w, "DELETE /resources/{id}/availability-exceptions/{id}", resourceID, err)
		return
	}

	h.logger.Info("DELETE /resources/{id}/availability-exceptions/{id} - Exception deleted: resource_id=%s, exception_id=%s", resourceID, exceptionID)
	handlers.RespondJSON(w, http.StatusNoContent, nil)
}

// CreateTimeBlock POST /api/v1/resources/{resourceId}/time-blocks
func (h *Handler) CreateTimeBlock(w http.ResponseWriter, r *http.Request) {
	tenantID, resourceID := h.target(r)

	var req CreateTimeBlockRequest
	if !h.decode(w, r, "POST /resources/{id}/time-blocks", &req) {
		return
	}

	block, err := h.service.CreateTimeBlock(r.Context(), req.toServiceRequest(tenantID, resourceID))
	if err != nil {
		h.respondError(w, "POST /resources/{id}/time-blocks", resourceID, err)
		return
	}

	h.logger.Info("POST /resources/{id}/time-blocks - Block created: resource_id=%s, block_id=%s", resourceID, block.ID)
	handlers.RespondJSON(w, http.StatusCreated, block)
}

// ListTimeBlocks GET /api/v1/resources/{resourceId}/time-blocks
func (h *Handler) ListTimeBlocks(w http.ResponseWriter, r *http.Request) {
	tenantID, resourceID := h.target(r)

	blocks, err := h.service.ListTimeBlocks(r.Context(), tenantID, resourceID)
	if err != nil {
		h.respondError(w, "GET /resources/{id}/time-blocks", resourceID, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, blocks)
}

func (h *Handler) target(r *http.Request) (tenantID, resourceID string) {
	tenantID, _ = handlers.GetTenantID(r.Context())
	return tenantID, mux.Vars(r)["resourceId"]
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, route string, v interface{}) bool {
	if err := handlers.DecodeJSON(r, v); err != nil {
		h.logger.Warn("%s - Invalid request body: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return false
	}
	if err := handlers.Validate(v); err != nil {
		h.logger.Warn("%s - Validation failed: %v", route, err)
		handlers.RespondBadRequest(w, err.Error())
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, route, resourceID string, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidInput):
		h.logger.Warn("%s - Invalid input: resource_id=%s, error=%v", route, resourceID, err)
		handlers.RespondBadRequest(w, err.Error())

	case errors.Is(err, schedule.ErrResourceNotFound):
		handlers.RespondNotFound(w, msgResourceNotFound)

	case errors.Is(err, schedule.ErrRuleNotFound):
		handlers.RespondNotFound(w, msgRuleNotFound)

	case errors.Is(err, schedule.ErrExceptionNotFound):
		handlers.RespondNotFound(w, msgExceptionNotFound)

	case errors.Is(err, schedule.ErrRuleOverlap):
		h.logger.Warn("%s - Rule overlap: resource_id=%s", route, resourceID)
		handlers.RespondConflict(w, msgRuleOverlap)

	case errors.Is(err, schedule.ErrExceptionExists):
		handlers.RespondConflict(w, msgExceptionExists)

	case errors.Is(err, schedule.ErrBusy):
		handlers.RespondBusy(w, msgBusy)

	default:
		h.logger.Error("%s - Failed: resource_id=%s, error=%v", route, resourceID, err)
		handlers.RespondInternalError(w)
	}
}
