package reschedule_booking

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	rescheduleBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/reschedule_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgNotFound           = "бронирование не найдено"
	msgResourceNotFound   = "ресурс не найден"
	msgResourceInactive   = "ресурс недоступен для записи"
	msgCannotReschedule   = "бронирование не может быть перенесено"
	msgClientIDReused     = "clientGeneratedId уже использован другим бронированием"
	msgTooLateToBook      = "слишком поздно для бронирования этого времени"
	msgConflict           = "новое время пересекается с другим бронированием"
	msgBusy               = "ресурс занят другой операцией, повторите запрос"
)

type Handler struct {
	useCase RescheduleBookingUseCase
	logger  Logger
}

func NewHandler(useCase RescheduleBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/reschedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := handlers.GetTenantID(r.Context())
	bookingID := mux.Vars(r)["bookingId"]

	var req RescheduleBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/reschedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		h.logger.Warn("POST /bookings/{id}/reschedule - Validation failed: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(tenantID, bookingID)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, rescheduleBooking.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/reschedule - Booking not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, rescheduleBooking.ErrResourceNotFound):
			handlers.RespondNotFound(w, msgResourceNotFound)

		case errors.Is(err, rescheduleBooking.ErrConflict):
			h.logger.Warn("POST /bookings/{id}/reschedule - Conflict: booking_id=%s", bookingID)
			handlers.RespondConflict(w, msgConflict)

		case errors.Is(err, rescheduleBooking.ErrCannotReschedule):
			handlers.RespondConflict(w, msgCannotReschedule)

		case errors.Is(err, rescheduleBooking.ErrClientIDReused):
			handlers.RespondConflict(w, msgClientIDReused)

		case errors.Is(err, rescheduleBooking.ErrBusy):
			handlers.RespondBusy(w, msgBusy)

		case errors.Is(err, rescheduleBooking.ErrResourceInactive):
			handlers.RespondBadRequest(w, msgResourceInactive)

		case errors.Is(err, rescheduleBooking.ErrTooLateToBook):
			handlers.RespondBadRequest(w, msgTooLateToBook)

		case errors.Is(err, rescheduleBooking.ErrInvalidInput):
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /bookings/{id}/reschedule - Failed to reschedule: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/reschedule - Booking moved: booking_id=%s, new_booking_id=%s, replayed=%t",
		bookingID, result.Booking.ID, result.Replayed)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
