package reschedule_booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	rescheduleBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/reschedule_booking"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

type fakeUseCase struct {
	got  *rescheduleBooking.Request
	resp *rescheduleBooking.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *rescheduleBooking.Request) (*rescheduleBooking.Response, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

var newStart = time.Date(2025, 1, 6, 17, 0, 0, 0, time.UTC)

func moved() *rescheduleBooking.Response {
	return &rescheduleBooking.Response{
		Booking: &domain.Booking{
			ID: "b-2", TenantID: "tenant-1", ResourceID: "res-1", ServiceID: "svc-1",
			StartAt: newStart, EndAt: newStart.Add(time.Hour), BookingTZ: "UTC", Status: domain.StatusConfirmed,
		},
		Previous: &domain.Booking{
			ID: "b-1", TenantID: "tenant-1", ResourceID: "res-1", ServiceID: "svc-1",
			StartAt: newStart.Add(-2 * time.Hour), EndAt: newStart.Add(-time.Hour), BookingTZ: "UTC", Status: domain.StatusRescheduled,
		},
	}
}

func post(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/b-1/reschedule", strings.NewReader(body))
	req = req.WithContext(handlers.WithTenantID(req.Context(), "tenant-1"))
	req = mux.SetURLVars(req, map[string]string{"bookingId": "b-1"})
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

const validBody = `{"newStartAt":"2025-01-06T17:00:00Z","clientGeneratedId":"r-1"}`

func TestHandle_ReturnsNewAndPrevious(t *testing.T) {
	uc := &fakeUseCase{resp: moved()}
	rec := post(t, NewHandler(uc, logger.Nop()), validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tenant-1", uc.got.TenantID)
	assert.Equal(t, "b-1", uc.got.BookingID)
	assert.Equal(t, "r-1", uc.got.ClientGeneratedID)
	require.NotNil(t, uc.got.NewStartAt)
	assert.True(t, uc.got.NewStartAt.Equal(newStart))

	var body RescheduleBookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "b-2", body.Booking.ID)
	assert.Equal(t, "b-1", body.Previous.ID)
	assert.Equal(t, "rescheduled", body.Previous.Status)
}

func TestHandle_LocalWallClock(t *testing.T) {
	uc := &fakeUseCase{resp: moved()}
	rec := post(t, NewHandler(uc, logger.Nop()), `{"localDate":"2025-01-06","localTime":"12:00"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, uc.got.LocalDate)
	assert.Equal(t, "2025-01-06", uc.got.LocalDate.Format(domain.DateFormat))
	assert.Equal(t, "12:00", uc.got.LocalTime.String())
	assert.Nil(t, uc.got.NewStartAt)
}

func TestHandle_InvalidBody(t *testing.T) {
	uc := &fakeUseCase{}
	h := NewHandler(uc, logger.Nop())

	bodies := []string{
		`not json`,
		`{"newStartAt":"tomorrow"}`,
		`{"localDate":"06.01.2025","localTime":"12:00"}`,
		`{"localDate":"2025-01-06","localTime":"12"}`,
		`{"newStartAt":"2025-01-06T17:00:00Z","unknown":true}`,
	}
	for _, body := range bodies {
		rec := post(t, h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Nil(t, uc.got)
}

func TestHandle_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{rescheduleBooking.ErrBookingNotFound, http.StatusNotFound},
		{rescheduleBooking.ErrResourceNotFound, http.StatusNotFound},
		{rescheduleBooking.ErrConflict, http.StatusConflict},
		{rescheduleBooking.ErrCannotReschedule, http.StatusConflict},
		{rescheduleBooking.ErrClientIDReused, http.StatusConflict},
		{rescheduleBooking.ErrBusy, http.StatusServiceUnavailable},
		{rescheduleBooking.ErrResourceInactive, http.StatusBadRequest},
		{rescheduleBooking.ErrTooLateToBook, http.StatusBadRequest},
		{fmt.Errorf("%w: new_start_at must be aligned to a whole minute", rescheduleBooking.ErrInvalidInput), http.StatusBadRequest},
		{rescheduleBooking.ErrInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := post(t, NewHandler(&fakeUseCase{err: c.err}, logger.Nop()), validBody)
		assert.Equal(t, c.status, rec.Code, c.err.Error())
		if c.status == http.StatusServiceUnavailable {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		}
	}
}
