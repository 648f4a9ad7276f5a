package create_booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	createBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

type fakeUseCase struct {
	got  *createBooking.Request
	resp *createBooking.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *createBooking.Request) (*createBooking.Response, error) {
	f.got = req
	return f.resp, f.err
}

var start = time.Date(2025, 1, 6, 15, 0, 0, 0, time.UTC)

func booking() *domain.Booking {
	return &domain.Booking{
		ID: "b-1", TenantID: "tenant-1", ResourceID: "res-1", ServiceID: "svc-1",
		StartAt: start, EndAt: start.Add(time.Hour), BookingTZ: "UTC", Status: domain.StatusConfirmed,
	}
}

func post(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req = req.WithContext(handlers.WithTenantID(req.Context(), "tenant-1"))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

const validBody = `{"customerId":"c-1","resourceId":"res-1","serviceIds":["svc-1"],"startAt":"2025-01-06T15:00:00Z","clientGeneratedId":"k-1"}`

func TestHandle_CreatedAndReplayed(t *testing.T) {
	uc := &fakeUseCase{resp: &createBooking.Response{Booking: booking()}}
	h := NewHandler(uc, logger.Nop())

	rec := post(t, h, validBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "tenant-1", uc.got.TenantID)
	assert.Equal(t, 1, uc.got.AttendeeCount)
	assert.Equal(t, start, *uc.got.StartAt)

	var body BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "b-1", body.ID)
	assert.Equal(t, 60, body.DurationMinutes)

	uc.resp.Replayed = true
	rec = post(t, h, validBody)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandle_LocalWallClock(t *testing.T) {
	uc := &fakeUseCase{resp: &createBooking.Response{Booking: booking()}}
	h := NewHandler(uc, logger.Nop())

	rec := post(t, h, `{"customerId":"c-1","resourceId":"res-1","serviceIds":["svc-1"],"localDate":"2025-01-06","localTime":"10:00","clientGeneratedId":"k-1","status":"pending"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, uc.got.LocalDate)
	assert.Equal(t, "2025-01-06", uc.got.LocalDate.Format(domain.DateFormat))
	assert.Equal(t, "10:00", uc.got.LocalTime.String())
	assert.Equal(t, domain.StatusPending, uc.got.Status)
	assert.Nil(t, uc.got.StartAt)
}

func TestHandle_ValidationErrors(t *testing.T) {
	uc := &fakeUseCase{}
	h := NewHandler(uc, logger.Nop())

	bodies := []string{
		`not json`,
		`{"customerId":"c-1","resourceId":"res-1","serviceIds":["svc-1"],"startAt":"2025-01-06T15:00:00Z"}`,
		`{"customerId":"c-1","resourceId":"res-1","serviceIds":[],"startAt":"2025-01-06T15:00:00Z","clientGeneratedId":"k"}`,
		`{"customerId":"c-1","resourceId":"res-1","serviceIds":["svc-1"],"localDate":"06.01.2025","localTime":"10:00","clientGeneratedId":"k"}`,
		`{"customerId":"c-1","resourceId":"res-1","serviceIds":["svc-1"],"startAt":"2025-01-06T15:00:00Z","clientGeneratedId":"k","status":"completed"}`,
		`{"customerId":"c-1","resourceId":"res-1","serviceIds":["svc-1"],"startAt":"2025-01-06T15:00:00Z","clientGeneratedId":"k","unknown":true}`,
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
		{createBooking.ErrConflict, http.StatusConflict},
		{createBooking.ErrBusy, http.StatusServiceUnavailable},
		{createBooking.ErrResourceNotFound, http.StatusNotFound},
		{createBooking.ErrServiceNotFound, http.StatusNotFound},
		{createBooking.ErrResourceInactive, http.StatusBadRequest},
		{createBooking.ErrCapacityExceeded, http.StatusBadRequest},
		{createBooking.ErrTooLateToBook, http.StatusBadRequest},
		{fmt.Errorf("%w: gap", createBooking.ErrInvalidInput), http.StatusBadRequest},
		{createBooking.ErrInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		h := NewHandler(&fakeUseCase{err: c.err}, logger.Nop())
		rec := post(t, h, validBody)
		assert.Equal(t, c.status, rec.Code, c.err.Error())
		if c.status == http.StatusServiceUnavailable {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		}
	}
}
