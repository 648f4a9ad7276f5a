package cancel_booking

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

type fakeService struct {
	calls     int
	tenantID  string
	bookingID string
	got       *models.CancelBookingRequest
	err       error
}

func (f *fakeService) Cancel(_ context.Context, tenantID, bookingID string, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	f.calls++
	f.tenantID, f.bookingID, f.got = tenantID, bookingID, req
	if f.err != nil {
		return nil, f.err
	}
	return &models.BookingResponse{ID: bookingID, Status: "canceled"}, nil
}

func post(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/b-1/cancel", reader)
	req = req.WithContext(handlers.WithTenantID(req.Context(), "tenant-1"))
	req = mux.SetURLVars(req, map[string]string{"bookingId": "b-1"})
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle_EmptyBodyAllowed(t *testing.T) {
	svc := &fakeService{}
	rec := post(t, NewHandler(svc, logger.Nop()), "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tenant-1", svc.tenantID)
	assert.Equal(t, "b-1", svc.bookingID)
	assert.Equal(t, "", svc.got.Reason)
	assert.Contains(t, rec.Body.String(), `"status":"canceled"`)
}

func TestHandle_PassesReason(t *testing.T) {
	svc := &fakeService{}
	rec := post(t, NewHandler(svc, logger.Nop()), `{"reason":"customer asked"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "customer asked", svc.got.Reason)
}

func TestHandle_InvalidBody(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, logger.Nop())

	for _, body := range []string{`not json`, `{"unknown":1}`, `{"reason":"` + strings.Repeat("x", 501) + `"}`} {
		rec := post(t, h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Zero(t, svc.calls)
}

func TestHandle_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{bookings.ErrBookingNotFound, http.StatusNotFound},
		{bookings.ErrCannotCancel, http.StatusConflict},
		{bookings.ErrBusy, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: empty id", bookings.ErrInvalidInput), http.StatusBadRequest},
		{bookings.ErrInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := post(t, NewHandler(&fakeService{err: c.err}, logger.Nop()), "")
		assert.Equal(t, c.status, rec.Code, c.err.Error())
		if c.status == http.StatusServiceUnavailable {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		}
	}
}
