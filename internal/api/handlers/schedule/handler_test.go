package schedule

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/cache"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability"
	scheduleService "github.com/m04kA/SMC-SchedulingService/internal/service/schedule"
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule/models"
	"github.com/m04kA/SMC-SchedulingService/internal/service/timezone"
	"github.com/m04kA/SMC-SchedulingService/internal/testfixtures"
	"github.com/m04kA/SMC-SchedulingService/pkg/keylock"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
)

func newRouter(t *testing.T) *mux.Router {
	t.Helper()
	store := memory.New()
	dir := testfixtures.Directory()
	avail := availability.NewService(store.Availability(), dir, timezone.NewResolver(dir, timezone.DefaultPolicy),
		cache.NewMemory(time.Minute), metrics.Nop{}, logger.Nop(), 31)
	svc := scheduleService.NewService(store.Availability(), dir, avail, keylock.NewRegistry(time.Second), store, logger.Nop())
	h := NewHandler(svc, logger.Nop())

	r := mux.NewRouter()
	r.Use(middleware.Tenant)
	r.HandleFunc("/resources/{resourceId}/availability-rules", h.CreateRule).Methods(http.MethodPost)
	r.HandleFunc("/resources/{resourceId}/availability-rules", h.ListRules).Methods(http.MethodGet)
	r.HandleFunc("/resources/{resourceId}/availability-rules/{ruleId}", h.DeleteRule).Methods(http.MethodDelete)
	r.HandleFunc("/resources/{resourceId}/availability-exceptions", h.CreateException).Methods(http.MethodPost)
	r.HandleFunc("/resources/{resourceId}/availability-exceptions/{exceptionId}", h.DeleteException).Methods(http.MethodDelete)
	r.HandleFunc("/resources/{resourceId}/time-blocks", h.CreateTimeBlock).Methods(http.MethodPost)
	r.HandleFunc("/resources/{resourceId}/time-blocks", h.ListTimeBlocks).Methods(http.MethodGet)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("X-Tenant-ID", testfixtures.TenantID)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRules_CreateOverlapDelete(t *testing.T) {
	r := newRouter(t)
	path := "/resources/" + testfixtures.ResourceNY + "/availability-rules"

	rec := do(r, http.MethodPost, path, `{"dayOfWeek":1,"startMinute":540,"endMinute":1020}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var rule models.RuleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rule))
	assert.Equal(t, "09:00", rule.StartTime)

	rec = do(r, http.MethodPost, path, `{"dayOfWeek":1,"startMinute":600,"endMinute":700}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(r, http.MethodPost, path, `{"dayOfWeek":9,"startMinute":600,"endMinute":700}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPost, path, `{"dayOfWeek":2,"startMinute":700,"endMinute":600}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rules []models.RuleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	assert.Len(t, rules, 1)

	rec = do(r, http.MethodDelete, path+"/"+rule.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(r, http.MethodDelete, path+"/"+rule.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRules_UnknownResource(t *testing.T) {
	r := newRouter(t)
	rec := do(r, http.MethodPost, "/resources/missing/availability-rules", `{"dayOfWeek":1,"startMinute":540,"endMinute":600}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExceptions_CreateDuplicateDelete(t *testing.T) {
	r := newRouter(t)
	path := "/resources/" + testfixtures.ResourceNY + "/availability-exceptions"

	rec := do(r, http.MethodPost, path, `{"date":"2025-01-06","description":"holiday"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var exception models.ExceptionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &exception))
	assert.True(t, exception.Closed)

	rec = do(r, http.MethodPost, path, `{"date":"2025-01-06","startMinute":600,"endMinute":660}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(r, http.MethodPost, path, `{"date":"2025-01-07","startMinute":600}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodDelete, path+"/"+exception.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTimeBlocks_CreateAndList(t *testing.T) {
	r := newRouter(t)
	path := "/resources/" + testfixtures.ResourceNY + "/time-blocks"

	rec := do(r, http.MethodPost, path, `{"dayOfWeek":1,"startTime":"09:00","endTime":"17:00","breakStart":"12:00","breakEnd":"13:00","color":"#00aaff"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var block models.TimeBlockResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &block))
	assert.True(t, block.Recurring)
	assert.NotEmpty(t, block.RuleID)

	rec = do(r, http.MethodPost, path, `{"dayOfWeek":2,"startTime":"09:00","endTime":"17:00","color":"blue"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var blocks []models.TimeBlockResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blocks))
	assert.Len(t, blocks, 1)
}
