package get_available_slots

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/service/timezone"
	"github.com/m04kA/SMC-SchedulingService/internal/testfixtures"
	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

const tenant = testfixtures.TenantID

type env struct {
	store *memory.Store
	clock *testfixtures.Clock
	uc    *UseCase
}

func newEnv(t *testing.T, cfg Config) *env {
	t.Helper()
	store := memory.New()
	dir := testfixtures.Directory()
	tz := timezone.NewResolver(dir, timezone.DefaultPolicy)
	avail := availability.NewService(store.Availability(), dir, tz, nil, metrics.Nop{}, logger.Nop(), 31)
	uc := NewUseCase(avail, tz, store.Bookings(), dir, metrics.Nop{}, logger.Nop(), cfg)
	clock := testfixtures.NewClock(time.Time{})
	uc.TimeProvider = clock
	return &env{store: store, clock: clock, uc: uc}
}

func (e *env) book(t *testing.T, id string, start time.Time, minutes, before, after int) *domain.Booking {
	t.Helper()
	b := &domain.Booking{
		ID: id, TenantID: tenant, CustomerID: "cust", ResourceID: testfixtures.ResourceNY, ServiceID: testfixtures.ServiceHour,
		StartAt: start, EndAt: start.Add(time.Duration(minutes) * time.Minute), BookingTZ: "America/New_York",
		BufferBeforeMinutes: before, BufferAfterMinutes: after,
		Status: domain.StatusConfirmed, AttendeeCount: 1,
		CreatedAt: testfixtures.ReferenceTime, UpdatedAt: testfixtures.ReferenceTime,
	}
	_, err := e.store.Bookings().Create(context.Background(), b)
	require.NoError(t, err)
	return b
}

func localTimes(slots []domain.AvailableSlot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.LocalTime.String())
	}
	return out
}

func mondayRequest(serviceID string, grid int) *Request {
	return &Request{
		TenantID: tenant, ResourceID: testfixtures.ResourceNY, ServiceID: serviceID,
		From: testfixtures.Monday, To: testfixtures.Monday, GridMinutes: grid,
	}
}

func TestExecute_FullDayGrid(t *testing.T) {
	e := newEnv(t, Config{DefaultGridMinutes: 15})
	testfixtures.AddWeeklyRule(t, e.store, testfixtures.ResourceNY, 1, "09:00", "17:00")

	resp, err := e.uc.Execute(context.Background(), mondayRequest(testfixtures.ServiceHour, 30))
	require.NoError(t, err)

	require.Len(t, resp.Slots, 15)
	assert.Equal(t, "America/New_York", resp.Timezone)
	assert.Equal(t, 30, resp.GridMinutes)

	first, last := resp.Slots[0], resp.Slots[14]
	assert.Equal(t, time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC), first.StartAt)
	assert.Equal(t, time.Date(2025, 1, 6, 15, 0, 0, 0, time.UTC), first.EndAt)
	assert.Equal(t, "09:00", first.LocalTime.String())
	assert.Equal(t, "2025-01-06", first.LocalDate.Format(types.DateFormat))
	assert.Equal(t, time.Date(2025, 1, 6, 21, 0, 0, 0, time.UTC), last.StartAt)
	assert.Equal(t, "16:00", last.LocalTime.String())
}

func TestExecute_DefaultGrid(t *testing.T) {
	e := newEnv(t, Config{DefaultGridMinutes: 15})
	testfixtures.AddWeeklyRule(t, e.store, testfixtures.ResourceNY, 1, "09:00", "10:00")

	resp, err := e.uc.Execute(context.Background(), mondayRequest(testfixtures.ServiceShort, 0))
	require.NoError(t, err)

	// 15 минут + 5 буфера после: старт 09:45 уже не помещается
	assert.Equal(t, 15, resp.GridMinutes)
	assert.Equal(t, []string{"09:00", "09:15", "09:30"}, localTimes(resp.Slots))
}

func TestExecute_SubtractsBusyIntervals(t *testing.T) {
	e := newEnv(t, Config{DefaultGridMinutes: 15})
	testfixtures.AddWeeklyRule(t, e.store, testfixtures.ResourceNY, 1, "09:00", "17:00")
	booking := e.book(t, "b1", time.Date(2025, 1, 6, 15, 0, 0, 0, time.UTC), 60, 0, 0)

	resp, err := e.uc.Execute(context.Background(), mondayRequest(testfixtures.ServiceHour, 30))
	require.NoError(t, err)

	assert.Equal(t, []string{"09:00", "11:00", "11:30", "12:00", "12:30", "13:00", "13:30", "14:00", "14:30", "15:00", "15:30", "16:00"},
		localTimes(resp.Slots))
	for _, s := range resp.Slots {
		assert.False(t, interval.Overlaps(interval.Span{Start: s.StartAt, End: s.EndAt}, booking.PaddedSpan()), s.LocalTime)
	}
}

func TestExecute_UsesBookingOwnBuffers(t *testing.T) {
	e := newEnv(t, Config{DefaultGridMinutes: 15})
	testfixtures.AddWeeklyRule(t, e.store, testfixtures.ResourceNY, 1, "09:00", "11:00")
	// 09:00-09:30 с буфером 30 после занимает окно до 10:00
	e.book(t, "b1", time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC), 30, 0, 30)

	resp, err := e.uc.Execute(context.Background(), mondayRequest(testfixtures.ServiceHour, 30))
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00"}, localTimes(resp.Slots))
}

func TestExecute_CandidateBuffersInsideFreeInterval(t *testing.T) {
	e := newEnv(t, Config{DefaultGridMinutes: 15})
	testfixtures.AddWeeklyRule(t, e.store, testfixtures.ResourceNY, 1, "09:00", "10:00")

	// 30 минут, 10 до и 5 после: start >= 09:10 и start + 35 <= 10:00
	resp, err := e.uc.Execute(context.Background(), mondayRequest(testfixtures.ServiceBuffered, 15))
	require.NoError(t, err)
	assert.Equal(t, []string{"09:15"}, localTimes(resp.Slots))
}

func TestExecute_MinNotice(t *testing.T) {
	e := newEnv(t, Config{DefaultGridMinutes: 15, MinNoticeMinutes: 30})
	testfixtures.AddWeeklyRule(t, e.store, testfixtures.ResourceNY, 1, "09:00", "17:00")
	// 09:20 по New York
	e.clock.Set(time.Date(2025, 1, 6, 14, 20, 0, 0, time.UTC))

	resp, err := e.uc.Execute(context.Background(), mondayRequest(testfixtures.ServiceHour, 30))
	require.NoError(t, err)
	require.Len(t, resp.Slots, 13)
	assert.Equal(t, "10:00", resp.Slots[0].LocalTime.String())
}

func TestExecute_PastRangeIsEmpty(t *testing.T) {
	e := newEnv(t, Config{DefaultGridMinutes: 15})
	testfixtures.AddWeeklyRule(t, e.store, testfixtures.ResourceNY, 1, "09:00", "17:00")
	e.clock.Set(testfixtures.Monday.AddDate(0, 0, 2))

	resp, err := e.uc.Execute(context.Background(), mondayRequest(testfixtures.ServiceHour, 30))
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
}

func TestExecute_SpringForwardGap(t *testing.T) {
	e := newEnv(t, Config{DefaultGridMinutes: 15})
	testfixtures.AddWeeklyRule(t, e.store, testfixtures.ResourceNY, 7, "01:00", "04:00")
	day := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)

	resp, err := e.uc.Execute(context.Background(), &Request{
		TenantID: tenant, ResourceID: testfixtures.ResourceNY, ServiceID: testfixtures.ServiceHour,
		From: day, To: day, GridMinutes: 30,
	})
	require.NoError(t, err)

	// окно 01:00 EST - 04:00 EDT длится два часа
	assert.Equal(t, []string{"01:00", "01:30", "03:00"}, localTimes(resp.Slots))
	assert.Equal(t, time.Date(2025, 3, 9, 6, 0, 0, 0, time.UTC), resp.Slots[0].StartAt)
	assert.Equal(t, time.Date(2025, 3, 9, 7, 0, 0, 0, time.UTC), resp.Slots[2].StartAt)
}

func TestExecute_FallBackOverlap(t *testing.T) {
	e := newEnv(t, Config{DefaultGridMinutes: 15})
	testfixtures.AddWeeklyRule(t, e.store, testfixtures.ResourceNY, 7, "01:00", "03:00")
	day := time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC)

	resp, err := e.uc.Execute(context.Background(), &Request{
		TenantID: tenant, ResourceID: testfixtures.ResourceNY, ServiceID: testfixtures.ServiceHour,
		From: day, To: day, GridMinutes: 60,
	})
	require.NoError(t, err)

	// 01:00 встречается дважды, окно начинается с первого вхождения
	assert.Equal(t, []string{"01:00", "01:00", "02:00"}, localTimes(resp.Slots))
	assert.Equal(t, time.Date(2025, 11, 2, 5, 0, 0, 0, time.UTC), resp.Slots[0].StartAt)
	assert.Equal(t, time.Date(2025, 11, 2, 6, 0, 0, 0, time.UTC), resp.Slots[1].StartAt)
}

func TestExecute_MultipleDaysSorted(t *testing.T) {
	e := newEnv(t, Config{DefaultGridMinutes: 15})
	testfixtures.AddWeeklyRule(t, e.store, testfixtures.ResourceNY, 1, "09:00", "10:00")
	testfixtures.AddWeeklyRule(t, e.store, testfixtures.ResourceNY, 2, "09:00", "10:00")

	req := mondayRequest(testfixtures.ServiceHour, 30)
	req.To = testfixtures.Monday.AddDate(0, 0, 1)
	resp, err := e.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, resp.Slots, 2)
	assert.Equal(t, "2025-01-06", resp.Slots[0].LocalDate.Format(types.DateFormat))
	assert.Equal(t, "2025-01-07", resp.Slots[1].LocalDate.Format(types.DateFormat))
}

func TestExecute_InactiveResourceHasNoSlots(t *testing.T) {
	e := newEnv(t, Config{DefaultGridMinutes: 15})
	testfixtures.AddWeeklyRule(t, e.store, testfixtures.ResourceInactive, 1, "09:00", "17:00")

	req := mondayRequest(testfixtures.ServiceHour, 30)
	req.ResourceID = testfixtures.ResourceInactive
	resp, err := e.uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
}

func TestExecute_Errors(t *testing.T) {
	e := newEnv(t, Config{DefaultGridMinutes: 15})
	ctx := context.Background()

	req := mondayRequest("missing", 30)
	_, err := e.uc.Execute(ctx, req)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	req = mondayRequest(testfixtures.ServiceInactive, 30)
	_, err = e.uc.Execute(ctx, req)
	assert.ErrorIs(t, err, ErrServiceInactive)

	req = mondayRequest(testfixtures.ServiceHour, 30)
	req.ResourceID = testfixtures.ResourceDeleted
	_, err = e.uc.Execute(ctx, req)
	assert.ErrorIs(t, err, ErrResourceNotFound)

	req = mondayRequest(testfixtures.ServiceHour, -5)
	_, err = e.uc.Execute(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidInput)

	req = mondayRequest(testfixtures.ServiceHour, 30)
	req.To = testfixtures.Monday.AddDate(0, 0, 40)
	_, err = e.uc.Execute(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidInput)

	req = mondayRequest(testfixtures.ServiceHour, 30)
	req.ServiceID = ""
	_, err = e.uc.Execute(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGenerateStarts_AnchoredAtWindowStart(t *testing.T) {
	start := time.Date(2025, 1, 6, 9, 5, 0, 0, time.UTC)
	window := interval.Span{Start: start, End: start.Add(2 * time.Hour)}
	busy := []interval.Span{{Start: start.Add(20 * time.Minute), End: start.Add(40 * time.Minute)}}

	starts := generateStarts(window, busy, slotParams{duration: 20 * time.Minute, grid: 15 * time.Minute})

	// сетка 09:05, 09:20, ... сохраняется после занятого отрезка
	want := []time.Time{start, start.Add(45 * time.Minute), start.Add(60 * time.Minute), start.Add(75 * time.Minute), start.Add(90 * time.Minute)}
	assert.Equal(t, want, starts)
}

func TestAlignToGrid(t *testing.T) {
	anchor := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	grid := 15 * time.Minute

	assert.Equal(t, anchor, alignToGrid(anchor, anchor.Add(-time.Hour), grid))
	assert.Equal(t, anchor.Add(15*time.Minute), alignToGrid(anchor, anchor.Add(time.Minute), grid))
	assert.Equal(t, anchor.Add(30*time.Minute), alignToGrid(anchor, anchor.Add(30*time.Minute), grid))
}
