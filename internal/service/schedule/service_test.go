package schedule

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/infra/cache"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule/models"
	"github.com/m04kA/SMC-SchedulingService/internal/service/timezone"
	"github.com/m04kA/SMC-SchedulingService/internal/testfixtures"
	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
	"github.com/m04kA/SMC-SchedulingService/pkg/keylock"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

const tenant = testfixtures.TenantID

type env struct {
	store        *memory.Store
	availability *availability.Service
	schedule     *Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.New()
	dir := testfixtures.Directory()
	avail := availability.NewService(store.Availability(), dir, timezone.NewResolver(dir, timezone.DefaultPolicy),
		cache.NewMemory(time.Minute), metrics.Nop{}, logger.Nop(), 31)
	svc := NewService(store.Availability(), dir, avail, keylock.NewRegistry(time.Second), store, logger.Nop())
	svc.TimeProvider = testfixtures.NewClock(time.Time{})
	return &env{store: store, availability: avail, schedule: svc}
}

func (e *env) mondayWindows(t *testing.T) []interval.MinuteRange {
	t.Helper()
	res, err := e.availability.Resolve(context.Background(), tenant, testfixtures.ResourceNY, testfixtures.Monday, testfixtures.Monday)
	require.NoError(t, err)
	return res.Days[0].Windows
}

func TestCreateRule_ValidatesInput(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := []models.CreateRuleRequest{
		{DayOfWeek: 0, StartMinute: 540, EndMinute: 600},
		{DayOfWeek: 8, StartMinute: 540, EndMinute: 600},
		{DayOfWeek: 1, StartMinute: -1, EndMinute: 600},
		{DayOfWeek: 1, StartMinute: 600, EndMinute: 600},
		{DayOfWeek: 1, StartMinute: 700, EndMinute: 600},
		{DayOfWeek: 1, StartMinute: 0, EndMinute: 1441},
	}
	for _, c := range cases {
		req := c
		req.TenantID, req.ResourceID = tenant, testfixtures.ResourceNY
		_, err := e.schedule.CreateRule(ctx, &req)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", c)
	}

	// конец суток допустим
	_, err := e.schedule.CreateRule(ctx, &models.CreateRuleRequest{TenantID: tenant, ResourceID: testfixtures.ResourceNY, DayOfWeek: 1, StartMinute: 1380, EndMinute: 1440})
	assert.NoError(t, err)
}

func TestCreateRule_RejectsOverlapAndInvalidatesCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	rule, err := e.schedule.CreateRule(ctx, &models.CreateRuleRequest{TenantID: tenant, ResourceID: testfixtures.ResourceNY, DayOfWeek: 1, StartMinute: 540, EndMinute: 720})
	require.NoError(t, err)
	assert.Equal(t, "09:00", rule.StartTime)
	assert.Equal(t, []interval.MinuteRange{{Start: 540, End: 720}}, e.mondayWindows(t))

	_, err = e.schedule.CreateRule(ctx, &models.CreateRuleRequest{TenantID: tenant, ResourceID: testfixtures.ResourceNY, DayOfWeek: 1, StartMinute: 600, EndMinute: 780})
	assert.ErrorIs(t, err, ErrRuleOverlap)

	// смежное правило объединяется с первым, кеш сброшен записью
	_, err = e.schedule.CreateRule(ctx, &models.CreateRuleRequest{TenantID: tenant, ResourceID: testfixtures.ResourceNY, DayOfWeek: 1, StartMinute: 720, EndMinute: 1020})
	require.NoError(t, err)
	assert.Equal(t, []interval.MinuteRange{{Start: 540, End: 1020}}, e.mondayWindows(t))

	require.NoError(t, e.schedule.DeleteRule(ctx, tenant, testfixtures.ResourceNY, rule.ID))
	assert.Equal(t, []interval.MinuteRange{{Start: 720, End: 1020}}, e.mondayWindows(t))

	assert.ErrorIs(t, e.schedule.DeleteRule(ctx, tenant, testfixtures.ResourceNY, rule.ID), ErrRuleNotFound)
}

func TestCreateRule_UnknownResource(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, id := range []string{"missing", testfixtures.ResourceDeleted, testfixtures.ResourceOther} {
		_, err := e.schedule.CreateRule(ctx, &models.CreateRuleRequest{TenantID: tenant, ResourceID: id, DayOfWeek: 1, StartMinute: 540, EndMinute: 600})
		assert.ErrorIs(t, err, ErrResourceNotFound, id)
	}
}

func TestCreateException_ClosureAndReplacement(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.schedule.CreateRule(ctx, &models.CreateRuleRequest{TenantID: tenant, ResourceID: testfixtures.ResourceNY, DayOfWeek: 1, StartMinute: 540, EndMinute: 1020})
	require.NoError(t, err)
	require.NotEmpty(t, e.mondayWindows(t))

	_, err = e.schedule.CreateException(ctx, &models.CreateExceptionRequest{TenantID: tenant, ResourceID: testfixtures.ResourceNY, Date: "2025-01-06", StartMinute: ptr.Ptr(600)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.schedule.CreateException(ctx, &models.CreateExceptionRequest{TenantID: tenant, ResourceID: testfixtures.ResourceNY, Date: "06.01.2025"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	closure, err := e.schedule.CreateException(ctx, &models.CreateExceptionRequest{TenantID: tenant, ResourceID: testfixtures.ResourceNY, Date: "2025-01-06", Description: "holiday"})
	require.NoError(t, err)
	assert.True(t, closure.Closed)
	assert.Empty(t, e.mondayWindows(t))

	_, err = e.schedule.CreateException(ctx, &models.CreateExceptionRequest{TenantID: tenant, ResourceID: testfixtures.ResourceNY, Date: "2025-01-06", StartMinute: ptr.Ptr(600), EndMinute: ptr.Ptr(660)})
	assert.ErrorIs(t, err, ErrExceptionExists)

	require.NoError(t, e.schedule.DeleteException(ctx, tenant, testfixtures.ResourceNY, closure.ID))
	assert.ErrorIs(t, e.schedule.DeleteException(ctx, tenant, testfixtures.ResourceNY, closure.ID), ErrExceptionNotFound)

	_, err = e.schedule.CreateException(ctx, &models.CreateExceptionRequest{TenantID: tenant, ResourceID: testfixtures.ResourceNY, Date: "2025-01-06", StartMinute: ptr.Ptr(600), EndMinute: ptr.Ptr(660)})
	require.NoError(t, err)
	assert.Equal(t, []interval.MinuteRange{{Start: 600, End: 660}}, e.mondayWindows(t))
}

func TestCreateTimeBlock_CreatesRuleWithBreak(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	block, err := e.schedule.CreateTimeBlock(ctx, &models.CreateTimeBlockRequest{
		TenantID: tenant, ResourceID: testfixtures.ResourceNY, DayOfWeek: 1,
		StartTime: "09:00", EndTime: "17:00", BreakStart: ptr.Ptr("12:00"), BreakEnd: ptr.Ptr("13:00"),
		Recurring: true, Color: "#00aaff", StaffName: "Anna", StaffRole: "stylist",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, block.RuleID)
	assert.Equal(t, []interval.MinuteRange{{Start: 540, End: 720}, {Start: 780, End: 1020}}, e.mondayWindows(t))

	rules, err := e.schedule.ListRules(ctx, tenant, testfixtures.ResourceNY)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, block.RuleID, rules[0].ID)

	blocks, err := e.schedule.ListTimeBlocks(ctx, tenant, testfixtures.ResourceNY)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "12:00", *blocks[0].BreakStart)

	// второй блок на тот же день пересекается с правилом первого
	_, err = e.schedule.CreateTimeBlock(ctx, &models.CreateTimeBlockRequest{TenantID: tenant, ResourceID: testfixtures.ResourceNY, DayOfWeek: 1, StartTime: "16:00", EndTime: "18:00"})
	assert.ErrorIs(t, err, ErrRuleOverlap)

	// удаление правила удаляет блок
	require.NoError(t, e.schedule.DeleteRule(ctx, tenant, testfixtures.ResourceNY, block.RuleID))
	blocks, err = e.schedule.ListTimeBlocks(ctx, tenant, testfixtures.ResourceNY)
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestCreateTimeBlock_ValidatesBreak(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := []models.CreateTimeBlockRequest{
		{DayOfWeek: 1, StartTime: "9:00", EndTime: "17:00"},
		{DayOfWeek: 1, StartTime: "17:00", EndTime: "09:00"},
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", BreakStart: ptr.Ptr("12:00")},
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", BreakStart: ptr.Ptr("08:00"), BreakEnd: ptr.Ptr("10:00")},
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", BreakStart: ptr.Ptr("13:00"), BreakEnd: ptr.Ptr("12:00")},
	}
	for _, c := range cases {
		req := c
		req.TenantID, req.ResourceID = tenant, testfixtures.ResourceNY
		_, err := e.schedule.CreateTimeBlock(ctx, &req)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", c)
	}

	rules, err := e.schedule.ListRules(ctx, tenant, testfixtures.ResourceNY)
	require.NoError(t, err)
	assert.Empty(t, rules)
}
