package availability

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/cache"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SchedulingService/internal/service/timezone"
	"github.com/m04kA/SMC-SchedulingService/internal/testfixtures"
	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

const tenant = testfixtures.TenantID

func newService(store *memory.Store, c WindowCache) *Service {
	dir := testfixtures.Directory()
	return NewService(store.Availability(), dir, timezone.NewResolver(dir, timezone.DefaultPolicy), c, metrics.Nop{}, logger.Nop(), 31)
}

func TestResolve_MergesRulesOfWeekday(t *testing.T) {
	store := memory.New()
	testfixtures.AddWeeklyRule(t, store, testfixtures.ResourceNY, 1, "09:00", "12:00")
	testfixtures.AddWeeklyRule(t, store, testfixtures.ResourceNY, 1, "12:00", "17:00")
	testfixtures.AddWeeklyRule(t, store, testfixtures.ResourceNY, 2, "10:00", "11:00")

	res, err := newService(store, nil).Resolve(context.Background(), tenant, testfixtures.ResourceNY, testfixtures.Monday, testfixtures.Monday.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, res.Days, 3)

	assert.Equal(t, 1, res.Days[0].Weekday)
	assert.Equal(t, "America/New_York", res.Days[0].Timezone)
	assert.Equal(t, []interval.MinuteRange{{Start: 540, End: 1020}}, res.Days[0].Windows)
	assert.Equal(t, []interval.MinuteRange{{Start: 600, End: 660}}, res.Days[1].Windows)
	// среда без правил: пустой список, не ошибка
	assert.Empty(t, res.Days[2].Windows)
}

func TestResolve_ExceptionReplacesRules(t *testing.T) {
	store := memory.New()
	testfixtures.AddWeeklyRule(t, store, testfixtures.ResourceNY, 1, "09:00", "17:00")
	ctx := context.Background()

	closed := testfixtures.Monday.AddDate(0, 0, 7)
	_, err := store.Availability().CreateException(ctx, &domain.AvailabilityException{ID: "closed", TenantID: tenant, ResourceID: testfixtures.ResourceNY, Date: closed})
	require.NoError(t, err)

	short := testfixtures.Monday.AddDate(0, 0, 14)
	_, err = store.Availability().CreateException(ctx, &domain.AvailabilityException{
		ID: "short", TenantID: tenant, ResourceID: testfixtures.ResourceNY, Date: short,
		StartMinute: ptr.Ptr(13 * 60), EndMinute: ptr.Ptr(15 * 60),
	})
	require.NoError(t, err)

	res, err := newService(store, nil).Resolve(ctx, tenant, testfixtures.ResourceNY, testfixtures.Monday, short)
	require.NoError(t, err)

	byDate := map[string][]interval.MinuteRange{}
	for _, d := range res.Days {
		byDate[d.Date.Format(types.DateFormat)] = d.Windows
	}
	assert.Equal(t, []interval.MinuteRange{{Start: 540, End: 1020}}, byDate["2025-01-06"])
	assert.Empty(t, byDate["2025-01-13"])
	assert.Equal(t, []interval.MinuteRange{{Start: 780, End: 900}}, byDate["2025-01-20"])
}

func TestResolve_BreakSplitsWindow(t *testing.T) {
	store := memory.New()
	rule := testfixtures.AddWeeklyRule(t, store, testfixtures.ResourceNY, 1, "09:00", "17:00")
	_, err := store.Availability().CreateTimeBlock(context.Background(), &domain.TimeBlock{
		ID: "tb", TenantID: tenant, ResourceID: testfixtures.ResourceNY, RuleID: rule.ID, DayOfWeek: 1,
		StartTime: "09:00", EndTime: "17:00",
		BreakStart: ptr.Ptr(types.TimeString("12:00")), BreakEnd: ptr.Ptr(types.TimeString("13:00")),
		Recurring: true,
	})
	require.NoError(t, err)

	res, err := newService(store, nil).Resolve(context.Background(), tenant, testfixtures.ResourceNY, testfixtures.Monday, testfixtures.Monday)
	require.NoError(t, err)
	assert.Equal(t, []interval.MinuteRange{{Start: 540, End: 720}, {Start: 780, End: 1020}}, res.Days[0].Windows)
}

func TestResolve_ResourceErrors(t *testing.T) {
	store := memory.New()
	svc := newService(store, nil)
	ctx := context.Background()
	day := testfixtures.Monday

	for _, id := range []string{"missing", testfixtures.ResourceDeleted, testfixtures.ResourceOther} {
		_, err := svc.Resolve(ctx, tenant, id, day, day)
		assert.ErrorIs(t, err, ErrResourceNotFound, id)
	}

	testfixtures.AddWeeklyRule(t, store, testfixtures.ResourceInactive, 1, "09:00", "17:00")
	res, err := svc.Resolve(ctx, tenant, testfixtures.ResourceInactive, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, res.Days, 2)
	for _, d := range res.Days {
		assert.Empty(t, d.Windows)
	}
}

func TestResolve_RangeValidation(t *testing.T) {
	svc := newService(memory.New(), nil)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, tenant, testfixtures.ResourceNY, testfixtures.Monday, testfixtures.Monday.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Resolve(ctx, tenant, testfixtures.ResourceNY, testfixtures.Monday, testfixtures.Monday.AddDate(0, 0, 32))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Resolve(ctx, tenant, testfixtures.ResourceNY, testfixtures.Monday, testfixtures.Monday.AddDate(0, 0, 31))
	assert.NoError(t, err)
}

func TestResolve_UsesAndInvalidatesCache(t *testing.T) {
	store := memory.New()
	testfixtures.AddWeeklyRule(t, store, testfixtures.ResourceNY, 1, "09:00", "17:00")
	windowCache := cache.NewMemory(time.Minute)
	svc := newService(store, windowCache)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, tenant, testfixtures.ResourceNY, testfixtures.Monday, testfixtures.Monday)
	require.NoError(t, err)

	version, err := windowCache.Version(ctx, tenant, testfixtures.ResourceNY)
	require.NoError(t, err)
	cached, ok, err := windowCache.Get(ctx, tenant, testfixtures.ResourceNY, version, testfixtures.Monday)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []interval.MinuteRange{{Start: 540, End: 1020}}, cached)

	// запись мимо сервиса не видна до инвалидации
	_, err = store.Availability().CreateException(ctx, &domain.AvailabilityException{ID: "x", TenantID: tenant, ResourceID: testfixtures.ResourceNY, Date: testfixtures.Monday})
	require.NoError(t, err)
	res, err := svc.Resolve(ctx, tenant, testfixtures.ResourceNY, testfixtures.Monday, testfixtures.Monday)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Days[0].Windows)

	svc.Invalidate(ctx, tenant, testfixtures.ResourceNY)
	res, err = svc.Resolve(ctx, tenant, testfixtures.ResourceNY, testfixtures.Monday, testfixtures.Monday)
	require.NoError(t, err)
	assert.Empty(t, res.Days[0].Windows)
}

// writeDuringLoad имитирует запись правил между чтением источников и записью в кеш
type writeDuringLoad struct {
	Repository
	afterLoad func(ctx context.Context)
}

// блоки читаются последними
func (r *writeDuringLoad) ListTimeBlocks(ctx context.Context, tenantID, resourceID string) ([]*domain.TimeBlock, error) {
	blocks, err := r.Repository.ListTimeBlocks(ctx, tenantID, resourceID)
	if r.afterLoad != nil {
		r.afterLoad(ctx)
		r.afterLoad = nil
	}
	return blocks, err
}

func TestResolve_InvalidationDuringLoadIsNotOverwritten(t *testing.T) {
	store := memory.New()
	testfixtures.AddWeeklyRule(t, store, testfixtures.ResourceNY, 1, "09:00", "17:00")
	dir := testfixtures.Directory()
	repo := &writeDuringLoad{Repository: store.Availability()}
	svc := NewService(repo, dir, timezone.NewResolver(dir, timezone.DefaultPolicy), cache.NewMemory(time.Minute), metrics.Nop{}, logger.Nop(), 31)
	ctx := context.Background()

	repo.afterLoad = func(ctx context.Context) {
		_, err := store.Availability().CreateException(ctx, &domain.AvailabilityException{ID: "x", TenantID: tenant, ResourceID: testfixtures.ResourceNY, Date: testfixtures.Monday})
		require.NoError(t, err)
		svc.Invalidate(ctx, tenant, testfixtures.ResourceNY)
	}

	// первый расчет начался до записи и видит старые правила
	first, err := svc.Resolve(ctx, tenant, testfixtures.ResourceNY, testfixtures.Monday, testfixtures.Monday)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Days[0].Windows)

	res, err := svc.Resolve(ctx, tenant, testfixtures.ResourceNY, testfixtures.Monday, testfixtures.Monday)
	require.NoError(t, err)
	assert.Empty(t, res.Days[0].Windows)
}

type failingCache struct{}

func (failingCache) Version(context.Context, string, string) (int64, error) {
	return 0, errors.New("redis down")
}
func (failingCache) Get(context.Context, string, string, int64, time.Time) ([]interval.MinuteRange, bool, error) {
	return nil, false, errors.New("redis down")
}
func (failingCache) Set(context.Context, string, string, int64, time.Time, []interval.MinuteRange) error {
	return errors.New("redis down")
}
func (failingCache) Invalidate(context.Context, string, string) error { return errors.New("redis down") }

func TestResolve_CacheFailureDegrades(t *testing.T) {
	store := memory.New()
	testfixtures.AddWeeklyRule(t, store, testfixtures.ResourceNY, 1, "09:00", "17:00")
	svc := newService(store, failingCache{})

	res, err := svc.Resolve(context.Background(), tenant, testfixtures.ResourceNY, testfixtures.Monday, testfixtures.Monday)
	require.NoError(t, err)
	assert.Equal(t, []interval.MinuteRange{{Start: 540, End: 1020}}, res.Days[0].Windows)
}

func TestExpand_SkipsMalformedRecords(t *testing.T) {
	rules := []*domain.AvailabilityRule{
		{ID: "ok", DayOfWeek: 1, StartMinute: 540, EndMinute: 600},
		{ID: "bad", DayOfWeek: 1, StartMinute: 700, EndMinute: 650},
	}
	partial := &domain.AvailabilityException{ID: "partial", Date: testfixtures.Monday, StartMinute: ptr.Ptr(60)}

	windows := Expand(testfixtures.Monday, rules, partial, nil, logger.Nop())
	assert.Equal(t, []interval.MinuteRange{{Start: 540, End: 600}}, windows)
}

// Каждое окно лежит внутри одного из правил своего дня недели
func TestExpand_WindowsStayInsideRules(t *testing.T) {
	rules := []*domain.AvailabilityRule{}
	for day := 1; day <= 7; day++ {
		rules = append(rules,
			&domain.AvailabilityRule{ID: "a", DayOfWeek: day, StartMinute: day * 30, EndMinute: day*30 + 200},
			&domain.AvailabilityRule{ID: "b", DayOfWeek: day, StartMinute: 900, EndMinute: 1439},
		)
	}

	for _, date := range types.DaysBetween(testfixtures.Monday, testfixtures.Monday.AddDate(0, 0, 6)) {
		weekday := types.ISOWeekday(date)
		for _, w := range Expand(date, rules, nil, nil, logger.Nop()) {
			inside := false
			for _, r := range rules {
				if r.DayOfWeek == weekday && r.Range().Contains(w) {
					inside = true
				}
			}
			assert.True(t, inside, "window %v on %s", w, date.Format(types.DateFormat))
		}
	}
}
