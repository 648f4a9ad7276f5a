package timezone

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/directory"
	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Directory источник зон ресурса и tenant
type Directory interface {
	GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
	GetResource(ctx context.Context, resourceID string) (*domain.Resource, error)
}

// GapPolicy обработка несуществующего локального времени
type GapPolicy string

const (
	GapReject       GapPolicy = "reject"
	GapShiftForward GapPolicy = "shift_forward" // момент перехода
)

// AmbiguityPolicy обработка локального времени, встречающегося дважды
type AmbiguityPolicy string

const (
	AmbiguityFirst  AmbiguityPolicy = "first"
	AmbiguitySecond AmbiguityPolicy = "second"
	AmbiguityReject AmbiguityPolicy = "reject"
)

// Policy явная политика для переходов на летнее/зимнее время
type Policy struct {
	Gap       GapPolicy
	Ambiguity AmbiguityPolicy
}

// DefaultPolicy отклоняет несуществующее время, неоднозначное разрешает в первое вхождение
var DefaultPolicy = Policy{Gap: GapReject, Ambiguity: AmbiguityFirst}

// WallClock локальное представление момента времени
type WallClock struct {
	Date        time.Time // календарная дата, UTC полночь
	MinuteOfDay int
	TZName      string
}

// Resolver переводит минуты суток правил в абсолютное время и обратно.
// Смещения всегда берутся из базы IANA на конкретную дату.
type Resolver struct {
	directory Directory
	policy    Policy
	locations sync.Map // имя зоны -> *time.Location
}

// NewResolver создает резолвер с указанной политикой
func NewResolver(dir Directory, policy Policy) *Resolver {
	if policy.Gap == "" {
		policy.Gap = DefaultPolicy.Gap
	}
	if policy.Ambiguity == "" {
		policy.Ambiguity = DefaultPolicy.Ambiguity
	}
	return &Resolver{directory: dir, policy: policy}
}

// Policy текущая политика
func (r *Resolver) Policy() Policy {
	return r.policy
}

// LoadLocation загружает зону по имени с кешированием
func (r *Resolver) LoadLocation(name string) (*time.Location, error) {
	if cached, ok := r.locations.Load(name); ok {
		return cached.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnknownTimezone, name, err)
	}
	r.locations.Store(name, loc)
	return loc, nil
}

// Location зона ресурса, иначе зона tenant
func (r *Resolver) Location(ctx context.Context, resource *domain.Resource) (*time.Location, error) {
	if resource.Timezone != "" {
		return r.LoadLocation(resource.Timezone)
	}

	tenant, err := r.directory.GetTenant(ctx, resource.TenantID)
	if err != nil {
		if errors.Is(err, directory.ErrTenantNotFound) {
			return nil, fmt.Errorf("%w: tenant %s not found", ErrNoTimezone, resource.TenantID)
		}
		return nil, fmt.Errorf("%w: failed to get tenant %s: %v", ErrInternal, resource.TenantID, err)
	}
	if tenant.Timezone == "" {
		return nil, ErrNoTimezone
	}
	return r.LoadLocation(tenant.Timezone)
}

// ToAbsolute переводит локальную точку (дата + минута суток) ресурса в UTC
func (r *Resolver) ToAbsolute(ctx context.Context, resourceID string, date time.Time, minuteOfDay int) (time.Time, error) {
	loc, err := r.resourceLocation(ctx, resourceID)
	if err != nil {
		return time.Time{}, err
	}
	return r.PointToAbsolute(loc, date, minuteOfDay)
}

// ToWallClock переводит момент времени в локальные дату и минуту суток ресурса
func (r *Resolver) ToWallClock(ctx context.Context, resourceID string, instant time.Time) (WallClock, error) {
	loc, err := r.resourceLocation(ctx, resourceID)
	if err != nil {
		return WallClock{}, err
	}
	return WallClockIn(loc, instant), nil
}

// PointToAbsolute переводит локальную точку в UTC, применяя политику для переходов
func (r *Resolver) PointToAbsolute(loc *time.Location, date time.Time, minuteOfDay int) (time.Time, error) {
	candidates, transition, err := resolve(loc, date, minuteOfDay)
	if err != nil {
		return time.Time{}, err
	}

	switch len(candidates) {
	case 0:
		if r.policy.Gap == GapShiftForward {
			return transition, nil
		}
		return time.Time{}, fmt.Errorf("%w: %s %s in %s", ErrTimezoneGap,
			date.Format(types.DateFormat), minuteLabel(minuteOfDay), loc.String())
	case 1:
		return candidates[0], nil
	default:
		switch r.policy.Ambiguity {
		case AmbiguitySecond:
			return candidates[len(candidates)-1], nil
		case AmbiguityReject:
			return time.Time{}, fmt.Errorf("%w: %s %s in %s", ErrTimezoneAmbiguous,
				date.Format(types.DateFormat), minuteLabel(minuteOfDay), loc.String())
		default:
			return candidates[0], nil
		}
	}
}

// WindowToAbsolute переводит границы окна в UTC.
// Граница в несуществующем времени отображается в момент перехода, неоднозначная
// граница разрешается в первое вхождение (второе при политике second).
func (r *Resolver) WindowToAbsolute(loc *time.Location, date time.Time, window interval.MinuteRange) (interval.Span, error) {
	start, err := r.boundary(loc, date, window.Start)
	if err != nil {
		return interval.Span{}, err
	}
	end, err := r.boundary(loc, date, window.End)
	if err != nil {
		return interval.Span{}, err
	}
	return interval.Span{Start: start, End: end}, nil
}

func (r *Resolver) boundary(loc *time.Location, date time.Time, minute int) (time.Time, error) {
	candidates, transition, err := resolve(loc, date, minute)
	if err != nil {
		return time.Time{}, err
	}
	switch {
	case len(candidates) == 0:
		return transition, nil
	case r.policy.Ambiguity == AmbiguitySecond:
		return candidates[len(candidates)-1], nil
	default:
		return candidates[0], nil
	}
}

func (r *Resolver) resourceLocation(ctx context.Context, resourceID string) (*time.Location, error) {
	resource, err := r.directory.GetResource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, directory.ErrResourceNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("%w: failed to get resource %s: %v", ErrInternal, resourceID, err)
	}
	if resource.IsDeleted() {
		return nil, ErrResourceNotFound
	}
	return r.Location(ctx, resource)
}

// WallClockIn локальные дата и минута суток момента в зоне loc
func WallClockIn(loc *time.Location, instant time.Time) WallClock {
	local := instant.In(loc)
	return WallClock{
		Date:        time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
		MinuteOfDay: local.Hour()*60 + local.Minute(),
		TZName:      loc.String(),
	}
}

// resolve возвращает все моменты, которые в зоне loc показывают date + minute, по возрастанию.
// Пустой результат означает разрыв; тогда transition момент перехода внутри разрыва.
func resolve(loc *time.Location, date time.Time, minute int) (candidates []time.Time, transition time.Time, err error) {
	if minute < 0 || minute > interval.MinutesPerDay {
		return nil, time.Time{}, fmt.Errorf("%w: %d", ErrInvalidMinute, minute)
	}

	// Локальное время как если бы зона была UTC; minute = 1440 нормализуется в полночь следующего дня
	y, m, d := date.Date()
	wall := time.Date(y, m, d, 0, minute, 0, 0, time.UTC)

	offsets := distinctOffsets(loc, wall)
	for _, off := range offsets {
		c := wall.Add(-time.Duration(off) * time.Second)
		if sameWallClock(c.In(loc), wall) {
			candidates = append(candidates, c.UTC())
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Before(candidates[j]) })
	candidates = dedup(candidates)

	if len(candidates) > 0 {
		return candidates, time.Time{}, nil
	}

	minOff, maxOff := offsets[0], offsets[len(offsets)-1]
	lo := wall.Add(-time.Duration(maxOff) * time.Second).Unix()
	hi := wall.Add(-time.Duration(minOff) * time.Second).Unix()
	return nil, findTransition(loc, lo, hi).UTC(), nil
}

// distinctOffsets смещения зоны в окрестности суток вокруг wall, по возрастанию
func distinctOffsets(loc *time.Location, wall time.Time) []int {
	seen := make(map[int]struct{}, 3)
	var offsets []int
	for _, probe := range []time.Duration{-24 * time.Hour, -12 * time.Hour, 0, 12 * time.Hour, 24 * time.Hour} {
		_, off := wall.Add(probe).In(loc).Zone()
		if _, ok := seen[off]; !ok {
			seen[off] = struct{}{}
			offsets = append(offsets, off)
		}
	}
	sort.Ints(offsets)
	return offsets
}

// findTransition первый момент в (lo, hi], где смещение отличается от смещения в lo
func findTransition(loc *time.Location, lo, hi int64) time.Time {
	_, base := time.Unix(lo, 0).In(loc).Zone()
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if _, off := time.Unix(mid, 0).In(loc).Zone(); off == base {
			lo = mid
		} else {
			hi = mid
		}
	}
	return time.Unix(hi, 0)
}

func sameWallClock(local, wall time.Time) bool {
	return local.Year() == wall.Year() && local.Month() == wall.Month() && local.Day() == wall.Day() &&
		local.Hour() == wall.Hour() && local.Minute() == wall.Minute()
}

func dedup(ts []time.Time) []time.Time {
	if len(ts) < 2 {
		return ts
	}
	out := ts[:1]
	for _, t := range ts[1:] {
		if !t.Equal(out[len(out)-1]) {
			out = append(out, t)
		}
	}
	return out
}

func minuteLabel(minute int) string {
	ts, err := types.FromMinutes(minute)
	if err != nil {
		return fmt.Sprintf("minute %d", minute)
	}
	return ts.String()
}
