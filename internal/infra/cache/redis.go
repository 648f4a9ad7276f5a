package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// RedisOptions параметры подключения
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// Redis кеш окон доступности в Redis.
// Ключ данных содержит версию ресурса: инвалидация увеличивает версию,
// и старые записи перестают читаться, доживая свой TTL.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis подключается к Redis и проверяет соединение
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrConnect, opts.Addr, err)
	}

	return NewRedisWithClient(rdb, opts.Prefix, opts.TTL), nil
}

// NewRedisWithClient кеш поверх готового клиента
func NewRedisWithClient(rdb *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "avail"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Version текущая версия окон ресурса
func (c *Redis) Version(ctx context.Context, tenantID, resourceID string) (int64, error) {
	return c.version(ctx, tenantID, resourceID)
}

// Get окна ресурса на дату; ok = false при промахе
func (c *Redis) Get(ctx context.Context, tenantID, resourceID string, version int64, date time.Time) ([]interval.MinuteRange, bool, error) {
	raw, err := c.rdb.Get(ctx, c.dataKey(version, tenantID, resourceID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get: %v", ErrBackend, err)
	}

	var windows []interval.MinuteRange
	if err := json.Unmarshal(raw, &windows); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return windows, true, nil
}

// Set сохраняет окна ресурса на дату с TTL под ключом переданной версии.
// После инвалидации такой ключ уже не читается.
func (c *Redis) Set(ctx context.Context, tenantID, resourceID string, version int64, date time.Time, windows []interval.MinuteRange) error {
	raw, err := json.Marshal(windows)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrBackend, err)
	}
	if err := c.rdb.Set(ctx, c.dataKey(version, tenantID, resourceID, date), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set: %v", ErrBackend, err)
	}
	return nil
}

// Invalidate сбрасывает все даты ресурса
func (c *Redis) Invalidate(ctx context.Context, tenantID, resourceID string) error {
	if err := c.rdb.Incr(ctx, c.versionKey(tenantID, resourceID)).Err(); err != nil {
		return fmt.Errorf("%w: incr: %v", ErrBackend, err)
	}
	return nil
}

// Close закрывает соединение
func (c *Redis) Close() error {
	return c.rdb.Close()
}

func (c *Redis) version(ctx context.Context, tenantID, resourceID string) (int64, error) {
	v, err := c.rdb.Get(ctx, c.versionKey(tenantID, resourceID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: get version: %v", ErrBackend, err)
	}
	return v, nil
}

func (c *Redis) versionKey(tenantID, resourceID string) string {
	return fmt.Sprintf("%s:ver:%s:%s", c.prefix, tenantID, resourceID)
}

func (c *Redis) dataKey(version int64, tenantID, resourceID string, date time.Time) string {
	return fmt.Sprintf("%s:v%d:%s:%s:%s", c.prefix, version, tenantID, resourceID, date.Format(types.DateFormat))
}
