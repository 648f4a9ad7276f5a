package cache

import "errors"

var (
	// ErrConnect возвращается, когда Redis недоступен при старте
	ErrConnect = errors.New("cache: failed to connect to redis")

	// ErrBackend возвращается при ошибке чтения или записи в Redis
	ErrBackend = errors.New("cache: backend error")

	// ErrCorrupted возвращается, когда значение в кеше не удалось разобрать
	ErrCorrupted = errors.New("cache: corrupted entry")
)
