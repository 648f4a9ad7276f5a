package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Переменные окружения, перекрывающие значения из TOML.
// Секреты не обязаны лежать в config.toml.
const (
	EnvDatabaseHost     = "SCHEDULING_DB_HOST"
	EnvDatabasePort     = "SCHEDULING_DB_PORT"
	EnvDatabaseUser     = "SCHEDULING_DB_USER"
	EnvDatabasePassword = "SCHEDULING_DB_PASSWORD"
	EnvDatabaseName     = "SCHEDULING_DB_NAME"
	EnvRedisAddr        = "SCHEDULING_REDIS_ADDR"
	EnvRedisPassword    = "SCHEDULING_REDIS_PASSWORD"
	EnvKafkaBrokers     = "SCHEDULING_KAFKA_BROKERS" // через запятую
	EnvDirectoryURL     = "SCHEDULING_DIRECTORY_URL"
	EnvHTTPPort         = "SCHEDULING_HTTP_PORT"
)

// loadEnvFile подгружает .env рядом с файлом конфигурации; отсутствие файла не ошибка.
// Уже заданные переменные окружения не перезаписываются.
func loadEnvFile(configPath string) error {
	path := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %s: %v", ErrLoad, path, err)
	}
	return nil
}

// applyEnv перекрывает значения конфигурации переменными окружения
func (c *Config) applyEnv() error {
	setString(&c.Database.Host, EnvDatabaseHost)
	setString(&c.Database.User, EnvDatabaseUser)
	setString(&c.Database.Password, EnvDatabasePassword)
	setString(&c.Database.DBName, EnvDatabaseName)
	setString(&c.Redis.Addr, EnvRedisAddr)
	setString(&c.Redis.Password, EnvRedisPassword)
	setString(&c.Directory.URL, EnvDirectoryURL)

	if err := setInt(&c.Database.Port, EnvDatabasePort); err != nil {
		return err
	}
	if err := setInt(&c.Server.HTTPPort, EnvHTTPPort); err != nil {
		return err
	}

	if v, ok := os.LookupEnv(EnvKafkaBrokers); ok && v != "" {
		brokers := make([]string, 0)
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Kafka.Brokers = brokers
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, key, v)
	}
	*dst = n
	return nil
}
