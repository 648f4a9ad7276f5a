package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

var (
	// ErrLoad возвращается, когда файл конфигурации не удалось прочитать
	ErrLoad = errors.New("config: failed to load")

	// ErrInvalid возвращается, когда значения конфигурации недопустимы
	ErrInvalid = errors.New("config: invalid value")
)

// Config конфигурация сервиса
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Logs      LogsConfig      `toml:"logs"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Storage   StorageConfig   `toml:"storage"`
	Redis     RedisConfig     `toml:"redis"`
	Kafka     KafkaConfig     `toml:"kafka"`
	Outbox    OutboxConfig    `toml:"outbox"`
	Directory DirectoryConfig `toml:"directory"`
	Booking   BookingConfig   `toml:"booking"`
	Timezone  TimezoneConfig  `toml:"timezone"`
}

// ServerConfig HTTP сервер, таймауты в секундах
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"` // пусто = stdout
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// Драйверы хранилища
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type StorageConfig struct {
	Driver string `toml:"driver"`
}

// RedisConfig кеш окон доступности. При enabled = false используется кеш в памяти процесса.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	KeyPrefix  string `toml:"key_prefix"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type KafkaConfig struct {
	Enabled        bool     `toml:"enabled"`
	Brokers        []string `toml:"brokers"`
	WriteTimeoutMs int      `toml:"write_timeout_ms"`
}

type OutboxConfig struct {
	Topic          string `toml:"topic"`
	PollIntervalMs int    `toml:"poll_interval_ms"`
	BatchSize      int    `toml:"batch_size"`
}

func (c OutboxConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Режимы справочника ресурсов и услуг
const (
	DirectoryHTTP   = "http"
	DirectoryStatic = "static"
)

type DirectoryConfig struct {
	Mode     string `toml:"mode"`
	URL      string `toml:"url"`
	Timeout  int    `toml:"timeout"` // секунды
	SeedFile string `toml:"seed_file"`
}

type BookingConfig struct {
	LockTimeoutMs      int    `toml:"lock_timeout_ms"`
	DefaultGridMinutes int    `toml:"default_grid_minutes"`
	MinNoticeMinutes   int    `toml:"min_notice_minutes"`
	MaxRangeDays       int    `toml:"max_range_days"`
	InitialStatus      string `toml:"initial_status"`
}

func (c BookingConfig) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMs) * time.Millisecond
}

// TimezoneConfig политика обработки переходов на летнее/зимнее время
type TimezoneConfig struct {
	GapPolicy       string `toml:"gap_policy"`       // reject | shift_forward
	AmbiguityPolicy string `toml:"ambiguity_policy"` // first | second | reject
}

// Load читает конфигурацию из TOML файла, перекрывает её окружением (и .env рядом с файлом),
// заполняет значения по умолчанию и проверяет её
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, path, err)
	}

	if err := loadEnvFile(path); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default конфигурация без файла: хранилище в памяти, статический справочник
func Default() *Config {
	cfg := &Config{
		Storage:   StorageConfig{Driver: DriverMemory},
		Directory: DirectoryConfig{Mode: DirectoryStatic},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.HTTPPort, 8080)
	setDefault(&c.Server.ReadTimeout, 10)
	setDefault(&c.Server.WriteTimeout, 10)
	setDefault(&c.Server.IdleTimeout, 60)
	setDefault(&c.Server.ShutdownTimeout, 15)

	setDefault(&c.Database.Port, 5432)
	setDefault(&c.Database.MaxOpenConns, 25)
	setDefault(&c.Database.MaxIdleConns, 5)
	setDefault(&c.Database.ConnMaxLifetime, 300)
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "scheduling-service"
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverPostgres
	}

	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "avail"
	}
	setDefault(&c.Redis.TTLSeconds, 60)

	setDefault(&c.Kafka.WriteTimeoutMs, 5000)

	if c.Outbox.Topic == "" {
		c.Outbox.Topic = "scheduling.booking-events"
	}
	setDefault(&c.Outbox.PollIntervalMs, 1000)
	setDefault(&c.Outbox.BatchSize, 100)

	if c.Directory.Mode == "" {
		c.Directory.Mode = DirectoryHTTP
	}
	setDefault(&c.Directory.Timeout, 5)

	setDefault(&c.Booking.LockTimeoutMs, 3000)
	setDefault(&c.Booking.DefaultGridMinutes, 15)
	setDefault(&c.Booking.MaxRangeDays, 31)
	if c.Booking.InitialStatus == "" {
		c.Booking.InitialStatus = "confirmed"
	}

	if c.Timezone.GapPolicy == "" {
		c.Timezone.GapPolicy = "reject"
	}
	if c.Timezone.AmbiguityPolicy == "" {
		c.Timezone.AmbiguityPolicy = "first"
	}
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port=%d", ErrInvalid, c.Server.HTTPPort)
	}

	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("%w: database.host and database.dbname are required for postgres", ErrInvalid)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: storage.driver=%q", ErrInvalid, c.Storage.Driver)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is required when redis is enabled", ErrInvalid)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka.brokers is required when kafka is enabled", ErrInvalid)
	}

	switch c.Directory.Mode {
	case DirectoryHTTP:
		if c.Directory.URL == "" {
			return fmt.Errorf("%w: directory.url is required in http mode", ErrInvalid)
		}
	case DirectoryStatic:
	default:
		return fmt.Errorf("%w: directory.mode=%q", ErrInvalid, c.Directory.Mode)
	}

	if c.Booking.DefaultGridMinutes <= 0 || c.Booking.DefaultGridMinutes > 24*60 {
		return fmt.Errorf("%w: booking.default_grid_minutes=%d", ErrInvalid, c.Booking.DefaultGridMinutes)
	}
	if c.Booking.MinNoticeMinutes < 0 {
		return fmt.Errorf("%w: booking.min_notice_minutes=%d", ErrInvalid, c.Booking.MinNoticeMinutes)
	}
	if c.Booking.MaxRangeDays <= 0 {
		return fmt.Errorf("%w: booking.max_range_days=%d", ErrInvalid, c.Booking.MaxRangeDays)
	}
	if c.Booking.InitialStatus != "pending" && c.Booking.InitialStatus != "confirmed" {
		return fmt.Errorf("%w: booking.initial_status=%q", ErrInvalid, c.Booking.InitialStatus)
	}

	switch c.Timezone.GapPolicy {
	case "reject", "shift_forward":
	default:
		return fmt.Errorf("%w: timezone.gap_policy=%q", ErrInvalid, c.Timezone.GapPolicy)
	}
	switch c.Timezone.AmbiguityPolicy {
	case "first", "second", "reject":
	default:
		return fmt.Errorf("%w: timezone.ambiguity_policy=%q", ErrInvalid, c.Timezone.AmbiguityPolicy)
	}

	return nil
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
