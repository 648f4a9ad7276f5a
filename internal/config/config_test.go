package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[storage]
driver = "memory"

[directory]
mode = "static"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 3*time.Second, cfg.Booking.LockTimeout())
	assert.Equal(t, 15, cfg.Booking.DefaultGridMinutes)
	assert.Equal(t, 31, cfg.Booking.MaxRangeDays)
	assert.Equal(t, "confirmed", cfg.Booking.InitialStatus)
	assert.Equal(t, "reject", cfg.Timezone.GapPolicy)
	assert.Equal(t, "first", cfg.Timezone.AmbiguityPolicy)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_ReadsSections(t *testing.T) {
	path := writeConfig(t, `
[server]
http_port = 9090

[database]
host = "db"
dbname = "scheduling"
user = "app"
password = "secret"

[kafka]
enabled = true
brokers = ["k1:9092", "k2:9092"]

[booking]
lock_timeout_ms = 500
initial_status = "pending"

[timezone]
gap_policy = "shift_forward"
ambiguity_policy = "second"

[directory]
url = "http://directory:8080"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=scheduling sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 500*time.Millisecond, cfg.Booking.LockTimeout())
	assert.Equal(t, "pending", cfg.Booking.InitialStatus)
	assert.Equal(t, "shift_forward", cfg.Timezone.GapPolicy)
	assert.Equal(t, DirectoryHTTP, cfg.Directory.Mode)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", "[storage]\ndriver = \"sqlite\"\n[directory]\nmode = \"static\""},
		{"postgres without host", "[storage]\ndriver = \"postgres\"\n[directory]\nmode = \"static\""},
		{"bad gap policy", "[storage]\ndriver = \"memory\"\n[directory]\nmode = \"static\"\n[timezone]\ngap_policy = \"guess\""},
		{"bad initial status", "[storage]\ndriver = \"memory\"\n[directory]\nmode = \"static\"\n[booking]\ninitial_status = \"completed\""},
		{"http directory without url", "[storage]\ndriver = \"memory\""},
		{"kafka without brokers", "[storage]\ndriver = \"memory\"\n[directory]\nmode = \"static\"\n[kafka]\nenabled = true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, ErrLoad)
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		// t.Setenv восстанавливает исходное значение после теста
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	unsetEnv(t, EnvDatabaseHost, EnvDatabasePassword, EnvKafkaBrokers)
	t.Setenv(EnvDatabasePassword, "from-env")
	t.Setenv(EnvKafkaBrokers, "a:9092, b:9092,")

	path := writeConfig(t, `
[database]
host = "db"
dbname = "scheduling"
password = "from-file"

[directory]
mode = "static"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_ReadsDotEnvNextToConfig(t *testing.T) {
	unsetEnv(t, EnvDatabaseHost, EnvDatabaseName)

	path := writeConfig(t, "[directory]\nmode = \"static\"\n")
	dotenv := filepath.Join(filepath.Dir(path), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte(EnvDatabaseHost+"=pg\n"+EnvDatabaseName+"=sched\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pg", cfg.Database.Host)
	assert.Equal(t, "sched", cfg.Database.DBName)
}

func TestLoad_EnvNotANumber(t *testing.T) {
	t.Setenv(EnvHTTPPort, "eighty")
	_, err := Load(writeConfig(t, "[storage]\ndriver = \"memory\"\n[directory]\nmode = \"static\"\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}
