package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"SERVER_HOST", "SERVER_PORT", "SERVER_SECURE", "APP_ENV", "DEBUG",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"DB_MAX_CONNS", "DB_MIN_CONNS", "DB_MAX_CONN_LIFETIME", "DB_MAX_CONN_IDLE_TIME",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
	"MONGO_URI", "MONGO_DATABASE", "STORE_DRIVER", "JWT_SECRET", "JWT_TTL",
	"RATE_LIMIT_FRIEND_REQUESTS_PER_HOUR", "RATE_LIMIT_LOGINS_PER_MINUTE",
}

// clearEnv unsets every variable Load reads and restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		if value, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, value) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Server.Secure)
	assert.False(t, cfg.Server.Debug)
	assert.Equal(t, "development", cfg.Server.Environment)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "odinbook", cfg.Database.DBName)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.Equal(t, 5, cfg.Database.MinConns)
	assert.Equal(t, time.Hour, cfg.Database.MaxConnLifetime)
	assert.Equal(t, 30*time.Minute, cfg.Database.MaxConnIdleTime)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())

	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.NotEmpty(t, cfg.Auth.JWTSecret, "development gets a fallback secret")
	assert.Equal(t, 60, cfg.RateLimit.FriendRequestsPerHour)
	assert.Equal(t, 10, cfg.RateLimit.LoginsPerMinute)
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MONGO_DATABASE", "social")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("RATE_LIMIT_LOGINS_PER_MINUTE", "3")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, StoreDriverMongo, cfg.Store.Driver)
	assert.Equal(t, "social", cfg.Mongo.Database)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 3, cfg.RateLimit.LoginsPerMinute)
}

func TestLoad_InvalidValuesFallBackToDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("SERVER_SECURE", "maybe")
	t.Setenv("JWT_TTL", "forever")

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Server.Secure)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_UnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := LoadFile("")
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestLoad_InvalidPoolSize(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("DB_MIN_CONNS", "8")

	_, err := LoadFile("")
	assert.ErrorContains(t, err, "invalid pool size")
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := LoadFile("")
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadFile_DotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "from-environment")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_HOST=from-file\nREDIS_PORT=6380\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-environment", cfg.Database.Host, "existing variables win over .env")
	assert.Equal(t, 6380, cfg.Redis.Port)
}

func TestLoadFile_MissingFileIgnored(t *testing.T) {
	clearEnv(t)
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", DBName: "odin", SSLMode: "require",
	}
	assert.Equal(t, "postgres://u:p@db:5433/odin?sslmode=require", cfg.DSN())
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CFG_TEST_STRING", "value")
	t.Setenv("CFG_TEST_INT", "42")
	t.Setenv("CFG_TEST_BOOL", "true")
	t.Setenv("CFG_TEST_DURATION", "90s")

	assert.Equal(t, "value", getEnv("CFG_TEST_STRING", "default"))
	assert.Equal(t, "default", getEnv("CFG_TEST_UNSET", "default"))
	assert.Equal(t, 42, getEnvInt("CFG_TEST_INT", 1))
	assert.True(t, getEnvBool("CFG_TEST_BOOL", false))
	assert.Equal(t, 90*time.Second, getEnvDuration("CFG_TEST_DURATION", time.Second))
}
