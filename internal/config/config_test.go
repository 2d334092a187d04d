package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_USER", "testuser")
		t.Setenv("DB_PASSWORD", "testpass")
		t.Setenv("DB_NAME", "testdb")
		t.Setenv("DB_PORT", "5432")
		t.Setenv("APP_PORT", "9090")
		t.Setenv("APP_ENV", "test")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("JWT_TTL", "2h")
		t.Setenv("REDIS_URL", "redis://cache:6379/1")

		cfg := LoadConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "testuser", cfg.DBUser)
		assert.Equal(t, "testpass", cfg.DBPassword)
		assert.Equal(t, "testdb", cfg.DBName)
		assert.Equal(t, "5432", cfg.DBPort)
		assert.Equal(t, "9090", cfg.AppPort)
		assert.Equal(t, "test", cfg.AppEnv)
		assert.Equal(t, "secret", cfg.JWTSecret)
		assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
		assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("APP_PORT", "")
		t.Setenv("DB_SSLMODE", "")
		t.Setenv("JWT_TTL", "not-a-duration")
		t.Setenv("CART_TTL", "")

		cfg := LoadConfig()

		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, "disable", cfg.DBSSLMode)
		assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
		assert.Equal(t, 30*24*time.Hour, cfg.CartTTL)
		assert.Equal(t, "http://localhost:3000", cfg.CORSOrigin)
	})
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{JWTSecret: "s", JWTTTL: time.Hour}
	assert.NoError(t, cfg.Validate())

	cfg.JWTSecret = ""
	assert.EqualError(t, cfg.Validate(), "JWT_SECRET is not set")

	cfg.JWTSecret = "s"
	cfg.JWTTTL = 0
	assert.Error(t, cfg.Validate())
}
