package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REMEMBER_ME_EXPIRY", "")
	t.Setenv("REVIEW_EDIT_WINDOW", "not-a-duration")

	cfg := Load()
	assert.Equal(t, "secret", cfg.JWTSecret)
	assert.Equal(t, 30*24*time.Hour, cfg.RememberMeExpiry)
	assert.Equal(t, 24*time.Hour, cfg.ReviewEditWindow)
	assert.Equal(t, "test", cfg.AppEnv)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}
