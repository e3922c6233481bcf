package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_DRIVER", "JWT_TTL", "CACHE_TTL", "RATE_LIMIT_AUTH", "MAIL_SEND_ENABLED", "CORS_ALLOWED_ORIGINS", "TRUSTED_PROXIES", "TRUSTED_PLATFORM"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Zero(t, cfg.CacheTTL)
	assert.Equal(t, 10, cfg.RateLimitAuth)
	assert.False(t, cfg.MailSendEnabled)
	assert.Empty(t, cfg.CORSOrigins())
	assert.Empty(t, cfg.TrustedProxyList())
	assert.Empty(t, cfg.TrustedPlatform)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("RATE_LIMIT_USER", "not-a-number")
	t.Setenv("MAIL_SEND_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("ELASTICSEARCH_ADDRS", "http://es:9200")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.1")
	t.Setenv("TRUSTED_PLATFORM", "cloudflare")

	cfg := Load()
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 120, cfg.RateLimitUser)
	assert.True(t, cfg.MailSendEnabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
	assert.Equal(t, []string{"http://es:9200"}, cfg.ESAddrs())
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.1"}, cfg.TrustedProxyList())
	assert.Equal(t, "cloudflare", cfg.TrustedPlatform)
}

func TestValidate(t *testing.T) {
	cfg := &Config{StoreDriver: StoreMemory, JWTSecret: "s", JWTTTL: time.Hour, Env: "development"}
	require.NoError(t, cfg.Validate())

	bad := *cfg
	bad.StoreDriver = "sqlite"
	assert.ErrorContains(t, bad.Validate(), "STORE_DRIVER")

	bad = *cfg
	bad.JWTSecret = ""
	bad.JWTTTL = 0
	err := bad.Validate()
	assert.ErrorContains(t, err, "JWT_SECRET is required")
	assert.ErrorContains(t, err, "JWT_TTL must be positive")

	bad = *cfg
	bad.Env = "production"
	bad.JWTSecret = devJWTSecret
	assert.ErrorContains(t, bad.Validate(), "must be set in production")
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5432", DBName: "events", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/events?sslmode=disable", cfg.PostgresDSN())
}
