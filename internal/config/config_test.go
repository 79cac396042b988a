package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/phonehub/internal/tokens"
	"github.com/Skotchmaster/phonehub/pkg/authclient"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{
		"APP_ENV", "JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"DEV_ACCESS_TOKEN_TTL", "DEV_REFRESH_TOKEN_TTL", "DATABASE_URL", "SERVER_PORT",
		"LOG_LEVEL", "GOOGLE_CLIENT_ID", "GOOGLE_TOKENINFO_URL", "KAFKA_BROKERS",
		"KAFKA_AUTH_TOPIC", "DEFAULT_ROLE_ID", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, tokens.ProductionProfile, cfg.Production)
	assert.Equal(t, tokens.DevelopmentProfile, cfg.Development)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, authclient.DefaultTokenInfoURL, cfg.GoogleTokenInfoURL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "auth_events", cfg.KafkaAuthTopic)
	assert.Equal(t, uint(3), cfg.DefaultRoleID)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("DEV_ACCESS_TOKEN_TTL", "10s")
	t.Setenv("SERVER_PORT", ":9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("DEFAULT_ROLE_ID", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg := FromEnv()

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, 5*time.Minute, cfg.Production.AccessTTL)
	assert.Equal(t, 10*time.Second, cfg.Development.AccessTTL)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, uint(2), cfg.DefaultRoleID)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)

	tc := cfg.Tokens()
	assert.Equal(t, cfg.JWTSecret, tc.Secret)
	assert.Equal(t, "prod", tc.Environment)
}

func TestFromEnv_InvalidRoleFallsBack(t *testing.T) {
	t.Setenv("DEFAULT_ROLE_ID", "-1")
	assert.Equal(t, uint(3), FromEnv().DefaultRoleID)
}
