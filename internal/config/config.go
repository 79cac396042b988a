package config

import (
	"strings"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/phonehub/internal/tokens"
	"github.com/Skotchmaster/phonehub/pkg/authclient"
	"github.com/Skotchmaster/phonehub/pkg/config"
)

type Config struct {
	Environment string
	JWTSecret   []byte
	Production  tokens.Profile
	Development tokens.Profile

	DatabaseURL string
	ServerPort  string
	LogLevel    string

	GoogleClientID     string
	GoogleTokenInfoURL string

	KafkaBrokers   []string
	KafkaAuthTopic string

	DefaultRoleID uint
	CORSOrigins   []string
}

func (c Config) Addr() string { return ":" + strings.TrimPrefix(c.ServerPort, ":") }

func (c Config) Tokens() tokens.Config {
	return tokens.Config{
		Secret:      c.JWTSecret,
		Environment: c.Environment,
		Production:  c.Production,
		Development: c.Development,
	}
}

// FromEnv reads the process environment without validating it.
func FromEnv() Config {
	roleID := config.EnvIntDefault("DEFAULT_ROLE_ID", 3)
	if roleID <= 0 {
		roleID = 3
	}

	origins := config.CSV(config.EnvDefault("CORS_ALLOWED_ORIGINS", "*"))
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return Config{
		Environment: config.EnvDefault("APP_ENV", "dev"),
		JWTSecret:   []byte(config.EnvDefault("JWT_SECRET", "")),
		Production: tokens.Profile{
			AccessTTL:  config.EnvDurationDefault("ACCESS_TOKEN_TTL", tokens.ProductionProfile.AccessTTL),
			RefreshTTL: config.EnvDurationDefault("REFRESH_TOKEN_TTL", tokens.ProductionProfile.RefreshTTL),
		},
		Development: tokens.Profile{
			AccessTTL:  config.EnvDurationDefault("DEV_ACCESS_TOKEN_TTL", tokens.DevelopmentProfile.AccessTTL),
			RefreshTTL: config.EnvDurationDefault("DEV_REFRESH_TOKEN_TTL", tokens.DevelopmentProfile.RefreshTTL),
		},

		DatabaseURL: config.EnvDefault("DATABASE_URL", ""),
		ServerPort:  config.EnvDefault("SERVER_PORT", "8080"),
		LogLevel:    config.EnvDefault("LOG_LEVEL", "info"),

		GoogleClientID:     config.EnvDefault("GOOGLE_CLIENT_ID", ""),
		GoogleTokenInfoURL: config.EnvDefault("GOOGLE_TOKENINFO_URL", authclient.DefaultTokenInfoURL),

		KafkaBrokers:   config.CSV(config.EnvDefault("KAFKA_BROKERS", "")),
		KafkaAuthTopic: config.EnvDefault("KAFKA_AUTH_TOPIC", "auth_events"),

		DefaultRoleID: uint(roleID),
		CORSOrigins:   origins,
	}
}

// Load reads an optional .env file, then the environment. Missing required
// settings are fatal.
func Load() Config {
	_ = godotenv.Load()

	cfg := FromEnv()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmpty(string(cfg.JWTSecret), "JWT_SECRET")
	config.MustMinLen(cfg.JWTSecret, tokens.MinKeyLen, "JWT_SECRET")

	return cfg
}
