package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/pcshop/internal/notify"
	"github.com/Skotchmaster/pcshop/internal/search"
	envcfg "github.com/Skotchmaster/pcshop/pkg/config"
)

type Config struct {
	ServiceName string
	Port        string
	LogLevel    string
	CORSOrigins []string

	DatabaseURL string

	JWTSecret  []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	KafkaBrokers []string
	OrderTopic   string

	Search search.Config

	RedisAddr string
	CacheTTL  time.Duration

	Mail notify.SMTP

	AdminPassword string
}

const defaultOrigins = "http://localhost:5173,http://localhost:8081,http://localhost:3000"

// Load reads .env when present, then the process environment, and requires
// everything the HTTP server needs.
func Load() (*Config, error) {
	cfg := load()
	if err := (envcfg.Required{
		"DATABASE_URL": cfg.DatabaseURL,
		"JWT_SECRET":   string(cfg.JWTSecret),
	}).Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase is Load for commands that only talk to the database.
func LoadDatabase() (*Config, error) {
	cfg := load()
	if err := (envcfg.Required{"DATABASE_URL": cfg.DatabaseURL}).Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return &Config{
		ServiceName: envcfg.EnvDefault("SERVICE_NAME", "pcshop"),
		Port:        envcfg.EnvDefault("SERVER_PORT", "8080"),
		LogLevel:    envcfg.EnvDefault("LOG_LEVEL", "info"),
		CORSOrigins: envcfg.CSV(envcfg.EnvDefault("CORS_ORIGINS", defaultOrigins)),

		DatabaseURL: envcfg.EnvDefault("DATABASE_URL", ""),

		JWTSecret:  []byte(envcfg.EnvDefault("JWT_SECRET", "")),
		AccessTTL:  envcfg.EnvDurationDefault("JWT_ACCESS_TTL", 24*time.Hour),
		RefreshTTL: envcfg.EnvDurationDefault("JWT_REFRESH_TTL", 7*24*time.Hour),

		KafkaBrokers: envcfg.CSV(envcfg.EnvDefault("KAFKA_BROKERS", "")),
		OrderTopic:   envcfg.EnvDefault("KAFKA_ORDER_TOPIC", "order_events"),

		Search: search.Config{
			URL:      envcfg.EnvDefault("ES_URL", ""),
			Username: envcfg.EnvDefault("ES_USER", ""),
			Password: envcfg.EnvDefault("ES_PASSWORD", ""),
			Index:    envcfg.EnvDefault("ES_INDEX", "products"),
		},

		RedisAddr: envcfg.EnvDefault("REDIS_ADDR", ""),
		CacheTTL:  envcfg.EnvDurationDefault("CATALOG_CACHE_TTL", 5*time.Minute),

		Mail: notify.SMTP{
			Host:     envcfg.EnvDefault("MAIL_HOST", ""),
			Port:     envcfg.EnvDefault("MAIL_PORT", "587"),
			Username: envcfg.EnvDefault("MAIL_USERNAME", ""),
			Password: envcfg.EnvDefault("MAIL_PASSWORD", ""),
			From:     envcfg.EnvDefault("MAIL_FROM", ""),
		},

		AdminPassword: envcfg.EnvDefault("ADMIN_PASSWORD", "admin"),
	}
}
