package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env           string
	HTTPPort      string
	DefaultLocale string
	StoreBackend  string
	RunMigrations bool
	DB            DBConfig
	Redis         RedisConfig
	Lifecycle     LifecycleConfig
	Discord       DiscordConfig
	OTel          OTelConfig
}

type DBConfig struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

type RedisConfig struct {
	URL            string
	ChangePrefix   string
	Stream         string
	Group          string
	Consumer       string
	DLQStream      string
	MaxAttempts    int
	RequeueBackoff time.Duration
}

type LifecycleConfig struct {
	TxMaxAttempts       int
	InvitationTTL       time.Duration
	ExpirySweepInterval time.Duration
}

type DiscordConfig struct {
	Token   string
	GuildID string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	if getEnv("LUCKYSPOT_ENV", "development") == "development" {
		// .env is optional when the environment already carries the variables.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Env:           getEnv("LUCKYSPOT_ENV", "development"),
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		RunMigrations: getEnvBool("RUN_MIGRATIONS", true),
		DB: DBConfig{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 10),
			MinConns: getEnvInt32("DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			URL:            getEnv("REDIS_URL", ""),
			ChangePrefix:   getEnv("REDIS_CHANGE_PREFIX", "luckyspot:entrants:"),
			Stream:         getEnv("PROMOTION_STREAM", "luckyspot_promotions"),
			Group:          getEnv("PROMOTION_GROUP", "luckyspot_promoters"),
			Consumer:       getEnv("PROMOTION_CONSUMER", hostname()),
			DLQStream:      getEnv("PROMOTION_DLQ_STREAM", "luckyspot_promotions_dlq"),
			MaxAttempts:    getEnvInt("PROMOTION_MAX_ATTEMPTS", 5),
			RequeueBackoff: getEnvDuration("PROMOTION_REQUEUE_BACKOFF", 2*time.Second),
		},
		Lifecycle: LifecycleConfig{
			TxMaxAttempts:       getEnvInt("TX_MAX_ATTEMPTS", 5),
			InvitationTTL:       getEnvDuration("INVITATION_TTL", 72*time.Hour),
			ExpirySweepInterval: getEnvDuration("EXPIRY_SWEEP_INTERVAL", 10*time.Minute),
		},
		Discord: DiscordConfig{
			Token:   getEnv("DISCORD_TOKEN", ""),
			GuildID: getEnv("DISCORD_GUILD_ID", ""),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "luckyspot"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks the loaded values and fills environment-dependent defaults.
func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if strings.TrimSpace(c.DB.DSN) == "" {
			// Local default when DATABASE_URL is unset.
			c.DB.DSN = "postgres://localhost:5432/luckyspot?sslmode=disable"
		}
		if err := validateURL("DATABASE_URL", c.DB.DSN); err != nil {
			return err
		}
	case BackendMemory:
		if c.IsProduction() {
			return fmt.Errorf("config: STORE_BACKEND=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("config: STORE_BACKEND must be %q or %q (got %q)", BackendPostgres, BackendMemory, c.StoreBackend)
	}

	if c.Redis.Enabled() {
		if err := validateURL("REDIS_URL", c.Redis.URL); err != nil {
			return err
		}
		if c.Redis.MaxAttempts < 1 {
			return fmt.Errorf("config: PROMOTION_MAX_ATTEMPTS must be at least 1")
		}
	}

	if c.Lifecycle.TxMaxAttempts < 1 {
		return fmt.Errorf("config: TX_MAX_ATTEMPTS must be at least 1")
	}
	if c.Lifecycle.InvitationTTL <= 0 {
		return fmt.Errorf("config: INVITATION_TTL must be a positive duration")
	}
	if c.Lifecycle.ExpirySweepInterval <= 0 {
		return fmt.Errorf("config: EXPIRY_SWEEP_INTERVAL must be a positive duration")
	}

	for _, r := range c.Discord.GuildID {
		if r < '0' || r > '9' {
			return fmt.Errorf("config: DISCORD_GUILD_ID must be a Discord server id (digits only)")
		}
	}

	if _, err := strconv.Atoi(c.HTTPPort); err != nil {
		return fmt.Errorf("config: invalid HTTP_PORT (%q): %w", c.HTTPPort, err)
	}

	return nil
}

func validateURL(key, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config: invalid %s (%q): %w", key, raw, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("config: invalid %s (%q): missing scheme or host", key, raw)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

func (c DiscordConfig) Enabled() bool {
	return c.Token != ""
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func hostname() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "luckyspot"
}
