package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MOFU_* environment variable overrides, and
// returns the final Config. An empty path skips the file and uses defaults
// plus environment only. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MOFU_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "MOFU_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "MOFU_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "MOFU_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "MOFU_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "MOFU_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "MOFU_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "MOFU_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "MOFU_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "MOFU_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "MOFU_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "MOFU_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MOFU_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MOFU_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MOFU_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MOFU_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MOFU_REDIS_TLS_ENABLED")

	// ── Server ──
	setInt(&cfg.Server.Port, "MOFU_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "MOFU_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "MOFU_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "MOFU_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "MOFU_SERVER_RATE_LIMIT_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "MOFU_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MOFU_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "MOFU_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "MOFU_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "MOFU_MODE")
	setStr(&cfg.LogLevel, "MOFU_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
