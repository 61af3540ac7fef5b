package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SnapshotFile   = "file"
	SnapshotRedis  = "redis"
	SnapshotMemory = "memory"

	DocstoreNone = "none"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	SnapshotBackend string
	SnapshotPath    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	DocstoreDriver      string
	DocstoreDSN         string
	DocstoreOpenTimeout time.Duration

	JWTSecret      []byte
	AccessTokenTTL time.Duration
	CookieSecure   bool

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	AdminEmail    string
	AdminPassword string
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		slog.Warn("dotenv_load_failed", "error", err)
	}

	cfg := Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		SnapshotBackend: strings.ToLower(EnvDefault("SNAPSHOT_BACKEND", SnapshotFile)),
		SnapshotPath:    EnvDefault("SNAPSHOT_PATH", "data/snapshot.json"),

		RedisAddr:     EnvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       EnvIntDefault("REDIS_DB", 0),
		RedisPrefix:   EnvDefault("REDIS_PREFIX", "storefront:"),

		DocstoreDriver:      strings.ToLower(EnvDefault("DOCSTORE_DRIVER", "sqlite")),
		DocstoreDSN:         EnvDefault("DOCSTORE_DSN", "data/storefront.db"),
		DocstoreOpenTimeout: EnvDurationDefault("DOCSTORE_OPEN_TIMEOUT", 5*time.Second),

		JWTSecret:      []byte(os.Getenv("JWT_SECRET")),
		AccessTokenTTL: EnvDurationDefault("ACCESS_TOKEN_TTL", 24*time.Hour),
		CookieSecure:   EnvBoolDefault("COOKIE_SECURE", false),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		AdminEmail:    EnvDefault("ADMIN_EMAIL", "admin@omarceneiro.com"),
		AdminPassword: EnvDefault("ADMIN_PASSWORD", "admin123"),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.SnapshotBackend {
	case SnapshotFile, SnapshotRedis, SnapshotMemory:
	default:
		return fmt.Errorf("config: SNAPSHOT_BACKEND must be file, redis or memory, got %q", c.SnapshotBackend)
	}
	switch c.DocstoreDriver {
	case "sqlite", "postgres", DocstoreNone:
	default:
		return fmt.Errorf("config: DOCSTORE_DRIVER must be sqlite, postgres or none, got %q", c.DocstoreDriver)
	}
	if len(c.JWTSecret) == 0 {
		return fmt.Errorf("config: missing required env JWT_SECRET")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("config: SERVER_PORT out of range: %d", c.ServerPort)
	}
	return nil
}

func (c Config) Addr() string { return fmt.Sprintf(":%d", c.ServerPort) }

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// EnvDurationDefault accepts Go durations ("5s") or plain seconds ("5").
func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func EnvBoolDefault(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
