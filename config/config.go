// Package config loads runtime settings from the environment.
package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// Config aggregates the settings of the web service.
type Config struct {
	Debug      bool
	ListenAddr string
	PublicURL  string

	Storage StorageConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Session SessionConfig
	Display DisplayConfig
	Relay   RelayConfig
	Tracing TracingConfig
}

type StorageConfig struct {
	ConnectionString string
	TasksTable       string
	CommentsTable    string
	ChangesQueue     string
}

type RedisConfig struct {
	ConnectionString string
	UpdatesChannel   string
	TasksCacheTTL    time.Duration
	IdempotencyTTL   time.Duration
}

type AuthConfig struct {
	Audience     string
	Domain       string
	LocalMode    string
	LocalSecret  string
	JWKSCacheTTL time.Duration
}

type SessionConfig struct {
	Name   string
	Secret string
	MaxAge int
	Secure bool
}

type DisplayConfig struct {
	DateLayout string
	TimeZone   string
}

type RelayConfig struct {
	Enabled bool
}

type TracingConfig struct {
	OTLPEndpoint string
}

// Load reads configuration from environment variables, after loading an
// optional .env file, and validates the required ones.
func Load() (*Config, error) {
	cfg := LoadStorage()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStorage reads the same settings as Load without validating them. Tools
// that only touch storage use it.
func LoadStorage() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		Debug:      getBool("DEBUG", false),
		ListenAddr: ":" + getString("PORT", "8080"),
		PublicURL:  strings.TrimRight(os.Getenv("PUBLIC_URL"), "/"),
		Storage: StorageConfig{
			ConnectionString: os.Getenv("STORAGE_CONNECTION_STRING"),
			TasksTable:       getString("TASKS_TABLE", "tarefas"),
			CommentsTable:    getString("COMMENTS_TABLE", "comments"),
			ChangesQueue:     getString("CHANGES_QUEUE", "changes"),
		},
		Redis: RedisConfig{
			ConnectionString: os.Getenv("REDIS_CONNECTION_STRING"),
			UpdatesChannel:   getString("TASK_UPDATES_CHANNEL", "task-updates"),
			TasksCacheTTL:    getDuration("TASKS_CACHE_TTL", time.Minute),
			IdempotencyTTL:   getDuration("IDEMPOTENCY_TTL", 10*time.Minute),
		},
		Auth: AuthConfig{
			Audience:     os.Getenv("AUTH0_AUDIENCE"),
			Domain:       os.Getenv("AUTH0_DOMAIN"),
			LocalMode:    strings.ToLower(os.Getenv("LOCAL_AUTH_MODE")),
			LocalSecret:  os.Getenv("LOCAL_AUTH_SHARED_SECRET"),
			JWKSCacheTTL: getDuration("JWKS_CACHE_TTL", 15*time.Minute),
		},
		Session: SessionConfig{
			Name:   getString("SESSION_COOKIE", "tarefas_session"),
			Secret: os.Getenv("SESSION_SECRET"),
			MaxAge: getInt("SESSION_MAX_AGE", 30*24*60*60),
			Secure: getBool("SESSION_SECURE", true),
		},
		Display: DisplayConfig{
			DateLayout: getString("DISPLAY_DATE_LAYOUT", "02/01/2006"),
			TimeZone:   getString("DISPLAY_TIMEZONE", "UTC"),
		},
		Relay: RelayConfig{
			Enabled: getBool("CHANGE_RELAY_ENABLED", true),
		},
		Tracing: TracingConfig{
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
	}
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	var missing []string
	if c.Storage.ConnectionString == "" {
		missing = append(missing, "STORAGE_CONNECTION_STRING")
	}
	if c.Redis.ConnectionString == "" {
		missing = append(missing, "REDIS_CONNECTION_STRING")
	}
	if c.PublicURL == "" {
		missing = append(missing, "PUBLIC_URL")
	}
	if c.Session.Secret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	switch c.Auth.LocalMode {
	case "":
		if c.Auth.Audience == "" || c.Auth.Domain == "" {
			missing = append(missing, "AUTH0_AUDIENCE/AUTH0_DOMAIN")
		}
	case "hs256":
		if c.Auth.LocalSecret == "" {
			missing = append(missing, "LOCAL_AUTH_SHARED_SECRET")
		}
	default:
		return fmt.Errorf("unsupported LOCAL_AUTH_MODE value %q", c.Auth.LocalMode)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing config: %s", strings.Join(missing, ", "))
	}
	if _, err := time.LoadLocation(c.Display.TimeZone); err != nil {
		return fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the display time zone.
func (c DisplayConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// JWKSURL is the key set endpoint of the configured Auth0 tenant.
func (c AuthConfig) JWKSURL() string {
	return fmt.Sprintf("https://%s/.well-known/jwks.json", c.Domain)
}

// Issuer is the expected token issuer.
func (c AuthConfig) Issuer() string {
	if c.Domain == "" {
		return ""
	}
	return "https://" + c.Domain + "/"
}

// RedisOptions accepts either a redis:// URL or an Azure style
// "host:port,password=...,ssl=True" string.
func RedisOptions(conn string) (*redis.Options, error) {
	if conn == "" {
		return nil, errors.New("empty redis connection string")
	}
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts, nil
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(kv[1], "true") {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts, nil
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil && parsed >= 0 {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
