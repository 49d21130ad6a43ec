// Package config loads process configuration from the environment, an
// optional .env file and an optional config.yaml.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full process configuration.
type Config struct {
	App         AppConfig
	DB          DBConfig
	Redis       RedisConfig
	JWT         JWTConfig
	HTTP        HTTPConfig
	Idempotency IdempotencyConfig

	// ActorOverrideRule is a CEL expression deciding who may act as another
	// user.
	ActorOverrideRule string
	BalanceCacheTTL   time.Duration
	PhoneRegion       string
}

type AppConfig struct {
	Env      string
	LogLevel string
}

// Development reports whether the process runs in development mode.
func (c AppConfig) Development() bool {
	return c.Env == "development"
}

type DBConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// RedisConfig is empty when Redis is not configured.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether Redis-backed features are on.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type HTTPConfig struct {
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	RateLimit          string
	CORSAllowedOrigins []string

	// StatusOverrideRoles restricts manual status overrides; empty allows
	// every authenticated caller.
	StatusOverrideRoles []string
}

// Addr is the listen address.
func (c HTTPConfig) Addr() string {
	return ":" + c.Port
}

type IdempotencyConfig struct {
	TTL time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ISSUER", "retailcore")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("IDEMPOTENCY_TTL", 24*time.Hour)
	v.SetDefault("BALANCE_CACHE_TTL", 30*time.Second)
	v.SetDefault("PHONE_REGION", "US")
	v.SetDefault("HTTP_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("SHUTDOWN_TIMEOUT", 30*time.Second)
}

// Load reads configuration. Environment variables win over config.yaml;
// a .env file in the working directory is loaded into the environment
// first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			URL:      v.GetString("DATABASE_URL"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
			MinConns: v.GetInt32("DB_MIN_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Issuer: v.GetString("JWT_ISSUER"),
		},
		HTTP: HTTPConfig{
			Port:                v.GetString("APP_PORT"),
			ReadTimeout:         v.GetDuration("HTTP_READ_TIMEOUT"),
			WriteTimeout:        v.GetDuration("HTTP_WRITE_TIMEOUT"),
			ShutdownTimeout:     v.GetDuration("SHUTDOWN_TIMEOUT"),
			RateLimit:           v.GetString("RATE_LIMIT"),
			CORSAllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			StatusOverrideRoles: splitList(v.GetString("STATUS_OVERRIDE_ROLES")),
		},
		Idempotency: IdempotencyConfig{
			TTL: v.GetDuration("IDEMPOTENCY_TTL"),
		},
		ActorOverrideRule: v.GetString("ACTOR_OVERRIDE_RULE"),
		BalanceCacheTTL:   v.GetDuration("BALANCE_CACHE_TTL"),
		PhoneRegion:       v.GetString("PHONE_REGION"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DB.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.JWT.Secret == "" && !c.App.Development() {
		return errors.New("JWT_SECRET is required outside development")
	}
	if c.DB.MinConns > c.DB.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DB.MinConns, c.DB.MaxConns)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
