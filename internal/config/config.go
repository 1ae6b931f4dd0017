package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	BaaS struct {
		URL     string
		AnonKey string
		Schema  string
	}
	Auth struct {
		JWTSecret            string
		RefreshMarginSeconds int
	}
	Session struct {
		Path       string
		StorageKey string
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
	Redis struct {
		Addr     string
		Password string
	}
	RateLimit struct {
		Requests      int
		WindowSeconds int
	}
	Log struct {
		Level string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	// existing environment wins over .env
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GIGMARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("baas.url", "")
	v.SetDefault("baas.anonkey", "")
	v.SetDefault("baas.schema", "public")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.refreshmarginseconds", 60)
	v.SetDefault("session.path", "data/session.db")
	v.SetDefault("session.storagekey", "gigmarket")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "uploads")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("ratelimit.requests", 20)
	v.SetDefault("ratelimit.windowseconds", 60)
	v.SetDefault("log.level", "info")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate reports configuration that every entry point needs.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaaS.URL) == "" {
		return fmt.Errorf("baas url is required")
	}
	if strings.TrimSpace(c.BaaS.AnonKey) == "" {
		return fmt.Errorf("baas anon key is required")
	}
	return nil
}

// RefreshMargin is how long before expiry a session gets refreshed.
func (c Config) RefreshMargin() time.Duration {
	if c.Auth.RefreshMarginSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Auth.RefreshMarginSeconds) * time.Second
}

// RateLimitWindow converts the configured window to a duration.
func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}
