// Package config loads the server configuration from environment variables.
// A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Broadcast scopes for message envelopes.
const (
	BroadcastScopeMembers = "members" // only users who belong to the channel's server
	BroadcastScopeAll     = "all"     // every live connection
)

// Config groups every setting the server needs. Each sub-struct covers one concern.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Broadcast BroadcastConfig
	Redis     RedisConfig
	LiveKit   LiveKitConfig
	RateLimit RateLimitConfig
}

// ServerConfig is the HTTP listener. TrustProxy makes the client IP come
// from X-Forwarded-For / X-Real-IP; enable it only behind a reverse proxy
// that overwrites those headers, otherwise any client can pick its own IP.
type ServerConfig struct {
	Host       string
	Port       int
	TrustProxy bool
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string
}

// JWTConfig holds the signing secret and credential lifetime.
type JWTConfig struct {
	Secret     string
	ExpiryDays int
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig sets the zap level.
type LogConfig struct {
	Level string
}

// BroadcastConfig controls who receives message envelopes.
type BroadcastConfig struct {
	Scope string
}

// RedisConfig is optional. An empty Addr disables Redis-backed rate limiting.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LiveKitConfig is optional. Without a key and secret voice tokens are refused.
type LiveKitConfig struct {
	URL       string
	APIKey    string
	APISecret string
}

// Enabled reports whether voice tokens can be issued.
func (c LiveKitConfig) Enabled() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// RateLimitConfig bounds login attempts per IP and messages per user.
type RateLimitConfig struct {
	LoginAttempts   int
	LoginWindow     time.Duration
	Messages        int
	MessageWindow   time.Duration
	MessageCooldown time.Duration
}

// Load builds a Config from the environment. JWT_SECRET is mandatory; every
// other key has a default. Malformed numbers and durations are errors.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []string
	intVar := func(key, fallback string) int {
		v, err := strconv.Atoi(getEnv(key, fallback))
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}
	durVar := func(key, fallback string) time.Duration {
		v, err := time.ParseDuration(getEnv(key, fallback))
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}
	boolVar := func(key, fallback string) bool {
		v, err := strconv.ParseBool(getEnv(key, fallback))
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:       getEnv("SERVER_HOST", "0.0.0.0"),
			Port:       intVar("SERVER_PORT", "3001"),
			TrustProxy: boolVar("TRUST_PROXY", "false"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/chat.db"),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			ExpiryDays: intVar("JWT_EXPIRY_DAYS", "7"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("FRONTEND_URL", "http://localhost:5173")),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Broadcast: BroadcastConfig{
			Scope: strings.ToLower(getEnv("BROADCAST_SCOPE", BroadcastScopeMembers)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       intVar("REDIS_DB", "0"),
		},
		LiveKit: LiveKitConfig{
			URL:       getEnv("LIVEKIT_URL", "ws://localhost:7880"),
			APIKey:    getEnv("LIVEKIT_API_KEY", ""),
			APISecret: getEnv("LIVEKIT_API_SECRET", ""),
		},
		RateLimit: RateLimitConfig{
			LoginAttempts:   intVar("LOGIN_RATE_LIMIT", "5"),
			LoginWindow:     durVar("LOGIN_RATE_WINDOW", "2m"),
			Messages:        intVar("MESSAGE_RATE_LIMIT", "5"),
			MessageWindow:   durVar("MESSAGE_RATE_WINDOW", "5s"),
			MessageCooldown: durVar("MESSAGE_RATE_COOLDOWN", "15s"),
		},
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if cfg.JWT.ExpiryDays <= 0 {
		return nil, fmt.Errorf("JWT_EXPIRY_DAYS must be positive")
	}
	switch cfg.Broadcast.Scope {
	case BroadcastScopeMembers, BroadcastScopeAll:
	default:
		return nil, fmt.Errorf("BROADCAST_SCOPE must be %q or %q", BroadcastScopeMembers, BroadcastScopeAll)
	}

	return cfg, nil
}

// Addr is the listen address, e.g. "0.0.0.0:3001".
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TokenTTL is the credential lifetime.
func (c *JWTConfig) TokenTTL() time.Duration {
	return time.Duration(c.ExpiryDays) * 24 * time.Hour
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
