package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnv pins every key Load reads so the host environment cannot leak in.
func setEnv(t *testing.T, overrides map[string]string) {
	t.Helper()
	base := map[string]string{
		"SERVER_HOST":           "0.0.0.0",
		"SERVER_PORT":           "3001",
		"TRUST_PROXY":           "false",
		"DATABASE_PATH":         "./data/chat.db",
		"JWT_SECRET":            "secret",
		"JWT_EXPIRY_DAYS":       "7",
		"FRONTEND_URL":          "http://localhost:5173",
		"LOG_LEVEL":             "info",
		"BROADCAST_SCOPE":       "members",
		"REDIS_ADDR":            "",
		"REDIS_PASSWORD":        "",
		"REDIS_DB":              "0",
		"LIVEKIT_URL":           "ws://localhost:7880",
		"LIVEKIT_API_KEY":       "",
		"LIVEKIT_API_SECRET":    "",
		"LOGIN_RATE_LIMIT":      "5",
		"LOGIN_RATE_WINDOW":     "2m",
		"MESSAGE_RATE_LIMIT":    "5",
		"MESSAGE_RATE_WINDOW":   "5s",
		"MESSAGE_RATE_COOLDOWN": "15s",
	}
	for k, v := range overrides {
		base[k] = v
	}
	for k, v := range base {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, nil)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3001", cfg.Server.Addr())
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.TokenTTL())
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, BroadcastScopeMembers, cfg.Broadcast.Scope)
	assert.False(t, cfg.Server.TrustProxy, "forwarded headers are ignored unless opted in")
	assert.False(t, cfg.LiveKit.Enabled())
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.LoginWindow)
	assert.Equal(t, 15*time.Second, cfg.RateLimit.MessageCooldown)
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, map[string]string{
		"FRONTEND_URL":       "http://a.test, http://b.test ,",
		"BROADCAST_SCOPE":    "ALL",
		"LIVEKIT_API_KEY":    "key",
		"LIVEKIT_API_SECRET": "secret",
		"SERVER_PORT":        "8080",
		"TRUST_PROXY":        "true",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, BroadcastScopeAll, cfg.Broadcast.Scope)
	assert.True(t, cfg.LiveKit.Enabled())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.TrustProxy)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET"},
		{"bad port", map[string]string{"SERVER_PORT": "abc"}, "SERVER_PORT"},
		{"bad duration", map[string]string{"LOGIN_RATE_WINDOW": "soon"}, "LOGIN_RATE_WINDOW"},
		{"non-positive expiry", map[string]string{"JWT_EXPIRY_DAYS": "0"}, "JWT_EXPIRY_DAYS"},
		{"bad trust proxy", map[string]string{"TRUST_PROXY": "maybe"}, "TRUST_PROXY"},
		{"unknown scope", map[string]string{"BROADCAST_SCOPE": "channel"}, "BROADCAST_SCOPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewRedisClient_Unconfigured(t *testing.T) {
	assert.Nil(t, NewRedisClient(RedisConfig{}))
	assert.Nil(t, NewRedisClient(RedisConfig{Addr: "127.0.0.1:1"}), "unreachable redis falls back")
}
