package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef"

func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetenv(t, "ENV", "STORE", "DATABASE_URL", "TICKET_GRACE", "SWEEP_INTERVAL",
		"SCAN_THROTTLE", "RETRY_MAX_ATTEMPTS", "LOCALE")
	t.Setenv("TOKEN_SECRET", secret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "postgres://localhost:5432/rollcall?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, 2*time.Hour, cfg.TicketGrace)
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 2*time.Second, cfg.ScanThrottle)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.Equal(t, "fr", cfg.Locale)
}

func TestLoadParsesLists(t *testing.T) {
	unsetenv(t, "ENV")
	t.Setenv("TOKEN_SECRET", secret)
	t.Setenv("STORE", StoreMemory)
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TELEGRAM_TOKEN", "tg")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, int64(-1001), cfg.TelegramChatID)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:              "dev",
			Store:            StorePostgres,
			DatabaseURL:      "postgres://db:5432/rollcall",
			TokenSecret:      secret,
			TicketGrace:      time.Hour,
			SweepInterval:    time.Minute,
			SweepBatch:       10,
			RetryMaxAttempts: 3,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown env", func(c *Config) { c.Env = "staging" }, "ENV"},
		{"short secret", func(c *Config) { c.TokenSecret = "short" }, "TOKEN_SECRET"},
		{"bad database url", func(c *Config) { c.DatabaseURL = "nohost" }, "DATABASE_URL"},
		{"mongo without uri", func(c *Config) { c.Store = StoreMongo }, "MONGO_URI"},
		{"mongo with uri", func(c *Config) { c.Store = StoreMongo; c.MongoURI = "mongodb://m:27017" }, ""},
		{"memory in prod", func(c *Config) { c.Store = StoreMemory; c.Env = "prod" }, "STORE=memory"},
		{"unknown store", func(c *Config) { c.Store = "sqlite" }, "STORE"},
		{"bad redis url", func(c *Config) { c.RedisURL = "::" }, "REDIS_URL"},
		{"telegram without chat", func(c *Config) { c.TelegramToken = "tg" }, "TELEGRAM_CHAT_ID"},
		{"guild not numeric", func(c *Config) { c.DiscordGuildID = "abc" }, "DISCORD_GUILD_ID"},
		{"negative grace", func(c *Config) { c.TicketGrace = -time.Second }, "TICKET_GRACE"},
		{"zero interval", func(c *Config) { c.SweepInterval = 0 }, "SWEEP_INTERVAL"},
		{"zero batch", func(c *Config) { c.SweepBatch = 0 }, "SWEEP_BATCH"},
		{"no attempts", func(c *Config) { c.RetryMaxAttempts = 0 }, "RETRY_MAX_ATTEMPTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
