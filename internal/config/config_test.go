package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "pricewatch", cfg.ServiceName)
	assert.Equal(t, 9040, cfg.Port)
	assert.Equal(t, 10, cfg.VerifyThreshold)
	assert.Equal(t, 5, cfg.RejectThreshold)
	assert.Equal(t, 500, cfg.TrustedReputation)
	assert.True(t, cfg.MaxPrice.Equal(decimal.NewFromInt(1_000_000)))
	assert.False(t, cfg.AlertOneShot)
	assert.Equal(t, 5.0, cfg.DefaultRadiusKm)
	assert.Equal(t, 30, cfg.DefaultTrendDays)
	assert.Empty(t, cfg.DatabaseURL, "memory store by default")
	assert.Empty(t, cfg.Broker, "notifications disabled by default")
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("VERIFY_THRESHOLD", "20")
	t.Setenv("TRUSTED_REPUTATION", "1000")
	t.Setenv("MAX_PRICE", "50000")
	t.Setenv("ALERT_ONE_SHOT", "true")
	t.Setenv("DEFAULT_RADIUS_KM", "2.5")
	t.Setenv("NOTIFY_BROKER", "nats")
	t.Setenv("CACHE_TTL", "30s")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 20, cfg.VerifyThreshold)
	assert.Equal(t, 1000, cfg.TrustedReputation)
	assert.True(t, cfg.MaxPrice.Equal(decimal.NewFromInt(50_000)))
	assert.True(t, cfg.AlertOneShot)
	assert.Equal(t, 2.5, cfg.DefaultRadiusKm)
	assert.Equal(t, "nats", cfg.Broker)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("DEFAULT_RADIUS_KM", "wide")
	t.Setenv("ALERT_ONE_SHOT", "sometimes")

	cfg := Load()

	assert.Equal(t, 9040, cfg.Port)
	assert.Equal(t, 5.0, cfg.DefaultRadiusKm)
	assert.False(t, cfg.AlertOneShot)
}
