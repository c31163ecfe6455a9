package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, "wisefido_handover", cfg.Database.Database)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Redis.ViewTTL)
	assert.Equal(t, "handover:events", cfg.Events.Stream)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "wisefido/handover", cfg.MQTT.TopicPrefix)
	assert.Empty(t, cfg.Webhook.URL)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("VIEW_CACHE_TTL_SECONDS", "120")
	t.Setenv("WEBHOOK_URL", "http://pager.local/hooks")
	t.Setenv("MQTT_QOS", "0")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Redis.ViewTTL)
	assert.Equal(t, "http://pager.local/hooks", cfg.Webhook.URL)
	assert.Equal(t, byte(0), cfg.MQTT.QoS)
}

func TestParseInt_FallsBack(t *testing.T) {
	assert.Equal(t, 7, parseInt("x", 7))
	assert.Equal(t, 3, parseInt("3", 7))
}

func TestLoad_SeedPatients(t *testing.T) {
	t.Setenv("MEMORY_SEED_PATIENTS", " p1, ,p2 ")
	assert.Equal(t, []string{"p1", "p2"}, Load().SeedPatients)
}
