package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	commoncfg "wisefido-handover/internal/common/config"

	"github.com/joho/godotenv"
)

// Config is the wisefido-handover (HTTP API) configuration.
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled     bool
	DBAutoMigrate bool
	Database      commoncfg.DatabaseConfig
	Redis         RedisConfig
	MQTT          MQTTConfig
	Webhook       WebhookConfig
	Events        struct {
		Stream    string
		StreamMax int64
	}
	Metrics struct {
		Enabled bool
	}
	// SeedPatients are registered in the memory store (dev only; Postgres reads the roster table).
	SeedPatients []string
	Log          struct {
		Level  string
		Format string
	}
}

// RedisConfig enables the composed-view cache and the event stream.
type RedisConfig struct {
	commoncfg.RedisConfig
	Enabled bool
	ViewTTL time.Duration
}

// MQTTConfig enables pager/device notifications over MQTT.
type MQTTConfig struct {
	commoncfg.MQTTConfig
	Enabled     bool
	TopicPrefix string
}

// WebhookConfig posts handover events to an external paging system; empty URL disables it.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// DB defaults to on; main falls back to the memory store when it is unreachable.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.DBAutoMigrate = getEnv("DB_AUTO_MIGRATE", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "wisefido_handover")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)
	cfg.Redis.ViewTTL = time.Duration(parseInt(getEnv("VIEW_CACHE_TTL_SECONDS", "30"), 30)) * time.Second

	cfg.Events.Stream = getEnv("EVENTS_STREAM", "handover:events")
	cfg.Events.StreamMax = int64(parseInt(getEnv("EVENTS_STREAM_MAXLEN", "10000"), 10000))

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "wisefido-handover")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "wisefido/handover")

	cfg.Webhook.URL = getEnv("WEBHOOK_URL", "")
	cfg.Webhook.Timeout = time.Duration(parseInt(getEnv("WEBHOOK_TIMEOUT_SECONDS", "5"), 5)) * time.Second

	cfg.Metrics.Enabled = getEnv("METRICS_ENABLED", "true") == "true"

	cfg.SeedPatients = splitList(getEnv("MEMORY_SEED_PATIENTS", ""))

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
