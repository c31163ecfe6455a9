package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"wisefido-handover/internal/common/database"
	commonlogger "wisefido-handover/internal/common/logger"
	commonmqtt "wisefido-handover/internal/common/mqtt"
	commonredis "wisefido-handover/internal/common/redis"
	"wisefido-handover/internal/config"
	httpapi "wisefido-handover/internal/http"
	"wisefido-handover/internal/metrics"
	"wisefido-handover/internal/notify"
	"wisefido-handover/internal/repository"
	"wisefido-handover/internal/service"
	"wisefido-handover/internal/store"
)

func main() {
	cfg := config.Load()

	logger, err := commonlogger.NewLogger(cfg.Log.Level, cfg.Log.Format, "wisefido-handover")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	deps := service.Deps{Logger: logger}

	var db *sql.DB
	migrated := false
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			logger.Info("DB enabled for wisefido-handover", zap.String("database", cfg.Database.Database))
		} else {
			logger.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
		}
	}
	if db != nil {
		if cfg.DBAutoMigrate {
			if err := repository.ApplySchema(context.Background(), db); err != nil {
				logger.Fatal("Failed to apply handover schema", zap.Error(err))
			}
			migrated = true
		}
		deps.Handovers = repository.NewPostgresHandoversRepository(db)
		deps.Sections = repository.NewPostgresSectionsRepository(db)
		deps.Assignments = repository.NewPostgresAssignmentsRepository(db)
		deps.ActionItems = repository.NewPostgresActionItemsRepository(db)
		deps.Plans = repository.NewPostgresContingencyPlansRepository(db)
	} else {
		mem := repository.NewMemoryStore()
		for _, id := range cfg.SeedPatients {
			mem.AddPatient(id, "")
		}
		logger.Warn("Using in-memory store; data is lost on restart", zap.Int("seed_patients", len(cfg.SeedPatients)))
		m := service.MemoryDeps(mem)
		deps.Handovers, deps.Sections, deps.Assignments, deps.ActionItems, deps.Plans =
			m.Handovers, m.Sections, m.Assignments, m.ActionItems, m.Plans
	}

	var publishers notify.Multi

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = commonredis.NewRedisClient(&cfg.Redis.RedisConfig)
		if err := commonredis.Ping(context.Background(), redisClient); err != nil {
			logger.Warn("Redis unreachable, view cache and event stream disabled", zap.Error(err))
			_ = commonredis.Close(redisClient)
			redisClient = nil
		}
	}
	if redisClient != nil {
		deps.Cache = store.NewViewCache(store.NewRedisKV(redisClient), cfg.Redis.ViewTTL)
		if migrated {
			// Views cached before a schema change may not decode against it.
			if n, err := deps.Cache.Purge(context.Background()); err != nil {
				logger.Warn("Failed to purge cached views after migration", zap.Error(err))
			} else {
				logger.Info("Purged cached views after migration", zap.Int("purged", n))
			}
		}
		publishers = append(publishers, notify.NewStreamPublisher(redisClient, cfg.Events.Stream, cfg.Events.StreamMax))
	}

	var mqttClient *commonmqtt.Client
	if cfg.MQTT.Enabled {
		if c, err := commonmqtt.NewClient(&cfg.MQTT.MQTTConfig, logger); err == nil {
			mqttClient = c
			publishers = append(publishers, notify.NewMQTTPublisher(c, cfg.MQTT.TopicPrefix))
		} else {
			logger.Warn("MQTT connect failed, pager notifications disabled", zap.Error(err))
		}
	}

	if cfg.Webhook.URL != "" {
		publishers = append(publishers, notify.NewWebhookPublisher(cfg.Webhook.URL, cfg.Webhook.Timeout))
	}

	var events *notify.Async
	if len(publishers) > 0 {
		events = notify.NewAsync(publishers, logger, 1024, 10*time.Second)
		deps.Events = events
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		m := metrics.New()
		deps.Metrics = m
		metricsHandler = m.Handler()
	}

	router := httpapi.NewAPI(service.New(deps), metricsHandler, logger)
	srv := service.NewServer(cfg.HTTP.Addr, router, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("HTTP server failed", zap.Error(err))
	}
	stop()
	logger.Info("HTTP server stopped")

	// Drain queued events before their transports go away.
	if events != nil {
		events.Close()
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if redisClient != nil {
		_ = commonredis.Close(redisClient)
	}
	if db != nil {
		_ = database.Close(db)
	}
}
