package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"wisefido-handover/internal/common/database"
	commonredis "wisefido-handover/internal/common/redis"
	"wisefido-handover/internal/config"
	"wisefido-handover/internal/repository"
	"wisefido-handover/internal/store"
)

// apply-migration applies the built-in handover schema, or the given .sql files in order.
func main() {
	timeout := flag.Duration("timeout", 60*time.Second, "overall timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-timeout 60s] [migration_file.sql ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Load()
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database %s: %v", cfg.Database.Database, err)
	}
	defer database.Close(db)
	fmt.Printf("Connected to database: %s\n\n", cfg.Database.Database)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if flag.NArg() == 0 {
		if err := repository.ApplySchema(ctx, db); err != nil {
			log.Fatalf("Failed to apply handover schema: %v", err)
		}
		fmt.Println("Handover schema applied")
		purgeViews(ctx, cfg)
		return
	}

	for _, file := range flag.Args() {
		script, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("Failed to read migration file: %v", err)
		}
		if err := repository.ApplySQL(ctx, db, string(script)); err != nil {
			log.Fatalf("Failed to apply %s: %v", file, err)
		}
		fmt.Printf("Applied %s\n", file)
	}
	purgeViews(ctx, cfg)
	fmt.Println("Migration completed successfully")
}

// purgeViews drops composed views cached against the previous schema.
func purgeViews(ctx context.Context, cfg *config.Config) {
	if !cfg.Redis.Enabled {
		return
	}
	client := commonredis.NewRedisClient(&cfg.Redis.RedisConfig)
	defer commonredis.Close(client)
	if err := commonredis.Ping(ctx, client); err != nil {
		fmt.Printf("Redis unreachable, cached views not purged: %v\n", err)
		return
	}
	n, err := store.NewViewCache(store.NewRedisKV(client), cfg.Redis.ViewTTL).Purge(ctx)
	if err != nil {
		log.Fatalf("Failed to purge cached views: %v", err)
	}
	fmt.Printf("Purged %d cached views\n", n)
}
