package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/launchpadhq/launchpad/internal/aggregate"
	"github.com/launchpadhq/launchpad/internal/api"
	"github.com/launchpadhq/launchpad/internal/db"
)

func main() {
	ctx := context.Background()

	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	registry, err := aggregate.LoadRegistry()
	if err != nil {
		log.Fatalf("failed to load source registry: %v", err)
	}
	fallback, err := aggregate.LoadFallback()
	if err != nil {
		log.Fatalf("failed to load fallback table: %v", err)
	}

	client := aggregate.NewClient(8*time.Second, 1.0)
	store := db.NewStore(pool)
	pipeline := aggregate.NewPipeline(store, aggregate.BuildSources(registry, client), fallback, 8*time.Second)

	server := api.NewServer(pool, pipeline, registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting server on port %s", port)
	if err := server.Start(port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
