package main

import (
	"context"
	"log"
	"time"

	"github.com/muhammadMilon/Server-PHA10/db"
	api "github.com/muhammadMilon/Server-PHA10/routes"
)

func main() {
	config := api.NewEnvConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbService, err := db.NewDBService(ctx, config.GetMongoURI(), config.GetDatabaseName())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := dbService.Close(shutdownCtx); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}()

	if err := dbService.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	api.ExposeAPI(dbService, config)
}
