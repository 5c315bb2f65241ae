// Command migrate applies or rolls back the auth schema.
//
//	go run ./cmd/migrate -direction up
package main

import (
	"errors"
	"flag"
	"log"

	"school-management/backend/internal/config"
	"school-management/backend/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "up or down")
	flag.Parse()

	dir, err := migrate.ParseDirection(*direction)
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	version, err := migrate.Apply(cfg.DatabaseURL, dir)
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Printf("migrate: schema already %s at version %d", dir, version)
	case err != nil:
		log.Fatalf("migrate: %v", err)
	default:
		log.Printf("migrate: %s complete, schema version %d", dir, version)
	}
}
