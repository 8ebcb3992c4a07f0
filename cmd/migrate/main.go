package main

import (
	"ppob_wallet/internal/config" // Custom import path (Config)
	"ppob_wallet/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	log := config.SetupLogger(cfg)
	if cfg.DBDriver == config.DriverMemory {
		log.Info("In-memory store has no schema, nothing to migrate.")
		return
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
}
