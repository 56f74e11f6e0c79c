// Command migrate applies the schema without starting the server.
package main

import (
	"fmt"
	"log"

	"recipebox/internal/config"
	"recipebox/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Connect migrates as part of opening the pool.
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = current_schema() ORDER BY tablename").
		Scan(&tables).Error; err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	log.Printf("schema up to date (%d tables)", len(tables))
	for _, t := range tables {
		log.Printf("  %s", t)
	}
	return nil
}
