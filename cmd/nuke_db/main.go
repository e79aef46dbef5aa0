// Command nuke_db drops and recreates the public schema. It refuses to run
// against a production profile.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"stocktalk/internal/config"
	"stocktalk/internal/database"
)

func main() {
	force := flag.Bool("yes", false, "Confirm that every table and row should be dropped")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.IsProduction() {
		log.Fatal("refusing to nuke a production database")
	}
	if !*force {
		log.Fatalf("this drops every table in %s@%s; rerun with -yes", cfg.DBName, cfg.DBHost)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Nuking database...")
	if err := db.WithContext(ctx).Exec("DROP SCHEMA public CASCADE; CREATE SCHEMA public;").Error; err != nil {
		log.Fatalf("failed to nuke schema: %v", err)
	}
	if err := db.WithContext(ctx).Exec("GRANT ALL ON SCHEMA public TO public;").Error; err != nil {
		log.Fatalf("failed to grant schema permissions: %v", err)
	}
	fmt.Println("Database nuked. Run `go run ./cmd/migrate up` to recreate the schema.")
}
