// Command dbinspect prints the columns, constraints and row counts of the
// tables the API owns.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"stocktalk/internal/config"
	"stocktalk/internal/database"
)

var defaultTables = []string{"users", "posts", "post_tags", "comments", "likes", "migration_logs"}

func main() {
	table := flag.String("table", "", "Inspect a single table instead of every API table")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	tables := defaultTables
	if *table != "" {
		tables = []string{*table}
	}

	for _, name := range tables {
		var columns []struct {
			ColumnName string `gorm:"column:column_name"`
			DataType   string `gorm:"column:data_type"`
			IsNullable string `gorm:"column:is_nullable"`
		}
		if err := db.WithContext(ctx).Raw(
			"SELECT column_name, data_type, is_nullable FROM information_schema.columns WHERE table_schema = 'public' AND table_name = ? ORDER BY ordinal_position",
			name,
		).Scan(&columns).Error; err != nil {
			log.Fatal(err)
		}
		if len(columns) == 0 {
			fmt.Printf("%s: missing\n\n", name)
			continue
		}

		var count int64
		if err := db.WithContext(ctx).Table(name).Count(&count).Error; err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s (%d rows)\n", name, count)
		for _, c := range columns {
			fmt.Printf(" - %s: %s nullable=%s\n", c.ColumnName, c.DataType, c.IsNullable)
		}

		var constraints []struct {
			Conname string `gorm:"column:conname"`
			Def     string `gorm:"column:def"`
		}
		if err := db.WithContext(ctx).Raw(
			"SELECT c.conname, pg_get_constraintdef(c.oid) AS def FROM pg_constraint c JOIN pg_class r ON c.conrelid = r.oid JOIN pg_namespace n ON n.oid = r.relnamespace WHERE n.nspname = 'public' AND r.relname = ? ORDER BY c.conname",
			name,
		).Scan(&constraints).Error; err != nil {
			log.Fatal(err)
		}
		for _, c := range constraints {
			fmt.Printf("   %s: %s\n", c.Conname, c.Def)
		}
		fmt.Println()
	}
}
