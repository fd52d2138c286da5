// migrate-to-postgres copies stored layouts from SQLite to PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-to-postgres \
//	    -sqlite data/layouts.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user roomgen \
//	    -pg-password roomgen \
//	    -pg-database roomgen
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/spyice/room-generator/internal/database"
	"github.com/spyice/room-generator/internal/export"
)

// layoutSource and layoutSink are the parts of database.Database the copy uses.
type layoutSource interface {
	ListLayouts(limit int) ([]database.LayoutSummary, error)
	LoadLayout(id int64) (*export.Snapshot, error)
}

type layoutSink interface {
	SaveLayout(snap *export.Snapshot) (int64, error)
}

func main() {
	sqlitePath := flag.String("sqlite", "data/layouts.db", "Path to SQLite database")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "roomgen", "PostgreSQL user")
	pgPassword := flag.String("pg-password", "roomgen", "PostgreSQL password")
	pgDatabase := flag.String("pg-database", "roomgen", "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", "disable", "PostgreSQL SSL mode")
	dryRun := flag.Bool("dry-run", false, "Show what would be copied without making changes")
	flag.Parse()

	log.Println("SQLite to PostgreSQL Layout Migration")
	log.Println("=====================================")

	log.Printf("Opening SQLite database: %s", *sqlitePath)
	src, err := database.Open(*sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite database: %v", err)
	}
	defer src.Close()

	var dst layoutSink
	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
	} else {
		pg := database.DefaultPostgresConfig()
		pg.Host = *pgHost
		pg.Port = *pgPort
		pg.User = *pgUser
		pg.Password = *pgPassword
		pg.Database = *pgDatabase
		pg.SSLMode = *pgSSLMode

		log.Printf("Opening PostgreSQL database: %s@%s:%d/%s", *pgUser, *pgHost, *pgPort, *pgDatabase)
		pgDB, err := database.OpenWithConfig(database.Config{Driver: string(database.DialectPostgres), Postgres: pg})
		if err != nil {
			log.Fatalf("Failed to open PostgreSQL database: %v", err)
		}
		defer pgDB.Close()
		dst = pgDB
	}

	copied, err := copyLayouts(src, dst)
	if err != nil {
		log.Fatalf("Migration failed after %d layouts: %v", copied, err)
	}

	log.Println("=====================================")
	log.Printf("Migration complete! Layouts copied: %d", copied)
	if *dryRun {
		log.Println("(DRY RUN - No actual changes were made)")
	}
}

// copyLayouts copies every layout oldest first so the new ids keep the
// original order. A nil dst only reads and validates the source.
func copyLayouts(src layoutSource, dst layoutSink) (int, error) {
	summaries, err := src.ListLayouts(0)
	if err != nil {
		return 0, fmt.Errorf("list layouts: %w", err)
	}

	copied := 0
	for i := len(summaries) - 1; i >= 0; i-- {
		s := summaries[i]
		snap, err := src.LoadLayout(s.ID)
		if err != nil {
			return copied, fmt.Errorf("load layout %d: %w", s.ID, err)
		}
		if dst == nil {
			log.Printf("  Would copy layout %d (seed %d, %d rooms)", s.ID, s.Seed, s.RoomCount)
			copied++
			continue
		}
		newID, err := dst.SaveLayout(snap)
		if err != nil {
			return copied, fmt.Errorf("save layout %d: %w", s.ID, err)
		}
		log.Printf("  Copied layout %d -> %d (seed %d)", s.ID, newID, s.Seed)
		copied++
	}
	return copied, nil
}
