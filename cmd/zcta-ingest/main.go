// Dataset import tool: reads ZCTA-to-district relationship rows from a file
// or URL and batch-writes them into PostgreSQL.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"district-api/internal/ingest"
	"district-api/internal/migrate"
	"district-api/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	src := flag.String("src", "", "dataset file path or http(s) URL (default DATASET_PATH)")
	flag.Parse()
	if *src == "" {
		*src = os.Getenv("DATASET_PATH")
	}
	if *src == "" {
		*src = filepath.Join("data", "zcta", "zcta_cd.txt")
	}

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	if err := migrate.EnsureSchema(db); err != nil {
		log.Fatal(err)
	}
	if err := ingest.FetchAndImport(db, *src); err != nil {
		log.Fatal(err)
	}
}
