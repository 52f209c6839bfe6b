package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/mkiprop/loanbook/internal/migration"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		if err := migration.Up(db); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		log.Println("Migrations applied")
	case "down":
		if err := migration.Down(db); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		log.Println("Last migration rolled back")
	case "version":
		version, dirty, err := migration.Version(db)
		if err != nil {
			log.Fatalf("Failed to read migration version: %v", err)
		}
		log.Printf("Version: %d, dirty: %v", version, dirty)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: migrate <up|down|version>")
}
