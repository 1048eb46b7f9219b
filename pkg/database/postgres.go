package database

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"fabula/pkg/database/migrations"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
)

func Connect() *sql.DB {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Println("[DB] warning: DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("[DB] open failed:", err)
	}

	// Managed PG can take a few seconds to accept connections on cold
	// start; retry the ping with fibonacci backoff before giving up.
	ctx := context.Background()
	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(db.PingContext(ctx))
	})
	if err != nil {
		log.Fatal("[DB] ping failed:", err)
	}

	log.Println("[DB] PostgreSQL connected")
	return db
}

// Migrate applies the embedded goose migrations.
func Migrate(db *sql.DB) {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("[DB] goose dialect:", err)
	}
	if err := goose.Up(db, "."); err != nil {
		log.Fatal("[DB] migrations failed:", err)
	}
	log.Println("[DB] schema up to date")
}
