package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
)

// useradd provisions a user onto the allow-list when the gateway runs
// with access.mode=database.
func main() {
	user := flag.String("user", "", "user ID to allow (required)")
	note := flag.String("note", "", "free-form note (who this is)")
	dbURL := flag.String("db-url", "", "database URL (overrides env)")
	flag.Parse()

	if *user == "" {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "\nerror: -user is required")
		os.Exit(1)
	}

	dsn := *dbURL
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		host := envOrDefault("DB_HOST", "localhost")
		port := envOrDefault("DB_PORT", "5432")
		u := envOrDefault("DB_USER", "zhenzhen")
		pass := envOrDefault("DB_PASSWORD", "zhenzhen-dev")
		name := envOrDefault("DB_NAME", "zhenzhen")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", u, pass, host, port, name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, `
		INSERT INTO allowed_users (user_id, note, status)
		VALUES ($1, $2, 'active')
		ON CONFLICT (user_id) DO UPDATE SET status = 'active', note = EXCLUDED.note
	`, *user, *note)
	if err != nil {
		log.Fatalf("failed to insert user: %v", err)
	}

	fmt.Printf("user %s allowed\n", *user)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
