// +build ignore

package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/ignite/newsletter/internal/auth"
)

// Seeds a publishing user so the /newsletters endpoint can be exercised.
//
// Usage: DATABASE_URL=postgres://... go run scripts/seed_publisher.go <username> <password>
func main() {
	if len(os.Args) != 3 {
		log.Fatalf("usage: %s <username> <password>", os.Args[0])
	}
	username, password := os.Args[1], os.Args[2]

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	userID := uuid.New()
	_, err = db.Exec(
		`INSERT INTO users (user_id, username, password_hash) VALUES ($1, $2, $3)
		 ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash`,
		userID, username, hash,
	)
	if err != nil {
		log.Fatalf("insert user: %v", err)
	}

	log.Printf("Publisher %q seeded (user_id: %s)", username, userID)
}
