// Command promote sets a user's role to admin by email address.
// It is used to bootstrap the first admin user.
//
// Usage:
//
//	promote --email=user@example.com
//
// Requires DOCUMENTS_DSN environment variable to be set.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/promptboard/internal/adapter/postgres/document"
	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
)

func main() {
	email := flag.String("email", "", "email of user to promote to admin")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "Usage: promote --email=user@example.com")
		os.Exit(1)
	}

	dsn := os.Getenv("DOCUMENTS_DSN")
	if dsn == "" {
		log.Fatal("DOCUMENTS_DSN environment variable is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer pool.Close()

	docs := document.New(pool)

	found, err := docs.Query(ctx, docstore.Users, docstore.Where("email", strings.ToLower(strings.TrimSpace(*email))))
	if err != nil {
		log.Fatalf("find user: %v", err)
	}

	promoted := 0
	for _, d := range found {
		var u struct {
			Role string `json:"role"`
		}
		if err := json.Unmarshal(d.Data, &u); err != nil || u.Role == string(domain.UserRoleAdmin) {
			continue
		}
		if err := docs.Update(ctx, d.Path, docstore.Fields{"role": string(domain.UserRoleAdmin)}); err != nil {
			log.Fatalf("update role: %v", err)
		}
		promoted++
	}

	if promoted == 0 {
		fmt.Printf("No user found with email %q, or already admin.\n", *email)
		os.Exit(1)
	}

	fmt.Printf("User %q promoted to admin.\n", *email)
}
