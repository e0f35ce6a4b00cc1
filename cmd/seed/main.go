package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/snap-point/social-posts/config"
)

var samplePosts = []string{
	"hello",
	"first day on the new stack",
	"anyone up for coffee?",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database not responding: %w", err)
	}

	fmt.Println("Seeding posts...")

	table := pgx.Identifier{"posts"}
	if cfg.Database.Schema != "" {
		table = pgx.Identifier{cfg.Database.Schema, "posts"}
	}
	query := fmt.Sprintf("INSERT INTO %s (content) VALUES ($1) RETURNING id", table.Sanitize())

	for _, content := range samplePosts {
		var id int64
		if err := pool.QueryRow(ctx, query, content).Scan(&id); err != nil {
			fmt.Printf("ERROR: %q: %v\n", content, err)
			continue
		}
		fmt.Printf("SUCCESS: post %d\n", id)
	}

	fmt.Println("Seed completed")
	return nil
}
