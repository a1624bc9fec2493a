package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get database URL
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	// Get command
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}

	command := os.Args[1]

	// Connect to database
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP MATERIALIZED VIEW IF EXISTS user_activity_summary CASCADE`,
		`DROP TABLE IF EXISTS weather_votes CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		// One row per user per local voting day, vote_date carries the
		// day resolved in the voter's own timezone.
		`CREATE TABLE IF NOT EXISTS weather_votes (
			id BIGSERIAL PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			user_email VARCHAR(255) NOT NULL,
			is_top10 BOOLEAN NOT NULL,
			temperature INTEGER NOT NULL,
			conditions VARCHAR(255) NOT NULL,
			humidity INTEGER NOT NULL,
			wind_speed INTEGER NOT NULL,
			uv_index DOUBLE PRECISION NOT NULL,
			feels_like INTEGER NOT NULL,
			pressure DOUBLE PRECISION NOT NULL,
			visibility INTEGER NOT NULL,
			location VARCHAR(255) NOT NULL,
			user_agent TEXT,
			is_manual_entry BOOLEAN NOT NULL DEFAULT false,
			vote_date DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(user_id, vote_date)
		)`,

		// Per-user activity rollup for the reminder job
		`CREATE MATERIALIZED VIEW IF NOT EXISTS user_activity_summary AS
		SELECT
			user_id,
			user_email,
			COUNT(*) as total_votes,
			MAX(vote_date) as last_vote_date,
			MAX(created_at) as last_vote_at
		FROM weather_votes
		GROUP BY user_id, user_email`,

		// Create indexes
		`CREATE INDEX IF NOT EXISTS idx_weather_votes_vote_date ON weather_votes(vote_date)`,
		`CREATE INDEX IF NOT EXISTS idx_weather_votes_location ON weather_votes(location)`,
		`CREATE INDEX IF NOT EXISTS idx_weather_votes_user_id ON weather_votes(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_weather_votes_created_at ON weather_votes(created_at DESC)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_user_activity_summary_user_id ON user_activity_summary(user_id)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
		fmt.Printf("  Created: %s\n", getTableName(query))
	}

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	query := `
		INSERT INTO weather_votes (
			user_id, user_email, is_top10, temperature, conditions, humidity,
			wind_speed, uv_index, feels_like, pressure, visibility, location,
			user_agent, is_manual_entry, vote_date
		) VALUES
		('seed-user-1', 'alice@example.com', true,  72, 'Sunny', 40, 5,  6, 73,  29.92, 10, 'Austin, Texas', 'seed', false, CURRENT_DATE),
		('seed-user-2', 'bob@example.com',   false, 98, 'Hot',   20, 12, 9, 104, 29.85, 10, 'Dallas, Texas', 'seed', false, CURRENT_DATE),
		('seed-user-3', 'carol@example.com', true,  70, 'Clear', 35, 4,  5, 70,  30.01, 10, 'Austin, Texas', 'seed', true,  CURRENT_DATE)
		ON CONFLICT (user_id, vote_date) DO NOTHING
	`

	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to seed votes: %w", err)
	}

	fmt.Println("  Seeded 3 votes")

	// Refresh materialized view
	if _, err := conn.Exec(ctx, "REFRESH MATERIALIZED VIEW user_activity_summary"); err != nil {
		return fmt.Errorf("failed to refresh materialized view: %w", err)
	}

	fmt.Println("  Refreshed materialized view")

	return nil
}

func getTableName(query string) string {
	if len(query) > 50 {
		return query[:50] + "..."
	}
	return query
}
