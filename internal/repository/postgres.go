package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/yourusername/fortnite-stats-analyzer/internal/models"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// PostgresRepo stores the lookup history.
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(databaseURL string) (*PostgresRepo, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepo{DB: db}, nil
}

func (r *PostgresRepo) HealthCheck(ctx context.Context) bool {
	return r.DB.PingContext(ctx) == nil
}

func (r *PostgresRepo) Close() error {
	return r.DB.Close()
}

// RunMigrations runs the schema migrations
func (r *PostgresRepo) RunMigrations(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS lookups (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			matches_played INT NOT NULL DEFAULT 0,
			looked_up_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_lookups_looked_up_at ON lookups(looked_up_at DESC);
		CREATE INDEX IF NOT EXISTS idx_lookups_username ON lookups(LOWER(username));
	`

	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

// RecordLookup stores one stats lookup. Re-recording the same ID is a no-op.
func (r *PostgresRepo) RecordLookup(ctx context.Context, rec *models.LookupRecord) error {
	query := `INSERT INTO lookups (id, username, display_name, outcome, matches_played, looked_up_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`
	_, err := r.DB.ExecContext(ctx, query, rec.ID, rec.Username, rec.DisplayName, string(rec.Outcome), rec.MatchesPlayed, rec.LookedUpAt)
	if err != nil {
		return fmt.Errorf("recording lookup for %q: %w", rec.Username, err)
	}
	return nil
}

// RecentLookups returns the newest lookups first. limit is clamped to
// [1, 100]; zero or negative selects the default of 20.
func (r *PostgresRepo) RecentLookups(ctx context.Context, limit int) ([]models.LookupRecord, error) {
	limit = ClampLimit(limit)

	query := `
		SELECT id, username, display_name, outcome, matches_played, looked_up_at
		FROM lookups
		ORDER BY looked_up_at DESC
		LIMIT $1
	`

	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent lookups: %w", err)
	}
	defer rows.Close()

	records := make([]models.LookupRecord, 0, limit)
	for rows.Next() {
		var rec models.LookupRecord
		var outcome string
		if err := rows.Scan(&rec.ID, &rec.Username, &rec.DisplayName, &outcome, &rec.MatchesPlayed, &rec.LookedUpAt); err != nil {
			return nil, fmt.Errorf("scanning lookup: %w", err)
		}
		rec.Outcome = models.Outcome(outcome)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRecentLimit
	case limit > maxRecentLimit:
		return maxRecentLimit
	default:
		return limit
	}
}
