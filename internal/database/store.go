package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the data access interface for the publication history.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SavePublication inserts a new publication record.
	SavePublication(ctx context.Context, pub *Publication) error

	// RecentPublications retrieves the most recent 'limit' publications
	// for a user, newest first.
	RecentPublications(ctx context.Context, userID int64, limit int) ([]Publication, error)
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SavePublication(ctx context.Context, pub *Publication) error {
	if pub == nil {
		return fmt.Errorf("cannot save nil publication")
	}
	if pub.UserID == 0 {
		return fmt.Errorf("publication must have a non-zero user_id")
	}
	if pub.CreatedAt.IsZero() {
		pub.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO publications (user_id, prompt, prompt_index, channel_count, delivered_count, outcome, created_at)
        VALUES (:user_id, :prompt, :prompt_index, :channel_count, :delivered_count, :outcome, :created_at);
    `

	if _, err := s.db.NamedExecContext(ctx, query, pub); err != nil {
		s.logger.ErrorContext(ctx, "Error saving publication", "user_id", pub.UserID, "error", err)
		return fmt.Errorf("failed to save publication: %w", err)
	}
	return nil
}

func (s *sqlxStore) RecentPublications(ctx context.Context, userID int64, limit int) ([]Publication, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
        SELECT id, user_id, prompt, prompt_index, channel_count, delivered_count, outcome, created_at
        FROM publications
        WHERE user_id = ?
        ORDER BY created_at DESC, id DESC
        LIMIT ?;
    `

	var pubs []Publication
	if err := s.db.SelectContext(ctx, &pubs, query, userID, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error fetching publications", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to fetch publications: %w", err)
	}
	return pubs, nil
}
