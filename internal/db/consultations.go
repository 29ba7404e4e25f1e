package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a consultation does not exist
var ErrNotFound = errors.New("consultation not found")

// Consultation is one processed free-text query
type Consultation struct {
	ID         uuid.UUID `json:"id"`
	Query      string    `json:"query"`
	Tasks      []string  `json:"tasks"`
	Categories []string  `json:"categories"`
	Response   string    `json:"response"`
	Outcome    string    `json:"outcome"` // answered, apology
	DurationMs int       `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// SaveConsultation inserts c, assigning an ID and timestamp when unset
func (db *DB) SaveConsultation(ctx context.Context, c *Consultation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Tasks == nil {
		c.Tasks = []string{}
	}
	if c.Categories == nil {
		c.Categories = []string{}
	}

	query := `
		INSERT INTO consultations (
			id, query, tasks, categories, response, outcome, duration_ms, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := db.pool.Exec(
		ctx,
		query,
		c.ID,
		c.Query,
		c.Tasks,
		c.Categories,
		c.Response,
		c.Outcome,
		c.DurationMs,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert consultation: %w", err)
	}
	return nil
}

// GetConsultation retrieves a consultation by ID
func (db *DB) GetConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	query := `
		SELECT id, query, tasks, categories, response, outcome, duration_ms, created_at
		FROM consultations
		WHERE id = $1
	`

	var c Consultation
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Query, &c.Tasks, &c.Categories, &c.Response, &c.Outcome, &c.DurationMs, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}
	return &c, nil
}

// RecentConsultations returns the latest consultations, newest first
func (db *DB) RecentConsultations(ctx context.Context, limit int) ([]Consultation, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, query, tasks, categories, response, outcome, duration_ms, created_at
		FROM consultations
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := db.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query consultations: %w", err)
	}
	defer rows.Close()

	var out []Consultation
	for rows.Next() {
		var c Consultation
		if err := rows.Scan(
			&c.ID, &c.Query, &c.Tasks, &c.Categories, &c.Response, &c.Outcome, &c.DurationMs, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan consultation: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate consultations: %w", err)
	}
	return out, nil
}
