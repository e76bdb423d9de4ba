package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/btts/internal/model"
	"github.com/fortuna/btts/internal/store"
)

// ErrNotFound is returned when a competition does not exist.
var ErrNotFound = errors.New("competition not found")

// CompetitionRepository handles competition catalog access.
type CompetitionRepository struct {
	db *store.Database
}

// NewCompetitionRepository creates a new competition repository
func NewCompetitionRepository(db *store.Database) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

// Active returns the active competitions keyed by ID.
func (r *CompetitionRepository) Active(ctx context.Context) (map[int]model.Competition, error) {
	query := `
		SELECT competition_id, name, country
		FROM competitions
		WHERE is_active = TRUE
		ORDER BY competition_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying competitions: %w", err)
	}
	defer rows.Close()

	out := make(map[int]model.Competition)
	for rows.Next() {
		var c model.Competition
		if err := rows.Scan(&c.ID, &c.Name, &c.Country); err != nil {
			return nil, fmt.Errorf("scanning competition: %w", err)
		}
		out[c.ID] = c
	}

	return out, rows.Err()
}

// GetByID finds a competition by ID, active or not.
func (r *CompetitionRepository) GetByID(ctx context.Context, id int) (model.Competition, bool, error) {
	query := r.db.Rebind(`
		SELECT competition_id, name, country, is_active
		FROM competitions
		WHERE competition_id = $1
	`)

	var (
		c      model.Competition
		active bool
	)
	err := r.db.DB().QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Country, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Competition{}, false, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return model.Competition{}, false, fmt.Errorf("querying competition %d: %w", id, err)
	}

	return c, active, nil
}

// SetActive enables or disables a competition.
func (r *CompetitionRepository) SetActive(ctx context.Context, id int, active bool) error {
	query := r.db.Rebind(`
		UPDATE competitions
		SET is_active = $1, updated_at = CURRENT_TIMESTAMP
		WHERE competition_id = $2
	`)

	res, err := r.db.DB().ExecContext(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("updating competition %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}
