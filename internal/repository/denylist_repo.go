package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wikifeeds-api/internal/models"
)

const loadDenylistQuery = `
		SELECT locale, title, reason, created_at
		FROM most_read_denylist
		ORDER BY locale, title
	`

// denylistRepo is the Postgres implementation of DenylistRepository
type denylistRepo struct {
	db Querier
}

// NewDenylistRepo creates a new denylist repository
func NewDenylistRepo(db Querier) DenylistRepository {
	return &denylistRepo{db: db}
}

// LoadAll returns every stored entry ordered by locale and title
func (r *denylistRepo) LoadAll(ctx context.Context) ([]models.DenylistEntry, error) {
	rows, err := r.db.QueryContext(ctx, loadDenylistQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query denylist: %w", err)
	}
	defer rows.Close()

	var entries []models.DenylistEntry
	for rows.Next() {
		var e models.DenylistEntry
		var reason sql.NullString
		if err := rows.Scan(&e.Locale, &e.Title, &reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan denylist row: %w", err)
		}
		e.Reason = reason.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read denylist rows: %w", err)
	}

	return entries, nil
}
