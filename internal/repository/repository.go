package repository

import (
	"context"
	"database/sql"

	"github.com/wikifeeds-api/internal/models"
)

// Querier is the part of *sql.DB the repositories need
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DenylistRepository defines the interface for stored denylist entries
type DenylistRepository interface {
	LoadAll(ctx context.Context) ([]models.DenylistEntry, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Denylist DenylistRepository
}

// New creates all repositories with the given database connection
func New(db Querier) *Repositories {
	return &Repositories{
		Denylist: NewDenylistRepo(db),
	}
}
