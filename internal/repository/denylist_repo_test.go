package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikifeeds-api/internal/repository"
)

var loadAllQuery = regexp.QuoteMeta("SELECT locale, title, reason, created_at FROM most_read_denylist ORDER BY locale, title")

func newMockDB(t *testing.T) (repository.DenylistRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.New(db).Denylist, mock
}

func TestDenylistRepo_LoadAll(t *testing.T) {
	repo, mock := newMockDB(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(loadAllQuery).WillReturnRows(
		sqlmock.NewRows([]string{"locale", "title", "reason", "created_at"}).
			AddRow("*", "Undefined", nil, created).
			AddRow("de", "Zahnbürste", "spam traffic", created),
	)

	entries, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "*", entries[0].Locale)
	assert.Equal(t, "Undefined", entries[0].Title)
	assert.Empty(t, entries[0].Reason)
	assert.Equal(t, created, entries[0].CreatedAt)

	assert.Equal(t, "de", entries[1].Locale)
	assert.Equal(t, "Zahnbürste", entries[1].Title)
	assert.Equal(t, "spam traffic", entries[1].Reason)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDenylistRepo_LoadAll_Empty(t *testing.T) {
	repo, mock := newMockDB(t)
	mock.ExpectQuery(loadAllQuery).WillReturnRows(
		sqlmock.NewRows([]string{"locale", "title", "reason", "created_at"}),
	)

	entries, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDenylistRepo_LoadAll_QueryError(t *testing.T) {
	repo, mock := newMockDB(t)
	queryErr := errors.New("relation does not exist")
	mock.ExpectQuery(loadAllQuery).WillReturnError(queryErr)

	_, err := repo.LoadAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, queryErr))
	assert.Contains(t, err.Error(), "failed to query denylist")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDenylistRepo_LoadAll_RowError(t *testing.T) {
	repo, mock := newMockDB(t)
	rowErr := errors.New("connection reset")
	mock.ExpectQuery(loadAllQuery).WillReturnRows(
		sqlmock.NewRows([]string{"locale", "title", "reason", "created_at"}).
			AddRow("*", "Undefined", nil, time.Now()).
			AddRow("*", "Test_card", nil, time.Now()).
			RowError(1, rowErr),
	)

	_, err := repo.LoadAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, rowErr))
	assert.NoError(t, mock.ExpectationsWereMet())
}
