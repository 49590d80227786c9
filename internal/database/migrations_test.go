package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMigrationsExecutesAllFiles(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	names, err := MigrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for range names {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, ApplyMigrations(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMigrationsStopsOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(".*").WillReturnError(errors.New("syntax error"))

	err = ApplyMigrations(context.Background(), db)
	assert.ErrorContains(t, err, "001_")
	assert.NoError(t, mock.ExpectationsWereMet())
}
