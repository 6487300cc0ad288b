package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepositoryFindStudentIDByUser(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM students WHERE user_id = $1")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("stu-1"))

	id, err := repo.FindStudentIDByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "stu-1", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryMissingInstructor(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM instructors WHERE user_id = $1")).
		WithArgs("user-2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindInstructorIDByUser(context.Background(), "user-2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
