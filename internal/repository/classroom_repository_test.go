package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-scheduler/internal/models"
)

func TestClassroomRepositoryListClassrooms(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewClassroomRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "building", "room_number", "capacity", "features", "created_at", "updated_at"}).
		AddRow("room-1", "ENG", "101", 40, []byte(`{"projector":true,"whiteboard":false}`), now, now).
		AddRow("room-2", "SCI", "B2", 120, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM classrooms WHERE building = $1 AND capacity >= $2 ORDER BY building ASC, room_number ASC")).
		WithArgs("ENG", 30).
		WillReturnRows(rows)

	rooms, err := repo.ListClassrooms(context.Background(), models.ClassroomFilter{Building: "ENG", MinCapacity: 30})
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.True(t, rooms[0].HasFeature("projector"))
	assert.False(t, rooms[0].HasFeature("whiteboard"))
	assert.Equal(t, "ENG 101", rooms[0].Label())
	assert.NotNil(t, rooms[1].Features)
	require.NoError(t, mock.ExpectationsWereMet())
}
