package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-scheduler/internal/models"
)

var sectionRowColumns = []string{
	"id", "course_id", "course_code", "course_name", "section_number", "instructor_id", "term_id",
	"capacity", "required_features", "is_required", "meetings_per_week", "deleted_at", "created_at", "updated_at",
}

func TestSectionRepositoryListSectionsKeepsRequestedOrder(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(sectionRowColumns).
		AddRow("sec-1", "c-1", "CS101", "Intro", "01", "ins-1", "term-1", 30, "{projector}", true, 2, nil, now, now).
		AddRow("sec-2", "c-2", "CS201", "Data", "01", "ins-2", "term-1", 25, "{}", false, 1, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sections s JOIN courses c ON c.id = s.course_id WHERE s.id = ANY($1) AND s.deleted_at IS NULL ORDER BY c.code ASC")).
		WithArgs(pq.Array([]string{"sec-2", "sec-1"})).
		WillReturnRows(rows)

	sections, err := repo.ListSections(context.Background(), models.SectionFilter{IDs: []string{"sec-2", "sec-1"}})
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "sec-2", sections[0].ID)
	assert.Equal(t, "sec-1", sections[1].ID)
	assert.Equal(t, []string{"projector"}, []string(sections[1].RequiredFeatures))
	assert.Equal(t, 2, sections[1].MeetingsPerWeek)
	assert.True(t, sections[1].IsRequired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryListSectionsByInstructor(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.term_id = $1 AND s.instructor_id = $2 ORDER BY")).
		WithArgs("term-1", "ins-1").
		WillReturnRows(sqlmock.NewRows(sectionRowColumns))

	sections, err := repo.ListSections(context.Background(), models.SectionFilter{TermID: "term-1", InstructorID: "ins-1", IncludeDeleted: true})
	require.NoError(t, err)
	assert.Empty(t, sections)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryListSectionsError(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM sections").WillReturnError(boom)

	_, err := repo.ListSections(context.Background(), models.SectionFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestOrderByIDs(t *testing.T) {
	items := []string{"a", "b", "c", "x"}
	got := orderByIDs(items, []string{"c", "a", "b"}, func(s string) string { return s })
	assert.Equal(t, []string{"c", "a", "b", "x"}, got)
}
