package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-scheduler/internal/models"
	appErrors "github.com/noah-isme/campus-scheduler/pkg/errors"
)

type stubProfileFinder struct {
	studentID    string
	instructorID string
	err          error
}

func (s stubProfileFinder) FindStudentIDByUser(context.Context, string) (string, error) {
	if s.studentID == "" && s.err == nil {
		return "", sql.ErrNoRows
	}
	return s.studentID, s.err
}

func (s stubProfileFinder) FindInstructorIDByUser(context.Context, string) (string, error) {
	if s.instructorID == "" && s.err == nil {
		return "", sql.ErrNoRows
	}
	return s.instructorID, s.err
}

type stubStudentEnrollments struct {
	enrollments []models.Enrollment
}

func (s stubStudentEnrollments) ListActiveByStudent(context.Context, string) ([]models.Enrollment, error) {
	return s.enrollments, nil
}

type stubAssignmentLister struct {
	assignments []models.Assignment
	err         error
	calls       int
}

func (s *stubAssignmentLister) ListAssignmentsForSections(context.Context, []string) ([]models.Assignment, error) {
	s.calls++
	return s.assignments, s.err
}

type memoryWeeklyCache struct {
	items map[string][]byte
}

func (c *memoryWeeklyCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryWeeklyCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = raw
	return nil
}

func weeklyFixture(profiles stubProfileFinder) (*WeeklyScheduleService, *stubSectionLister, *stubAssignmentLister) {
	sections := &stubSectionLister{sections: []models.Section{
		{ID: "sec-1", CourseCode: "CS101", CourseName: "Intro", SectionNumber: "1", InstructorID: "inst-1"},
		{ID: "sec-2", CourseCode: "MA201", CourseName: "Calculus", SectionNumber: "2", InstructorID: "inst-2"},
	}}
	assignments := &stubAssignmentLister{assignments: []models.Assignment{
		{ID: "a1", SectionID: "sec-1", DayOfWeek: "MONDAY", StartTime: "13:30", EndTime: "15:00", ClassroomID: "room-1"},
		{ID: "a2", SectionID: "sec-2", DayOfWeek: "MONDAY", StartTime: "9:00", EndTime: "10:30", ClassroomID: "room-1"},
		{ID: "a3", SectionID: "sec-2", MeetingIndex: 1, DayOfWeek: "wed", StartTime: "10:45", EndTime: "12:15", ClassroomID: "room-2"},
	}}
	classrooms := &stubClassroomLister{classrooms: []models.Classroom{
		{ID: "room-1", Building: "Science", RoomNumber: "101"},
		{ID: "room-2", Building: "Arts", RoomNumber: "7"},
	}}
	enrollments := stubStudentEnrollments{enrollments: []models.Enrollment{
		{StudentID: "stu-1", SectionID: "sec-1", Status: models.EnrollmentStatusActive},
		{StudentID: "stu-1", SectionID: "sec-2", Status: models.EnrollmentStatusActive},
	}}
	svc := NewWeeklyScheduleService(profiles, enrollments, sections, classrooms, assignments, nil, 0, nil)
	return svc, sections, assignments
}

func TestWeeklyScheduleStudentSortedByStartMinute(t *testing.T) {
	svc, sections, _ := weeklyFixture(stubProfileFinder{studentID: "stu-1"})

	schedule, err := svc.GetUserSchedule(context.Background(), "user-1", "student")
	require.NoError(t, err)
	assert.Len(t, schedule, 7)
	require.Len(t, schedule[models.Monday], 2)
	assert.Equal(t, "MA201", schedule[models.Monday][0].CourseCode)
	assert.Equal(t, "CS101", schedule[models.Monday][1].CourseCode)
	assert.Equal(t, "Science 101", schedule[models.Monday][1].Location())

	require.Len(t, schedule[models.Wednesday], 1)
	assert.Equal(t, "WEDNESDAY", schedule[models.Wednesday][0].DayOfWeek)
	assert.Equal(t, "Arts", schedule[models.Wednesday][0].Building)
	assert.Empty(t, schedule[models.Sunday])

	assert.Equal(t, []string{"sec-1", "sec-2"}, sections.filter.IDs)
	assert.True(t, sections.filter.IncludeDeleted)
}

func TestWeeklyScheduleFacultyFiltersByInstructor(t *testing.T) {
	svc, sections, _ := weeklyFixture(stubProfileFinder{instructorID: "inst-1"})

	schedule, err := svc.GetUserSchedule(context.Background(), "user-2", "FACULTY")
	require.NoError(t, err)
	assert.Equal(t, "inst-1", sections.filter.InstructorID)
	assert.False(t, sections.filter.IncludeDeleted)
	assert.Equal(t, 3, schedule.Len())
}

func TestWeeklyScheduleEmptyCases(t *testing.T) {
	svc, _, assignments := weeklyFixture(stubProfileFinder{})

	schedule, err := svc.GetUserSchedule(context.Background(), "user-3", "student")
	require.NoError(t, err)
	assert.Len(t, schedule, 7)
	assert.Zero(t, schedule.Len())

	schedule, err = svc.GetUserSchedule(context.Background(), "user-3", "admin")
	require.NoError(t, err)
	assert.Len(t, schedule, 7)
	assert.Zero(t, schedule.Len())
	assert.Zero(t, assignments.calls)
}

func TestWeeklyScheduleStorageFailurePropagates(t *testing.T) {
	cause := errors.New("db down")
	svc, _, assignments := weeklyFixture(stubProfileFinder{studentID: "stu-1"})
	assignments.err = cause

	_, err := svc.GetUserSchedule(context.Background(), "user-1", "student")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))

	svc, _, _ = weeklyFixture(stubProfileFinder{err: cause})
	_, err = svc.GetUserSchedule(context.Background(), "user-1", "faculty")
	assert.ErrorIs(t, err, cause)
}

func TestWeeklyScheduleUsesCache(t *testing.T) {
	svc, _, assignments := weeklyFixture(stubProfileFinder{studentID: "stu-1"})
	cache := &memoryWeeklyCache{items: map[string][]byte{}}
	svc.cache = cache
	svc.cacheTTL = time.Minute

	first, err := svc.GetUserSchedule(context.Background(), "user-1", "student")
	require.NoError(t, err)
	assert.Contains(t, cache.items, "schedule:weekly:student:user-1")

	second, err := svc.GetUserSchedule(context.Background(), "user-1", "student")
	require.NoError(t, err)
	assert.Equal(t, 1, assignments.calls)
	assert.Equal(t, first, second)
}
