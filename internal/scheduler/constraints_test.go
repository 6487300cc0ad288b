package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-scheduler/internal/models"
)

var (
	mon0900 = models.TimeSlot{DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:30"}
	mon1000 = models.TimeSlot{DayOfWeek: "MONDAY", StartTime: "10:00", EndTime: "11:00"}
	mon1045 = models.TimeSlot{DayOfWeek: "MONDAY", StartTime: "10:45", EndTime: "12:15"}
	mon1330 = models.TimeSlot{DayOfWeek: "MONDAY", StartTime: "13:30", EndTime: "15:00"}
	tue0900 = models.TimeSlot{DayOfWeek: "TUESDAY", StartTime: "09:00", EndTime: "10:30"}
)

func section(id, instructor string, capacity int) models.Section {
	return models.Section{ID: id, CourseCode: "CS" + id, CourseName: "Course " + id, SectionNumber: "01", InstructorID: instructor, Capacity: capacity}
}

func room(id string, capacity int, features ...string) models.Classroom {
	f := models.ClassroomFeatures{}
	for _, name := range features {
		f[name] = true
	}
	return models.Classroom{ID: id, Building: "ENG", RoomNumber: id, Capacity: capacity, Features: f}
}

func enroll(student, sectionID string) models.Enrollment {
	return models.Enrollment{StudentID: student, SectionID: sectionID, Status: models.EnrollmentStatusActive}
}

func TestIsFeasibleInstructorDoubleBooking(t *testing.T) {
	sections := []models.Section{section("s1", "i1", 10), section("s2", "i1", 10)}
	state := NewSearchState(sections, nil, DefaultConstraints())
	require.NoError(t, state.Commit(MeetingKey{SectionID: "s1"}, "r1", mon0900))

	assert.False(t, IsFeasible(sections[1], room("r2", 30), mon1000, state))
	assert.True(t, IsFeasible(sections[1], room("r2", 30), mon1045, state))
	assert.True(t, IsFeasible(sections[1], room("r2", 30), tue0900, state))

	state = NewSearchState(sections, nil, Constraints{NoClassroomDoubleBooking: true})
	require.NoError(t, state.Commit(MeetingKey{SectionID: "s1"}, "r1", mon0900))
	assert.True(t, IsFeasible(sections[1], room("r2", 30), mon1000, state))
}

func TestIsFeasibleClassroomDoubleBooking(t *testing.T) {
	sections := []models.Section{section("s1", "i1", 10), section("s2", "i2", 10)}
	state := NewSearchState(sections, nil, DefaultConstraints())
	require.NoError(t, state.Commit(MeetingKey{SectionID: "s1"}, "r1", mon0900))

	assert.False(t, IsFeasible(sections[1], room("r1", 30), mon1000, state))
	assert.True(t, IsFeasible(sections[1], room("r2", 30), mon1000, state))
	assert.True(t, IsFeasible(sections[1], room("r1", 30), mon1045, state))

	violations := Violations(sections[1], room("r1", 30), mon1000, state)
	require.Len(t, violations, 1)
	assert.Equal(t, ConstraintClassroom, violations[0].Constraint)
	assert.Equal(t, "s1", violations[0].ConflictSectionID)
}

func TestIsFeasibleStudentConflict(t *testing.T) {
	sections := []models.Section{section("s1", "i1", 10), section("s2", "i2", 10), section("s3", "i3", 10)}
	enrollments := []models.Enrollment{
		enroll("st1", "s1"),
		enroll("st1", "s2"),
		{StudentID: "st2", SectionID: "s3", Status: models.EnrollmentStatusDropped},
		{StudentID: "st2", SectionID: "s1", Status: models.EnrollmentStatusDropped},
		enroll("st3", "outside-batch"),
	}
	state := NewSearchState(sections, enrollments, DefaultConstraints())
	require.NoError(t, state.Commit(MeetingKey{SectionID: "s1"}, "r1", mon0900))

	assert.False(t, IsFeasible(sections[1], room("r2", 30), mon1000, state))
	assert.True(t, IsFeasible(sections[2], room("r2", 30), mon1000, state))

	violations := Violations(sections[1], room("r2", 30), mon1000, state)
	require.Len(t, violations, 1)
	assert.Equal(t, ConstraintStudent, violations[0].Constraint)
	assert.Equal(t, "st1", violations[0].ConflictStudentID)
}

func TestIsFeasibleCapacityAndFeatures(t *testing.T) {
	lab := section("s1", "i1", 40)
	lab.RequiredFeatures = []string{"projector", "computers"}
	state := NewSearchState([]models.Section{lab}, nil, DefaultConstraints())

	assert.False(t, IsFeasible(lab, room("r1", 30, "projector", "computers"), mon0900, state))
	assert.False(t, IsFeasible(lab, room("r2", 60, "projector"), mon0900, state))
	assert.True(t, IsFeasible(lab, room("r3", 40, "projector", "computers"), mon0900, state))

	falseFlag := room("r4", 60, "projector")
	falseFlag.Features["computers"] = false
	assert.False(t, IsFeasible(lab, falseFlag, mon0900, state))

	violations := Violations(lab, room("r5", 10), mon0900, state)
	names := make([]string, 0, len(violations))
	for _, v := range violations {
		names = append(names, v.Constraint)
	}
	assert.Equal(t, []string{ConstraintCapacity, ConstraintFeatures, ConstraintFeatures}, names)

	relaxed := NewSearchState([]models.Section{lab}, nil, Constraints{})
	assert.True(t, IsFeasible(lab, room("r5", 10), mon0900, relaxed))
}

func TestIsFeasibleRejectsMalformedSlot(t *testing.T) {
	s := section("s1", "i1", 10)
	state := NewSearchState([]models.Section{s}, nil, DefaultConstraints())
	assert.False(t, IsFeasible(s, room("r1", 30), models.TimeSlot{DayOfWeek: "MONDAY", StartTime: "10:00", EndTime: "09:00"}, state))
}

func TestSearchStateUndo(t *testing.T) {
	sections := []models.Section{section("s1", "i1", 10), section("s2", "i1", 10)}
	state := NewSearchState(sections, nil, DefaultConstraints())
	key := MeetingKey{SectionID: "s1"}
	require.NoError(t, state.Commit(key, "r1", mon0900))
	assert.Equal(t, 1, state.Len())
	assert.False(t, IsFeasible(sections[1], room("r1", 30), mon0900, state))

	state.Undo(key)
	assert.Equal(t, 0, state.Len())
	assert.True(t, IsFeasible(sections[1], room("r1", 30), mon0900, state))
}

func TestParseConstraintNames(t *testing.T) {
	c, err := ParseConstraintNames([]string{"noInstructorDoubleBooking", "classroomCapacity"})
	require.NoError(t, err)
	assert.Equal(t, Constraints{NoInstructorDoubleBooking: true, ClassroomCapacity: true}, c)
	assert.Equal(t, []string{ConstraintInstructor, ConstraintCapacity}, c.Names())

	_, err = ParseConstraintNames([]string{"noLunchOnFriday"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Len(t, DefaultConstraints().Names(), 5)
}

func TestValidateAssignmentsReportsEachConflict(t *testing.T) {
	sections := []models.Section{section("s1", "i1", 10), section("s2", "i1", 50)}
	classrooms := []models.Classroom{room("r1", 30)}
	assignments := []models.Assignment{
		{SectionID: "s1", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:30", ClassroomID: "r1"},
		{SectionID: "s2", DayOfWeek: "MONDAY", StartTime: "10:00", EndTime: "11:00", ClassroomID: "r1"},
	}
	violations := ValidateAssignments(assignments, sections, classrooms, nil, DefaultConstraints())
	names := make(map[string]int)
	for _, v := range violations {
		names[v.Constraint]++
	}
	assert.Equal(t, map[string]int{ConstraintCapacity: 1, ConstraintClassroom: 1, ConstraintInstructor: 1}, names)

	missing := ValidateAssignments(assignments[:1], sections, classrooms, nil, DefaultConstraints())
	require.Len(t, missing, 1)
	assert.Equal(t, "unassigned", missing[0].Constraint)
	assert.Equal(t, "s2", missing[0].SectionID)
}
