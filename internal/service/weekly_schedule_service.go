package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-scheduler/internal/models"
	"github.com/noah-isme/campus-scheduler/internal/scheduler"
	appErrors "github.com/noah-isme/campus-scheduler/pkg/errors"
)

type profileFinder interface {
	FindStudentIDByUser(ctx context.Context, userID string) (string, error)
	FindInstructorIDByUser(ctx context.Context, userID string) (string, error)
}

type studentEnrollmentLister interface {
	ListActiveByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type assignmentLister interface {
	ListAssignmentsForSections(ctx context.Context, sectionIDs []string) ([]models.Assignment, error)
}

type weeklyCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// WeeklyScheduleService assembles a user's timetable from persisted
// assignments.
type WeeklyScheduleService struct {
	profiles    profileFinder
	enrollments studentEnrollmentLister
	sections    sectionLister
	classrooms  classroomLister
	assignments assignmentLister
	cache       weeklyCache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewWeeklyScheduleService constructs the service. cache may be nil.
func NewWeeklyScheduleService(
	profiles profileFinder,
	enrollments studentEnrollmentLister,
	sections sectionLister,
	classrooms classroomLister,
	assignments assignmentLister,
	cache weeklyCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *WeeklyScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeeklyScheduleService{
		profiles:    profiles,
		enrollments: enrollments,
		sections:    sections,
		classrooms:  classrooms,
		assignments: assignments,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// GetUserSchedule returns the seven-day schedule for a student or faculty
// user. Other roles and users without a profile get an empty schedule.
func (s *WeeklyScheduleService) GetUserSchedule(ctx context.Context, userID, role string) (models.WeeklySchedule, error) {
	normalized := models.UserRole(strings.ToUpper(strings.TrimSpace(role)))
	if normalized != models.RoleStudent && normalized != models.RoleFaculty {
		return models.NewWeeklySchedule(), nil
	}

	key := fmt.Sprintf("schedule:weekly:%s:%s", strings.ToLower(string(normalized)), userID)
	if s.cache != nil {
		var cached models.WeeklySchedule
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("weekly schedule cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return fillDays(cached), nil
		}
	}

	var (
		sections []models.Section
		err      error
	)
	if normalized == models.RoleStudent {
		sections, err = s.studentSections(ctx, userID)
	} else {
		sections, err = s.facultySections(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	schedule, err := s.build(ctx, sections)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, schedule, s.cacheTTL); err != nil {
			s.logger.Warn("weekly schedule cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return schedule, nil
}

func (s *WeeklyScheduleService) studentSections(ctx context.Context, userID string) ([]models.Section, error) {
	studentID, err := s.profiles.FindStudentIDByUser(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	enrollments, err := s.enrollments.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	if len(enrollments) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.SectionID)
	}
	// Students keep seeing sections they are enrolled in after a soft delete.
	sections, err := s.sections.ListSections(ctx, models.SectionFilter{IDs: ids, IncludeDeleted: true})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}
	return sections, nil
}

func (s *WeeklyScheduleService) facultySections(ctx context.Context, userID string) ([]models.Section, error) {
	instructorID, err := s.profiles.FindInstructorIDByUser(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor profile")
	}
	sections, err := s.sections.ListSections(ctx, models.SectionFilter{InstructorID: instructorID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}
	return sections, nil
}

func (s *WeeklyScheduleService) build(ctx context.Context, sections []models.Section) (models.WeeklySchedule, error) {
	schedule := models.NewWeeklySchedule()
	if len(sections) == 0 {
		return schedule, nil
	}

	ids := make([]string, 0, len(sections))
	for _, section := range sections {
		ids = append(ids, section.ID)
	}
	assignments, err := s.assignments.ListAssignmentsForSections(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	if len(assignments) == 0 {
		return schedule, nil
	}

	roomIDs := make([]string, 0, len(assignments))
	seen := make(map[string]bool)
	for _, a := range assignments {
		if !seen[a.ClassroomID] {
			seen[a.ClassroomID] = true
			roomIDs = append(roomIDs, a.ClassroomID)
		}
	}
	rooms, err := s.classrooms.ListClassrooms(ctx, models.ClassroomFilter{IDs: roomIDs})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}
	return BuildWeeklySchedule(assignments, sections, rooms), nil
}

// BuildWeeklySchedule buckets assignments by day and joins section and room
// details. Assignments with an unrecognised day are dropped.
func BuildWeeklySchedule(assignments []models.Assignment, sections []models.Section, classrooms []models.Classroom) models.WeeklySchedule {
	schedule := models.NewWeeklySchedule()
	byID := make(map[string]models.Section, len(sections))
	for _, section := range sections {
		byID[section.ID] = section
	}
	roomByID := make(map[string]models.Classroom, len(classrooms))
	for _, room := range classrooms {
		roomByID[room.ID] = room
	}

	for _, a := range assignments {
		day, ok := scheduler.NormalizeDay(a.DayOfWeek)
		if !ok {
			continue
		}
		section := byID[a.SectionID]
		room := roomByID[a.ClassroomID]
		schedule[day] = append(schedule[day], models.ScheduleEntry{
			SectionID:     a.SectionID,
			MeetingIndex:  a.MeetingIndex,
			CourseCode:    section.CourseCode,
			CourseName:    section.CourseName,
			SectionNumber: section.SectionNumber,
			InstructorID:  section.InstructorID,
			DayOfWeek:     string(day),
			StartTime:     a.StartTime,
			EndTime:       a.EndTime,
			ClassroomID:   a.ClassroomID,
			Building:      room.Building,
			RoomNumber:    room.RoomNumber,
		})
	}
	for day := range schedule {
		sortEntries(schedule[day])
	}
	return schedule
}

// sortEntries orders by start minute, not by the clock string, so "9:00"
// precedes "10:00".
func sortEntries(entries []models.ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, errA := scheduler.ParseClock(entries[i].StartTime)
		b, errB := scheduler.ParseClock(entries[j].StartTime)
		if errA != nil || errB != nil {
			return entries[i].StartTime < entries[j].StartTime
		}
		if a != b {
			return a < b
		}
		return entries[i].CourseCode < entries[j].CourseCode
	})
}

func fillDays(schedule models.WeeklySchedule) models.WeeklySchedule {
	if schedule == nil {
		return models.NewWeeklySchedule()
	}
	for _, day := range models.Weekdays {
		if schedule[day] == nil {
			schedule[day] = []models.ScheduleEntry{}
		}
	}
	return schedule
}
