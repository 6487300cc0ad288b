package service

import (
	"context"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-scheduler/internal/models"
	appErrors "github.com/noah-isme/campus-scheduler/pkg/errors"
	"github.com/noah-isme/campus-scheduler/pkg/storage"
)

type stubWeeklyReader struct {
	schedule models.WeeklySchedule
	userID   string
	role     string
}

func (s *stubWeeklyReader) GetUserSchedule(_ context.Context, userID, role string) (models.WeeklySchedule, error) {
	s.userID, s.role = userID, role
	return s.schedule, nil
}

func mondayClass() models.WeeklySchedule {
	schedule := models.NewWeeklySchedule()
	schedule[models.Monday] = []models.ScheduleEntry{{
		SectionID:     "sec-1",
		CourseCode:    "CS101",
		CourseName:    "Intro to Programming",
		SectionNumber: "1",
		DayOfWeek:     "MONDAY",
		StartTime:     "09:00",
		EndTime:       "10:30",
		Building:      "Science",
		RoomNumber:    "101",
	}}
	return schedule
}

func newCalendarFixture(weekly *stubWeeklyReader, loc *time.Location) *CalendarExportService {
	svc := NewCalendarExportService(weekly, storage.NewFeedSigner("secret", time.Hour), nil, nil, CalendarConfig{Location: loc, UIDDomain: "test.local"})
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC) }
	return svc
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateICalFourMondays(t *testing.T) {
	svc := newCalendarFixture(&stubWeeklyReader{}, time.UTC)

	out, err := svc.GenerateICal(mondayClass(), date(2025, 1, 1), date(2025, 1, 28))
	require.NoError(t, err)

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 4)

	first := events[0]
	assert.Equal(t, "sec-1-20250106T0900@test.local", first.GetProperty(ics.ComponentPropertyUniqueId).Value)
	assert.Equal(t, "CS101 - Intro to Programming", first.GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "Science 101", first.GetProperty(ics.ComponentPropertyLocation).Value)
	assert.Equal(t, "Section 1", first.GetProperty(ics.ComponentPropertyDescription).Value)
	assert.Equal(t, "20250106T090000Z", first.GetProperty(ics.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20250106T103000Z", first.GetProperty(ics.ComponentPropertyDtEnd).Value)
	assert.Equal(t, "sec-1-20250127T0900@test.local", events[3].GetProperty(ics.ComponentPropertyUniqueId).Value)
	assert.Contains(t, out, "DTSTAMP:")
}

func TestGenerateICalUsesConfiguredZone(t *testing.T) {
	svc := newCalendarFixture(&stubWeeklyReader{}, time.FixedZone("WIB", 7*60*60))

	out, err := svc.GenerateICal(mondayClass(), date(2025, 1, 6), date(2025, 1, 6))
	require.NoError(t, err)
	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 1)
	assert.Equal(t, "20250106T020000Z", cal.Events()[0].GetProperty(ics.ComponentPropertyDtStart).Value)
}

func TestGenerateICalBounds(t *testing.T) {
	svc := newCalendarFixture(&stubWeeklyReader{}, time.UTC)

	_, err := svc.GenerateICal(mondayClass(), date(2025, 1, 10), date(2025, 1, 9))
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	out, err := svc.GenerateICal(mondayClass(), date(2025, 1, 7), date(2025, 1, 12))
	require.NoError(t, err)
	assert.NotContains(t, out, "BEGIN:VEVENT")

	out, err = svc.GenerateICal(models.NewWeeklySchedule(), date(2025, 1, 1), date(2025, 1, 31))
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.NotContains(t, out, "BEGIN:VEVENT")
}

func TestResolveRange(t *testing.T) {
	svc := newCalendarFixture(&stubWeeklyReader{}, time.UTC)

	start, end, err := svc.ResolveRange("", "")
	require.NoError(t, err)
	assert.Equal(t, date(2025, 1, 1), start)
	assert.Equal(t, date(2025, 4, 22), end)

	start, end, err = svc.ResolveRange("2025-02-03", "2025-02-28")
	require.NoError(t, err)
	assert.Equal(t, date(2025, 2, 3), start)
	assert.Equal(t, date(2025, 2, 28), end)

	_, _, err = svc.ResolveRange("03/02/2025", "")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	_, _, err = svc.ResolveRange("2025-02-03", "2025-02-01")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestFeedCalendarRoundTrip(t *testing.T) {
	weekly := &stubWeeklyReader{schedule: mondayClass()}
	svc := newCalendarFixture(weekly, time.UTC)

	token, _, err := svc.IssueFeedToken("user-1", "STUDENT")
	require.NoError(t, err)

	out, err := svc.FeedCalendar(context.Background(), token+".ics")
	require.NoError(t, err)
	assert.Equal(t, "user-1", weekly.userID)
	assert.Equal(t, "student", weekly.role)
	assert.Equal(t, 16, strings.Count(out, "BEGIN:VEVENT"))

	_, err = svc.FeedCalendar(context.Background(), "bogus")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestRenderWeekly(t *testing.T) {
	svc := newCalendarFixture(&stubWeeklyReader{schedule: mondayClass()}, time.UTC)

	out, contentType, err := svc.RenderWeekly(context.Background(), "user-1", "student", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=utf-8", contentType)
	assert.Equal(t, "Day,Start,End,Course,Section,Location\nMONDAY,09:00,10:30,CS101 - Intro to Programming,1,Science 101\n", string(out))

	out, contentType, err = svc.RenderWeekly(context.Background(), "user-1", "student", "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasPrefix(string(out), "%PDF-"))

	_, _, err = svc.RenderWeekly(context.Background(), "user-1", "student", "xlsx")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
