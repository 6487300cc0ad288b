package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-scheduler/internal/models"
	"github.com/noah-isme/campus-scheduler/internal/scheduler"
	appErrors "github.com/noah-isme/campus-scheduler/pkg/errors"
	"github.com/noah-isme/campus-scheduler/pkg/export"
	"github.com/noah-isme/campus-scheduler/pkg/storage"
)

const (
	calendarDateLayout = "2006-01-02"
	uidTimeLayout      = "20060102T1504"
	defaultFeedWeeks   = 16
)

// Weekly export formats.
const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

type weeklyScheduleReader interface {
	GetUserSchedule(ctx context.Context, userID, role string) (models.WeeklySchedule, error)
}

type feedTokenSigner interface {
	Generate(userID, role string) (string, time.Time, error)
	Parse(token string) (storage.FeedClaims, error)
}

type tableRenderer interface {
	Render(table export.Table) ([]byte, error)
	ContentType() string
}

// CalendarConfig controls how occurrences are dated and identified.
type CalendarConfig struct {
	Location  *time.Location
	UIDDomain string
	FeedWeeks int
}

// CalendarExportService renders weekly schedules as iCalendar, PDF and CSV.
type CalendarExportService struct {
	weekly    weeklyScheduleReader
	signer    feedTokenSigner
	renderers map[string]tableRenderer
	metrics   *MetricsService
	logger    *zap.Logger
	loc       *time.Location
	domain    string
	feedWeeks int
	now       func() time.Time
}

// NewCalendarExportService constructs the exporter. signer may be nil, which
// disables feed tokens.
func NewCalendarExportService(weekly weeklyScheduleReader, signer feedTokenSigner, metrics *MetricsService, logger *zap.Logger, cfg CalendarConfig) *CalendarExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.UIDDomain == "" {
		cfg.UIDDomain = "campus-scheduler.local"
	}
	if cfg.FeedWeeks <= 0 {
		cfg.FeedWeeks = defaultFeedWeeks
	}
	return &CalendarExportService{
		weekly: weekly,
		signer: signer,
		renderers: map[string]tableRenderer{
			FormatPDF: export.NewPDFExporter(),
			FormatCSV: export.NewCSVExporter(),
		},
		metrics:   metrics,
		logger:    logger,
		loc:       cfg.Location,
		domain:    cfg.UIDDomain,
		feedWeeks: cfg.FeedWeeks,
		now:       time.Now,
	}
}

// GenerateICal expands each weekly entry into one VEVENT per matching date
// between startDate and endDate inclusive. Only the date part of the bounds
// is used.
func (s *CalendarExportService) GenerateICal(schedule models.WeeklySchedule, startDate, endDate time.Time) (string, error) {
	start := s.dateOf(startDate)
	end := s.dateOf(endDate)
	if end.Before(start) {
		return "", appErrors.Clone(appErrors.ErrValidation, "end date must not be before start date")
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//campus-scheduler//timetable//EN")
	cal.SetXWRCalName("Class schedule")
	cal.SetXWRTimezone(s.loc.String())

	stamp := s.now().UTC()
	count := 0
	for _, day := range models.Weekdays {
		entries := schedule[day]
		if len(entries) == 0 {
			continue
		}
		first := start
		for first.Weekday() != day.TimeWeekday() {
			first = first.AddDate(0, 0, 1)
		}
		for _, entry := range entries {
			startMin, err := scheduler.ParseClock(entry.StartTime)
			if err != nil {
				return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid stored start time")
			}
			endMin, err := scheduler.ParseClock(entry.EndTime)
			if err != nil {
				return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid stored end time")
			}
			for date := first; !date.After(end); date = date.AddDate(0, 0, 7) {
				begins := s.at(date, startMin)
				ends := s.at(date, endMin)

				event := cal.AddEvent(fmt.Sprintf("%s-%s@%s", entry.SectionID, begins.Format(uidTimeLayout), s.domain))
				event.SetDtStampTime(stamp)
				event.SetStartAt(begins)
				event.SetEndAt(ends)
				event.SetSummary(summaryOf(entry))
				if location := entry.Location(); location != "" {
					event.SetLocation(location)
				}
				event.SetDescription(fmt.Sprintf("Section %s", entry.SectionNumber))
				count++
			}
		}
	}
	s.metrics.AddCalendarEvents(count)
	return cal.Serialize(), nil
}

// ExportUserCalendar renders the caller's weekly schedule as iCalendar.
func (s *CalendarExportService) ExportUserCalendar(ctx context.Context, userID, role string, startDate, endDate time.Time) (string, error) {
	schedule, err := s.weekly.GetUserSchedule(ctx, userID, role)
	if err != nil {
		return "", err
	}
	return s.GenerateICal(schedule, startDate, endDate)
}

// ResolveRange parses YYYY-MM-DD bounds. A missing start means today and a
// missing end means the feed window after start.
func (s *CalendarExportService) ResolveRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start := s.dateOf(s.now())
	if startRaw != "" {
		parsed, err := time.ParseInLocation(calendarDateLayout, startRaw, s.loc)
		if err != nil {
			return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start must be YYYY-MM-DD")
		}
		start = parsed
	}
	end := start.AddDate(0, 0, 7*s.feedWeeks-1)
	if endRaw != "" {
		parsed, err := time.ParseInLocation(calendarDateLayout, endRaw, s.loc)
		if err != nil {
			return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "end must be YYYY-MM-DD")
		}
		end = parsed
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end date must not be before start date")
	}
	return start, end, nil
}

// IssueFeedToken signs a subscription token for the user.
func (s *CalendarExportService) IssueFeedToken(userID, role string) (string, time.Time, error) {
	if s.signer == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInternal, "calendar feed disabled")
	}
	token, expiresAt, err := s.signer.Generate(userID, role)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign calendar feed")
	}
	return token, expiresAt, nil
}

// FeedCalendar renders the calendar named by a subscription token, starting
// today.
func (s *CalendarExportService) FeedCalendar(ctx context.Context, token string) (string, error) {
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "calendar feed disabled")
	}
	claims, err := s.signer.Parse(strings.TrimSuffix(token, ".ics"))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid calendar feed token")
	}
	start, end, err := s.ResolveRange("", "")
	if err != nil {
		return "", err
	}
	return s.ExportUserCalendar(ctx, claims.UserID, claims.Role, start, end)
}

// RenderWeekly renders the caller's weekly schedule as a PDF or CSV table.
func (s *CalendarExportService) RenderWeekly(ctx context.Context, userID, role, format string) ([]byte, string, error) {
	renderer, ok := s.renderers[strings.ToLower(format)]
	if !ok {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
	schedule, err := s.weekly.GetUserSchedule(ctx, userID, role)
	if err != nil {
		return nil, "", err
	}
	out, err := renderer.Render(weeklyTable(schedule))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule")
	}
	return out, renderer.ContentType(), nil
}

func (s *CalendarExportService) dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

func (s *CalendarExportService) at(date time.Time, minutes int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, s.loc)
}

func summaryOf(entry models.ScheduleEntry) string {
	switch {
	case entry.CourseCode != "" && entry.CourseName != "":
		return entry.CourseCode + " - " + entry.CourseName
	case entry.CourseCode != "":
		return entry.CourseCode
	default:
		return entry.CourseName
	}
}

func weeklyTable(schedule models.WeeklySchedule) export.Table {
	table := export.Table{
		Title:   "Weekly schedule",
		Headers: []string{"Day", "Start", "End", "Course", "Section", "Location"},
	}
	for _, day := range models.Weekdays {
		for _, entry := range schedule[day] {
			table.Rows = append(table.Rows, map[string]string{
				"Day":      string(day),
				"Start":    entry.StartTime,
				"End":      entry.EndTime,
				"Course":   summaryOf(entry),
				"Section":  entry.SectionNumber,
				"Location": entry.Location(),
			})
		}
	}
	return table
}
