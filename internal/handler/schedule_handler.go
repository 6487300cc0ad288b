package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-scheduler/internal/dto"
	"github.com/noah-isme/campus-scheduler/internal/models"
	appErrors "github.com/noah-isme/campus-scheduler/pkg/errors"
	"github.com/noah-isme/campus-scheduler/pkg/response"
)

const calendarContentType = "text/calendar; charset=utf-8"

type weeklyScheduleProvider interface {
	GetUserSchedule(ctx context.Context, userID, role string) (models.WeeklySchedule, error)
}

type calendarExporter interface {
	ExportUserCalendar(ctx context.Context, userID, role string, startDate, endDate time.Time) (string, error)
	ResolveRange(startRaw, endRaw string) (time.Time, time.Time, error)
	IssueFeedToken(userID, role string) (string, time.Time, error)
	FeedCalendar(ctx context.Context, token string) (string, error)
	RenderWeekly(ctx context.Context, userID, role, format string) ([]byte, string, error)
}

// ScheduleHandler serves personal timetables and calendar exports.
type ScheduleHandler struct {
	weekly    weeklyScheduleProvider
	calendars calendarExporter
	feedBase  string
}

// NewScheduleHandler constructs the handler. feedBase is the public URL prefix
// of the calendar feed route, e.g. https://api.example.edu/api/v1/calendar.
func NewScheduleHandler(weekly weeklyScheduleProvider, calendars calendarExporter, feedBase string) *ScheduleHandler {
	return &ScheduleHandler{weekly: weekly, calendars: calendars, feedBase: strings.TrimRight(feedBase, "/")}
}

// Me godoc
// @Summary Get the caller's weekly schedule
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/me [get]
func (h *ScheduleHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	schedule, err := h.weekly.GetUserSchedule(c.Request.Context(), claims.UserID, string(claims.Role))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil, map[string]interface{}{"entries": schedule.Len()})
}

// UserSchedule godoc
// @Summary Get a user's weekly schedule
// @Tags Schedule
// @Produce json
// @Param id path string true "User ID"
// @Param role query string true "student or faculty"
// @Success 200 {object} response.Envelope
// @Router /schedule/users/{id} [get]
func (h *ScheduleHandler) UserSchedule(c *gin.Context) {
	var query dto.UserScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil || query.Role == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "role query parameter is required"))
		return
	}
	schedule, err := h.weekly.GetUserSchedule(c.Request.Context(), c.Param("id"), query.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil, map[string]interface{}{"entries": schedule.Len()})
}

// ICal godoc
// @Summary Download the caller's schedule as iCalendar
// @Tags Schedule
// @Produce text/calendar
// @Param start query string false "First date, YYYY-MM-DD (default today)"
// @Param end query string false "Last date, YYYY-MM-DD"
// @Success 200 {string} string "iCalendar document"
// @Router /schedule/me/ical [get]
func (h *ScheduleHandler) ICal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.ScheduleExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	start, end, err := h.calendars.ResolveRange(query.Start, query.End)
	if err != nil {
		response.Error(c, err)
		return
	}
	body, err := h.calendars.ExportUserCalendar(c.Request.Context(), claims.UserID, string(claims.Role), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="schedule.ics"`)
	c.Data(http.StatusOK, calendarContentType, []byte(body))
}

// Document godoc
// @Summary Download the caller's weekly schedule as PDF or CSV
// @Tags Schedule
// @Produce application/pdf
// @Produce text/csv
// @Param format query string false "pdf (default) or csv"
// @Success 200 {file} file
// @Router /schedule/me/pdf [get]
func (h *ScheduleHandler) Document(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format := strings.ToLower(c.DefaultQuery("format", "pdf"))
	body, contentType, err := h.calendars.RenderWeekly(c.Request.Context(), claims.UserID, string(claims.Role), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="schedule.%s"`, format))
	c.Data(http.StatusOK, contentType, body)
}

// FeedURL godoc
// @Summary Issue a subscribable calendar URL for the caller
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/feed-url [get]
func (h *ScheduleHandler) FeedURL(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	token, expiresAt, err := h.calendars.IssueFeedToken(claims.UserID, string(claims.Role))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.CalendarFeedResponse{
		URL:       h.feedBase + "/" + token + ".ics",
		ExpiresAt: expiresAt,
	}, nil)
}

// Feed godoc
// @Summary Calendar subscription feed
// @Description Public endpoint authenticated by the signed token in the path.
// @Tags Schedule
// @Produce text/calendar
// @Param token path string true "Signed feed token"
// @Success 200 {string} string "iCalendar document"
// @Router /calendar/{token} [get]
func (h *ScheduleHandler) Feed(c *gin.Context) {
	body, err := h.calendars.FeedCalendar(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, calendarContentType, []byte(body))
}
