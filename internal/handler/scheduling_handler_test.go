package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-scheduler/internal/dto"
	internalmiddleware "github.com/noah-isme/campus-scheduler/internal/middleware"
	"github.com/noah-isme/campus-scheduler/internal/models"
	appErrors "github.com/noah-isme/campus-scheduler/pkg/errors"
)

type schedulingRunnerMock struct {
	captured  dto.GenerateScheduleRequest
	submitted bool
	previewed bool
	err       error
}

func (m *schedulingRunnerMock) Run(_ context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleRunResponse, error) {
	m.captured = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ScheduleRunResponse{RunID: "run-1", Status: dto.RunStatusSucceeded, Persisted: true}, nil
}

func (m *schedulingRunnerMock) Preview(_ context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleRunResponse, error) {
	m.captured = req
	m.previewed = true
	return &dto.ScheduleRunResponse{RunID: "run-2", Status: dto.RunStatusSucceeded}, nil
}

func (m *schedulingRunnerMock) Submit(_ context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleRunResponse, error) {
	m.captured = req
	m.submitted = true
	return &dto.ScheduleRunResponse{RunID: "run-3", Status: dto.RunStatusQueued}, nil
}

func (m *schedulingRunnerMock) GetRun(_ context.Context, id string) (*dto.ScheduleRunResponse, error) {
	if id != "run-3" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "scheduling run not found or expired")
	}
	return &dto.ScheduleRunResponse{RunID: id, Status: dto.RunStatusRunning}, nil
}

func (m *schedulingRunnerMock) DefaultTimeSlots() []models.TimeSlot {
	return []models.TimeSlot{{DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:30"}}
}

func newSchedulingRouter(mock *schedulingRunnerMock, role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSchedulingHandler(mock)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: role})
		}
		c.Next()
	})
	group := router.Group("/scheduling", internalmiddleware.RequireRoles(models.RoleAdmin))
	group.POST("/runs", h.Run)
	group.POST("/preview", h.Preview)
	group.GET("/runs/:id", h.GetRun)
	router.GET("/scheduling/default-timeslots", h.DefaultTimeSlots)
	return router
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSchedulingHandlerRunSync(t *testing.T) {
	mock := &schedulingRunnerMock{}
	w := doJSON(newSchedulingRouter(mock, models.RoleAdmin), http.MethodPost, "/scheduling/runs",
		`{"sectionIds":["s1","s2"],"timeSlots":[{"dayOfWeek":"MONDAY","startTime":"09:00","endTime":"10:30"}],"optimizer":"local_search"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"s1", "s2"}, mock.captured.SectionIDs)
	assert.Equal(t, "local_search", mock.captured.Optimizer)
	require.Len(t, mock.captured.TimeSlots, 1)
	assert.False(t, mock.submitted)

	var body struct {
		Data dto.ScheduleRunResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.Data.RunID)
	assert.True(t, body.Data.Persisted)
}

func TestSchedulingHandlerRunAsync(t *testing.T) {
	mock := &schedulingRunnerMock{}
	router := newSchedulingRouter(mock, models.RoleAdmin)

	w := doJSON(router, http.MethodPost, "/scheduling/runs?async=true", `{"termId":"2025-1"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, mock.submitted)
	assert.Equal(t, "2025-1", mock.captured.TermID)

	w = doJSON(router, http.MethodGet, "/scheduling/runs/run-3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"RUNNING"`)

	w = doJSON(router, http.MethodGet, "/scheduling/runs/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSchedulingHandlerErrors(t *testing.T) {
	mock := &schedulingRunnerMock{err: appErrors.Clone(appErrors.ErrUnschedulable, "")}
	router := newSchedulingRouter(mock, models.RoleAdmin)

	w := doJSON(router, http.MethodPost, "/scheduling/runs", `{"termId":"2025-1"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "UNSCHEDULABLE")

	w = doJSON(router, http.MethodPost, "/scheduling/runs", `{"termId":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSchedulingHandlerPreviewAndGrid(t *testing.T) {
	mock := &schedulingRunnerMock{}
	router := newSchedulingRouter(mock, models.RoleAdmin)

	w := doJSON(router, http.MethodPost, "/scheduling/preview", `{"termId":"2025-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mock.previewed)
	assert.Contains(t, w.Body.String(), `"mode":"preview"`)

	w = doJSON(router, http.MethodGet, "/scheduling/default-timeslots", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dayOfWeek":"MONDAY"`)
}

func TestSchedulingHandlerRequiresAdmin(t *testing.T) {
	w := doJSON(newSchedulingRouter(&schedulingRunnerMock{}, ""), http.MethodPost, "/scheduling/runs", `{"termId":"t"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(newSchedulingRouter(&schedulingRunnerMock{}, models.RoleFaculty), http.MethodPost, "/scheduling/runs", `{"termId":"t"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
