package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-scheduler/internal/dto"
	"github.com/noah-isme/campus-scheduler/internal/models"
	appErrors "github.com/noah-isme/campus-scheduler/pkg/errors"
	"github.com/noah-isme/campus-scheduler/pkg/response"
)

type schedulingRunner interface {
	Run(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleRunResponse, error)
	Preview(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleRunResponse, error)
	Submit(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleRunResponse, error)
	GetRun(ctx context.Context, id string) (*dto.ScheduleRunResponse, error)
	DefaultTimeSlots() []models.TimeSlot
}

// SchedulingHandler exposes timetable generation endpoints.
type SchedulingHandler struct {
	service schedulingRunner
}

// NewSchedulingHandler constructs the handler.
func NewSchedulingHandler(svc schedulingRunner) *SchedulingHandler {
	return &SchedulingHandler{service: svc}
}

// Run godoc
// @Summary Generate and persist a timetable
// @Description Runs synchronously unless async=true, in which case a run id is returned with 202.
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param async query bool false "Queue the run"
// @Param payload body dto.GenerateScheduleRequest true "Scheduling payload"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /scheduling/runs [post]
func (h *SchedulingHandler) Run(c *gin.Context) {
	req, ok := bindScheduleRequest(c)
	if !ok {
		return
	}
	async, _ := strconv.ParseBool(c.DefaultQuery("async", "false"))
	if async {
		run, err := h.service.Submit(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, run)
		return
	}
	run, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// Preview godoc
// @Summary Generate a timetable without saving it
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Scheduling payload"
// @Success 200 {object} response.Envelope
// @Router /scheduling/preview [post]
func (h *SchedulingHandler) Preview(c *gin.Context) {
	req, ok := bindScheduleRequest(c)
	if !ok {
		return
	}
	run, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil, map[string]interface{}{"mode": "preview"})
}

// GetRun godoc
// @Summary Get an async scheduling run
// @Tags Scheduling
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /scheduling/runs/{id} [get]
func (h *SchedulingHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// DefaultTimeSlots godoc
// @Summary List the default weekly time grid
// @Tags Scheduling
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /scheduling/default-timeslots [get]
func (h *SchedulingHandler) DefaultTimeSlots(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.DefaultTimeSlots(), nil)
}

func bindScheduleRequest(c *gin.Context) (dto.GenerateScheduleRequest, bool) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scheduling payload"))
		return req, false
	}
	return req, true
}
