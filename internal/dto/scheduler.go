package dto

import (
	"time"

	"github.com/noah-isme/campus-scheduler/internal/models"
)

// GenerateScheduleRequest asks the scheduler to place a batch of sections.
// Either SectionIDs or TermID selects the batch.
type GenerateScheduleRequest struct {
	TermID                string                        `json:"termId" validate:"required_without=SectionIDs"`
	SectionIDs            []string                      `json:"sectionIds" validate:"required_without=TermID,dive,required"`
	ClassroomIDs          []string                      `json:"classroomIds" validate:"omitempty,dive,required"`
	Building              string                        `json:"building"`
	TimeSlots             []models.TimeSlot             `json:"timeSlots" validate:"omitempty,dive"`
	HardConstraints       []string                      `json:"hardConstraints"`
	SoftConstraints       []string                      `json:"softConstraints"`
	InstructorPreferences []models.InstructorPreference `json:"instructorPreferences" validate:"omitempty,dive"`
	Optimizer             string                        `json:"optimizer" validate:"omitempty,oneof=identity local_search"`
	MaxNodes              int                           `json:"maxNodes" validate:"omitempty,min=1"`
	TimeoutSeconds        int                           `json:"timeoutSeconds" validate:"omitempty,min=1,max=600"`
}

// RunStatus tracks the lifecycle of a scheduling run.
type RunStatus string

// Run statuses.
const (
	RunStatusQueued    RunStatus = "QUEUED"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
)

// AssignmentView is one placed meeting in a run response.
type AssignmentView struct {
	SectionID     string `json:"sectionId"`
	CourseCode    string `json:"courseCode"`
	SectionNumber string `json:"sectionNumber"`
	InstructorID  string `json:"instructorId"`
	MeetingIndex  int    `json:"meetingIndex"`
	DayOfWeek     string `json:"dayOfWeek"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	ClassroomID   string `json:"classroomId"`
}

// RunStats summarises search effort.
type RunStats struct {
	Sections   int   `json:"sections"`
	Variables  int   `json:"variables"`
	Nodes      int   `json:"nodes"`
	Backtracks int   `json:"backtracks"`
	DurationMs int64 `json:"durationMs"`
}

// RunError describes why a run failed.
type RunError struct {
	Code        string               `json:"code"`
	Message     string               `json:"message"`
	Unplaceable []UnplaceableSection `json:"unplaceable,omitempty"`
}

// UnplaceableSection names a section no (slot, classroom) pair can host on
// its own, with the constraints that rejected every candidate.
type UnplaceableSection struct {
	SectionID   string   `json:"sectionId"`
	Constraints []string `json:"constraints"`
}

// ScheduleRunResponse reports the state and result of a scheduling run.
type ScheduleRunResponse struct {
	RunID       string           `json:"runId"`
	Status      RunStatus        `json:"status"`
	Persisted   bool             `json:"persisted"`
	Assignments []AssignmentView `json:"assignments"`
	Stats       RunStats         `json:"stats"`
	Penalty     int              `json:"penalty"`
	Error       *RunError        `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}
