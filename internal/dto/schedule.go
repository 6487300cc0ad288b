package dto

import "time"

// ScheduleExportQuery bounds a calendar export. Dates use YYYY-MM-DD.
type ScheduleExportQuery struct {
	Start string `form:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `form:"end" validate:"omitempty,datetime=2006-01-02"`
}

// UserScheduleQuery selects whose weekly view an administrator reads.
type UserScheduleQuery struct {
	Role string `form:"role" validate:"required,oneof=student faculty STUDENT FACULTY"`
}

// CalendarFeedResponse returns a subscribable calendar URL.
type CalendarFeedResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
