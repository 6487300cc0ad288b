package models

import "time"

// Assignment is a committed placement of one section meeting.
type Assignment struct {
	ID           string    `db:"id" json:"id"`
	SectionID    string    `db:"section_id" json:"section_id"`
	MeetingIndex int       `db:"meeting_index" json:"meeting_index"`
	DayOfWeek    string    `db:"day_of_week" json:"day_of_week"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	ClassroomID  string    `db:"classroom_id" json:"classroom_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Slot returns the time window occupied by the assignment.
func (a Assignment) Slot() TimeSlot {
	return TimeSlot{DayOfWeek: a.DayOfWeek, StartTime: a.StartTime, EndTime: a.EndTime}
}
