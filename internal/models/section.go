package models

import (
	"time"

	"github.com/lib/pq"
)

// Section is a single offering of a course for one term.
type Section struct {
	ID               string         `db:"id" json:"id"`
	CourseID         string         `db:"course_id" json:"course_id"`
	CourseCode       string         `db:"course_code" json:"course_code"`
	CourseName       string         `db:"course_name" json:"course_name"`
	SectionNumber    string         `db:"section_number" json:"section_number"`
	InstructorID     string         `db:"instructor_id" json:"instructor_id"`
	TermID           string         `db:"term_id" json:"term_id"`
	Capacity         int            `db:"capacity" json:"capacity"`
	RequiredFeatures pq.StringArray `db:"required_features" json:"required_features"`
	IsRequired       bool           `db:"is_required" json:"is_required"`
	MeetingsPerWeek  int            `db:"meetings_per_week" json:"meetings_per_week"`
	DeletedAt        *time.Time     `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// Meetings returns the number of weekly meetings, never less than one.
func (s Section) Meetings() int {
	if s.MeetingsPerWeek < 1 {
		return 1
	}
	return s.MeetingsPerWeek
}

// SectionFilter narrows ListSections.
type SectionFilter struct {
	IDs            []string
	TermID         string
	InstructorID   string
	IncludeDeleted bool
}
