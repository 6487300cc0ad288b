package models

import "time"

// Weekday is an upper-case day name used on the wire and in storage.
type Weekday string

// Days of the week.
const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

// Weekdays lists every day starting from Monday.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// TimeWeekday maps the day onto time.Weekday. Unknown values map to -1.
func (d Weekday) TimeWeekday() time.Weekday {
	switch d {
	case Sunday:
		return time.Sunday
	case Monday:
		return time.Monday
	case Tuesday:
		return time.Tuesday
	case Wednesday:
		return time.Wednesday
	case Thursday:
		return time.Thursday
	case Friday:
		return time.Friday
	case Saturday:
		return time.Saturday
	}
	return time.Weekday(-1)
}

// Valid reports whether d is one of the seven known days.
func (d Weekday) Valid() bool {
	return d.TimeWeekday() >= 0
}

// TimeSlot is a candidate (day, start, end) window with "HH:MM" clocks.
type TimeSlot struct {
	DayOfWeek string `json:"dayOfWeek" validate:"required,weekday"`
	StartTime string `json:"startTime" validate:"required,clock"`
	EndTime   string `json:"endTime" validate:"required,clock"`
}
