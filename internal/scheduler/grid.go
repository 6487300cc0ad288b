package scheduler

import "github.com/noah-isme/campus-scheduler/internal/models"

var defaultDayWindows = [][2]string{
	{"09:00", "10:30"},
	{"10:45", "12:15"},
	{"13:30", "15:00"},
	{"15:15", "16:45"},
}

// DefaultTimeSlots returns the conventional Monday to Friday grid with four
// 90 minute slots per day, ordered by day then start time.
func DefaultTimeSlots() []models.TimeSlot {
	days := []models.Weekday{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday}
	slots := make([]models.TimeSlot, 0, len(days)*len(defaultDayWindows))
	for _, day := range days {
		for _, w := range defaultDayWindows {
			slots = append(slots, models.TimeSlot{DayOfWeek: string(day), StartTime: w[0], EndTime: w[1]})
		}
	}
	return slots
}
