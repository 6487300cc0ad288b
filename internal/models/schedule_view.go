package models

// ScheduleEntry is one meeting shown in a user's weekly view.
type ScheduleEntry struct {
	SectionID     string `json:"section_id"`
	MeetingIndex  int    `json:"meeting_index"`
	CourseCode    string `json:"course_code"`
	CourseName    string `json:"course_name"`
	SectionNumber string `json:"section_number"`
	InstructorID  string `json:"instructor_id"`
	DayOfWeek     string `json:"day_of_week"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	ClassroomID   string `json:"classroom_id"`
	Building      string `json:"building"`
	RoomNumber    string `json:"room_number"`
}

// Location renders "Building Room" for display and calendar output.
func (e ScheduleEntry) Location() string {
	return Classroom{Building: e.Building, RoomNumber: e.RoomNumber}.Label()
}

// WeeklySchedule buckets entries per day. A well-formed value holds all seven days.
type WeeklySchedule map[Weekday][]ScheduleEntry

// NewWeeklySchedule returns a schedule with every day present and empty.
func NewWeeklySchedule() WeeklySchedule {
	ws := make(WeeklySchedule, len(Weekdays))
	for _, d := range Weekdays {
		ws[d] = []ScheduleEntry{}
	}
	return ws
}

// Len counts entries across all days.
func (w WeeklySchedule) Len() int {
	total := 0
	for _, entries := range w {
		total += len(entries)
	}
	return total
}
