package scheduler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/campus-scheduler/internal/models"
)

var dayAliases = map[string]models.Weekday{
	"MON": models.Monday,
	"TUE": models.Tuesday,
	"WED": models.Wednesday,
	"THU": models.Thursday,
	"FRI": models.Friday,
	"SAT": models.Saturday,
	"SUN": models.Sunday,
}

// ParseClock converts "HH:MM" (24-hour) into minutes after midnight.
func ParseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid clock %q: expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid clock %q: hour out of range", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid clock %q: minute out of range", raw)
	}
	return hour*60 + minute, nil
}

// MustMinutes is ParseClock for values that were already validated.
func MustMinutes(raw string) int {
	minutes, err := ParseClock(raw)
	if err != nil {
		panic(err)
	}
	return minutes
}

// FormatClock renders minutes after midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps tests two half-open intervals. Touching endpoints do not overlap.
func Overlaps(start1, end1, start2, end2 int) bool {
	return start1 < end2 && end1 > start2
}

// NormalizeDay maps a case-insensitive day name or three letter abbreviation
// onto a Weekday.
func NormalizeDay(raw string) (models.Weekday, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	day := models.Weekday(key)
	if day.Valid() {
		return day, true
	}
	if alias, ok := dayAliases[key]; ok {
		return alias, true
	}
	return "", false
}

// SlotsOverlap reports whether two slots fall on the same day and their
// intervals overlap. Malformed slots never overlap.
func SlotsOverlap(a, b models.TimeSlot) bool {
	wa, err := newWindow(a)
	if err != nil {
		return false
	}
	wb, err := newWindow(b)
	if err != nil {
		return false
	}
	return wa.overlaps(wb)
}

type window struct {
	day   models.Weekday
	start int
	end   int
}

func newWindow(slot models.TimeSlot) (window, error) {
	day, ok := NormalizeDay(slot.DayOfWeek)
	if !ok {
		return window{}, fmt.Errorf("invalid day of week %q", slot.DayOfWeek)
	}
	start, err := ParseClock(slot.StartTime)
	if err != nil {
		return window{}, err
	}
	end, err := ParseClock(slot.EndTime)
	if err != nil {
		return window{}, err
	}
	if end <= start {
		return window{}, fmt.Errorf("slot %s %s-%s ends before it starts", slot.DayOfWeek, slot.StartTime, slot.EndTime)
	}
	return window{day: day, start: start, end: end}, nil
}

func (w window) overlaps(other window) bool {
	return w.day == other.day && Overlaps(w.start, w.end, other.start, other.end)
}

func (w window) slot() models.TimeSlot {
	return models.TimeSlot{DayOfWeek: string(w.day), StartTime: FormatClock(w.start), EndTime: FormatClock(w.end)}
}
