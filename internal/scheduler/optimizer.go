package scheduler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/campus-scheduler/internal/models"
)

// Wire names of the soft constraints.
const (
	SoftInstructorPreferences = "respectInstructorPreferences"
	SoftDailyGaps             = "minimizeDailyGaps"
	SoftDistributeEvenly      = "distributeEvenly"
	SoftMorningRequired       = "preferMorningForRequired"
)

const (
	noon = 12 * 60

	weightPreferredDay  = 2
	weightPreferredSlot = 1
	weightAvoidSlot     = 5
	weightDailyOverload = 3
	weightGapHalfHour   = 1
	weightDaySpread     = 2
	weightAfternoon     = 1
)

// SoftConstraints selects the preferences the optimizer scores.
type SoftConstraints struct {
	RespectInstructorPreferences bool `json:"respectInstructorPreferences"`
	MinimizeDailyGaps            bool `json:"minimizeDailyGaps"`
	DistributeEvenly             bool `json:"distributeEvenly"`
	PreferMorningForRequired     bool `json:"preferMorningForRequired"`
}

// Any reports whether at least one soft constraint is enabled.
func (s SoftConstraints) Any() bool {
	return s.RespectInstructorPreferences || s.MinimizeDailyGaps || s.DistributeEvenly || s.PreferMorningForRequired
}

// ParseSoftConstraintNames enables exactly the named soft constraints.
func ParseSoftConstraintNames(names []string) (SoftConstraints, error) {
	var s SoftConstraints
	for _, name := range names {
		switch strings.TrimSpace(name) {
		case SoftInstructorPreferences:
			s.RespectInstructorPreferences = true
		case SoftDailyGaps:
			s.MinimizeDailyGaps = true
		case SoftDistributeEvenly:
			s.DistributeEvenly = true
		case SoftMorningRequired:
			s.PreferMorningForRequired = true
		default:
			return SoftConstraints{}, fmt.Errorf("%w: unknown soft constraint %q", ErrInvalidInput, name)
		}
	}
	return s, nil
}

// Optimizer improves a feasible schedule without breaking hard constraints.
type Optimizer interface {
	Optimize(assignments []models.Assignment, problem Problem, soft SoftConstraints, hard Constraints) []models.Assignment
}

// IdentityOptimizer returns the schedule unchanged.
type IdentityOptimizer struct{}

// Optimize implements Optimizer.
func (IdentityOptimizer) Optimize(assignments []models.Assignment, _ Problem, _ SoftConstraints, _ Constraints) []models.Assignment {
	return assignments
}

// LocalSearchOptimizer is a deterministic hill climber. It moves one meeting
// at a time to another (slot, classroom) pair when the move keeps every hard
// constraint satisfied and strictly lowers the penalty.
type LocalSearchOptimizer struct {
	MaxPasses int
}

// Optimize implements Optimizer.
func (o LocalSearchOptimizer) Optimize(assignments []models.Assignment, problem Problem, soft SoftConstraints, hard Constraints) []models.Assignment {
	if !soft.Any() || len(assignments) == 0 {
		return assignments
	}
	passes := o.MaxPasses
	if passes <= 0 {
		passes = 10
	}

	slots := make([]window, 0, len(problem.TimeSlots))
	for _, slot := range problem.TimeSlots {
		if w, err := newWindow(slot); err == nil {
			slots = append(slots, w)
		}
	}
	current := make([]models.Assignment, len(assignments))
	copy(current, assignments)
	state := NewSearchState(problem.Sections, problem.Enrollments, hard)
	for _, a := range current {
		w, err := newWindow(a.Slot())
		if err != nil {
			return assignments
		}
		state.commit(MeetingKey{SectionID: a.SectionID, Index: a.MeetingIndex}, a.ClassroomID, w)
	}
	best := Penalty(current, problem, soft)

	for pass := 0; pass < passes && best > 0; pass++ {
		improved := false
		for i := range current {
			key := MeetingKey{SectionID: current[i].SectionID, Index: current[i].MeetingIndex}
			section := state.sections[key.SectionID]
			if section == nil {
				continue
			}
			original, _ := state.placementOf(key)
			state.undo(key)
			chosen := original
			for _, w := range slots {
				for ri := range problem.Classrooms {
					room := &problem.Classrooms[ri]
					if w == original.window && room.ID == original.classroomID {
						continue
					}
					if len(state.check(section, room, w, true)) > 0 {
						continue
					}
					candidate := current[i]
					slot := w.slot()
					candidate.DayOfWeek, candidate.StartTime, candidate.EndTime = slot.DayOfWeek, slot.StartTime, slot.EndTime
					candidate.ClassroomID = room.ID
					previous := current[i]
					current[i] = candidate
					score := Penalty(current, problem, soft)
					if score < best {
						best = score
						chosen = placement{key: key, window: w, classroomID: room.ID}
						improved = true
					} else {
						current[i] = previous
					}
				}
			}
			state.commit(key, chosen.classroomID, chosen.window)
		}
		if !improved {
			break
		}
	}
	return current
}

// Penalty scores how badly a schedule meets the enabled soft constraints.
// Zero is ideal.
func Penalty(assignments []models.Assignment, problem Problem, soft SoftConstraints) int {
	if !soft.Any() || len(assignments) == 0 {
		return 0
	}
	sections := make(map[string]*models.Section, len(problem.Sections))
	for i := range problem.Sections {
		sections[problem.Sections[i].ID] = &problem.Sections[i]
	}

	type placed struct {
		section *models.Section
		window  window
	}
	items := make([]placed, 0, len(assignments))
	for _, a := range assignments {
		w, err := newWindow(a.Slot())
		if err != nil {
			continue
		}
		items = append(items, placed{section: sections[a.SectionID], window: w})
	}

	total := 0
	if soft.RespectInstructorPreferences && len(problem.InstructorPreferences) > 0 {
		perDay := make(map[string]map[models.Weekday]int)
		for _, it := range items {
			if it.section == nil {
				continue
			}
			pref, ok := problem.InstructorPreferences[it.section.InstructorID]
			if !ok {
				continue
			}
			total += preferencePenalty(pref, it.window)
			if perDay[pref.InstructorID] == nil {
				perDay[pref.InstructorID] = make(map[models.Weekday]int)
			}
			perDay[pref.InstructorID][it.window.day]++
		}
		for instructorID, days := range perDay {
			limit := problem.InstructorPreferences[instructorID].MaxMeetingsPerDay
			if limit <= 0 {
				continue
			}
			for _, count := range days {
				if count > limit {
					total += (count - limit) * weightDailyOverload
				}
			}
		}
	}

	if soft.MinimizeDailyGaps {
		byInstructorDay := make(map[string][]window)
		for _, it := range items {
			if it.section == nil || it.section.InstructorID == "" {
				continue
			}
			k := it.section.InstructorID + "|" + string(it.window.day)
			byInstructorDay[k] = append(byInstructorDay[k], it.window)
		}
		for _, windows := range byInstructorDay {
			total += gapPenalty(windows)
		}
	}

	if soft.DistributeEvenly {
		counts := make(map[models.Weekday]int)
		for _, slot := range problem.TimeSlots {
			if day, ok := NormalizeDay(slot.DayOfWeek); ok {
				if _, seen := counts[day]; !seen {
					counts[day] = 0
				}
			}
		}
		for _, it := range items {
			counts[it.window.day]++
		}
		lo, hi := -1, 0
		for _, c := range counts {
			if lo < 0 || c < lo {
				lo = c
			}
			if c > hi {
				hi = c
			}
		}
		if lo >= 0 && hi-lo > 1 {
			total += (hi - lo - 1) * weightDaySpread
		}
	}

	if soft.PreferMorningForRequired {
		for _, it := range items {
			if it.section != nil && it.section.IsRequired && it.window.start >= noon {
				total += weightAfternoon
			}
		}
	}
	return total
}

func preferencePenalty(pref models.InstructorPreference, w window) int {
	penalty := 0
	if len(pref.PreferredDays) > 0 {
		matched := false
		for _, raw := range pref.PreferredDays {
			if day, ok := NormalizeDay(raw); ok && day == w.day {
				matched = true
				break
			}
		}
		if !matched {
			penalty += weightPreferredDay
		}
	}
	if len(pref.PreferredSlots) > 0 {
		matched := false
		for _, slot := range pref.PreferredSlots {
			if pw, err := newWindow(slot); err == nil && pw == w {
				matched = true
				break
			}
		}
		if !matched {
			penalty += weightPreferredSlot
		}
	}
	for _, slot := range pref.AvoidSlots {
		if aw, err := newWindow(slot); err == nil && aw.overlaps(w) {
			penalty += weightAvoidSlot
		}
	}
	return penalty
}

// gapPenalty charges idle time between consecutive meetings on one day, per
// started half hour.
func gapPenalty(windows []window) int {
	if len(windows) < 2 {
		return 0
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].start < windows[j].start })
	penalty := 0
	for i := 0; i < len(windows)-1; i++ {
		gap := windows[i+1].start - windows[i].end
		if gap <= 0 {
			continue
		}
		penalty += ((gap + 29) / 30) * weightGapHalfHour
	}
	return penalty
}
