package scheduler

import (
	"fmt"
	"strings"

	"github.com/noah-isme/campus-scheduler/internal/models"
)

// ValidateProblem rejects inputs the search cannot reason about.
func ValidateProblem(p Problem) error {
	if len(p.Sections) == 0 {
		return invalid("no sections to schedule")
	}
	if len(p.Classrooms) == 0 {
		return invalid("no classrooms available")
	}
	if len(p.TimeSlots) == 0 {
		return invalid("no time slots available")
	}

	sectionIDs := make(map[string]struct{}, len(p.Sections))
	for _, section := range p.Sections {
		if strings.TrimSpace(section.ID) == "" {
			return invalid("section without id")
		}
		if _, dup := sectionIDs[section.ID]; dup {
			return invalid("duplicate section %s", section.ID)
		}
		sectionIDs[section.ID] = struct{}{}
		if section.Capacity < 1 {
			return invalid("section %s capacity must be at least 1", section.ID)
		}
		if section.MeetingsPerWeek < 0 {
			return invalid("section %s meetings per week cannot be negative", section.ID)
		}
	}

	roomIDs := make(map[string]struct{}, len(p.Classrooms))
	for _, room := range p.Classrooms {
		if strings.TrimSpace(room.ID) == "" {
			return invalid("classroom without id")
		}
		if _, dup := roomIDs[room.ID]; dup {
			return invalid("duplicate classroom %s", room.ID)
		}
		roomIDs[room.ID] = struct{}{}
		if room.Capacity < 0 {
			return invalid("classroom %s capacity cannot be negative", room.ID)
		}
	}

	for i, slot := range p.TimeSlots {
		if _, err := newWindow(slot); err != nil {
			return invalid("time slot %d: %v", i, err)
		}
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ValidateAssignments audits a complete assignment set against the enabled
// constraints. Assignments are replayed in order so each conflicting pair is
// reported once.
func ValidateAssignments(
	assignments []models.Assignment,
	sections []models.Section,
	classrooms []models.Classroom,
	enrollments []models.Enrollment,
	constraints Constraints,
) []Violation {
	state := NewSearchState(sections, enrollments, constraints)
	rooms := make(map[string]*models.Classroom, len(classrooms))
	for i := range classrooms {
		rooms[classrooms[i].ID] = &classrooms[i]
	}

	var out []Violation
	seen := make(map[MeetingKey]bool, len(assignments))
	for _, a := range assignments {
		key := MeetingKey{SectionID: a.SectionID, Index: a.MeetingIndex}
		section := state.sections[a.SectionID]
		if section == nil {
			out = append(out, Violation{Constraint: "unknownSection", SectionID: a.SectionID, Message: "section is not part of the batch"})
			continue
		}
		room := rooms[a.ClassroomID]
		if room == nil {
			out = append(out, Violation{Constraint: "unknownClassroom", SectionID: a.SectionID, ClassroomID: a.ClassroomID, Message: "classroom is not part of the batch"})
			continue
		}
		if seen[key] {
			out = append(out, Violation{Constraint: "duplicateMeeting", SectionID: a.SectionID, Message: fmt.Sprintf("meeting %d assigned twice", a.MeetingIndex)})
			continue
		}
		seen[key] = true
		w, err := newWindow(a.Slot())
		if err != nil {
			out = append(out, Violation{Constraint: "timeSlot", SectionID: a.SectionID, Message: err.Error()})
			continue
		}
		out = append(out, state.check(section, room, w, false)...)
		state.commit(key, room.ID, w)
	}

	for _, section := range sections {
		for m := 0; m < section.Meetings(); m++ {
			if !seen[MeetingKey{SectionID: section.ID, Index: m}] {
				out = append(out, Violation{Constraint: "unassigned", SectionID: section.ID, Message: fmt.Sprintf("meeting %d has no placement", m)})
			}
		}
	}
	return out
}
