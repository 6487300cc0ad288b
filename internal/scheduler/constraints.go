package scheduler

import (
	"fmt"
	"strings"

	"github.com/noah-isme/campus-scheduler/internal/models"
)

// Wire names of the hard constraints.
const (
	ConstraintInstructor  = "noInstructorDoubleBooking"
	ConstraintClassroom   = "noClassroomDoubleBooking"
	ConstraintStudent     = "noStudentScheduleConflict"
	ConstraintCapacity    = "classroomCapacity"
	ConstraintFeatures    = "classroomFeatures"
	ConstraintMeetingDays = "distinctMeetingDays"
)

// Constraints selects which hard constraints are enforced.
type Constraints struct {
	NoInstructorDoubleBooking bool `json:"noInstructorDoubleBooking"`
	NoClassroomDoubleBooking  bool `json:"noClassroomDoubleBooking"`
	NoStudentScheduleConflict bool `json:"noStudentScheduleConflict"`
	ClassroomCapacity         bool `json:"classroomCapacity"`
	ClassroomFeatures         bool `json:"classroomFeatures"`
}

// DefaultConstraints enables every hard constraint.
func DefaultConstraints() Constraints {
	return Constraints{
		NoInstructorDoubleBooking: true,
		NoClassroomDoubleBooking:  true,
		NoStudentScheduleConflict: true,
		ClassroomCapacity:         true,
		ClassroomFeatures:         true,
	}
}

// ParseConstraintNames enables exactly the named constraints.
func ParseConstraintNames(names []string) (Constraints, error) {
	var c Constraints
	for _, name := range names {
		switch strings.TrimSpace(name) {
		case ConstraintInstructor:
			c.NoInstructorDoubleBooking = true
		case ConstraintClassroom:
			c.NoClassroomDoubleBooking = true
		case ConstraintStudent:
			c.NoStudentScheduleConflict = true
		case ConstraintCapacity:
			c.ClassroomCapacity = true
		case ConstraintFeatures:
			c.ClassroomFeatures = true
		default:
			return Constraints{}, fmt.Errorf("%w: unknown hard constraint %q", ErrInvalidInput, name)
		}
	}
	return c, nil
}

// Names lists the enabled constraints by wire name.
func (c Constraints) Names() []string {
	var names []string
	if c.NoInstructorDoubleBooking {
		names = append(names, ConstraintInstructor)
	}
	if c.NoClassroomDoubleBooking {
		names = append(names, ConstraintClassroom)
	}
	if c.NoStudentScheduleConflict {
		names = append(names, ConstraintStudent)
	}
	if c.ClassroomCapacity {
		names = append(names, ConstraintCapacity)
	}
	if c.ClassroomFeatures {
		names = append(names, ConstraintFeatures)
	}
	return names
}

// Violation names one reason a placement breaks a hard constraint.
type Violation struct {
	Constraint        string `json:"constraint"`
	SectionID         string `json:"sectionId"`
	ConflictSectionID string `json:"conflictSectionId,omitempty"`
	ConflictStudentID string `json:"conflictStudentId,omitempty"`
	ClassroomID       string `json:"classroomId,omitempty"`
	Message           string `json:"message"`
}

func (v Violation) String() string {
	return v.Constraint + ": " + v.Message
}

// IsFeasible reports whether placing section in classroom at slot breaks none
// of the constraints enabled on state. A malformed slot is never feasible.
func IsFeasible(section models.Section, classroom models.Classroom, slot models.TimeSlot, state *SearchState) bool {
	w, err := newWindow(slot)
	if err != nil {
		return false
	}
	return len(state.check(&section, &classroom, w, true)) == 0
}

// Violations lists every enabled constraint the placement would break.
func Violations(section models.Section, classroom models.Classroom, slot models.TimeSlot, state *SearchState) []Violation {
	w, err := newWindow(slot)
	if err != nil {
		return []Violation{{Constraint: "timeSlot", SectionID: section.ID, Message: err.Error()}}
	}
	return state.check(&section, &classroom, w, false)
}

// check evaluates each enabled constraint independently. With first set it
// returns as soon as one violation is found.
func (s *SearchState) check(section *models.Section, room *models.Classroom, w window, first bool) []Violation {
	var out []Violation
	add := func(v Violation) bool {
		v.SectionID = section.ID
		out = append(out, v)
		return first
	}

	if s.constraints.ClassroomCapacity && room.Capacity < section.Capacity {
		if add(Violation{
			Constraint:  ConstraintCapacity,
			ClassroomID: room.ID,
			Message:     fmt.Sprintf("classroom %s seats %d, section needs %d", room.ID, room.Capacity, section.Capacity),
		}) {
			return out
		}
	}

	if s.constraints.ClassroomFeatures {
		for _, feature := range section.RequiredFeatures {
			if room.HasFeature(feature) {
				continue
			}
			if add(Violation{
				Constraint:  ConstraintFeatures,
				ClassroomID: room.ID,
				Message:     fmt.Sprintf("classroom %s lacks feature %q", room.ID, feature),
			}) {
				return out
			}
		}
	}

	for _, p := range s.dayIndex[w.day] {
		if !Overlaps(w.start, w.end, p.window.start, p.window.end) {
			continue
		}
		if p.key.SectionID == section.ID {
			continue
		}
		if s.constraints.NoClassroomDoubleBooking && p.classroomID == room.ID {
			if add(Violation{
				Constraint:        ConstraintClassroom,
				ConflictSectionID: p.key.SectionID,
				ClassroomID:       room.ID,
				Message:           fmt.Sprintf("classroom %s already hosts section %s", room.ID, p.key.SectionID),
			}) {
				return out
			}
		}
		if s.constraints.NoInstructorDoubleBooking && section.InstructorID != "" {
			other := s.sections[p.key.SectionID]
			if other != nil && other.InstructorID == section.InstructorID {
				if add(Violation{
					Constraint:        ConstraintInstructor,
					ConflictSectionID: p.key.SectionID,
					Message:           fmt.Sprintf("instructor %s already teaches section %s", section.InstructorID, p.key.SectionID),
				}) {
					return out
				}
			}
		}
	}

	if s.constraints.NoStudentScheduleConflict {
		for _, studentID := range s.sectionStudents[section.ID] {
			for _, otherID := range s.studentSections[studentID] {
				if otherID == section.ID {
					continue
				}
				for _, p := range s.committed[otherID] {
					if !w.overlaps(p.window) {
						continue
					}
					if add(Violation{
						Constraint:        ConstraintStudent,
						ConflictSectionID: otherID,
						ConflictStudentID: studentID,
						Message:           fmt.Sprintf("student %s is also enrolled in section %s", studentID, otherID),
					}) {
						return out
					}
				}
			}
		}
	}

	// Meetings of one section always land on distinct days.
	for _, p := range s.committed[section.ID] {
		if p.window.day == w.day {
			if add(Violation{
				Constraint: ConstraintMeetingDays,
				Message:    fmt.Sprintf("section %s already meets on %s", section.ID, w.day),
			}) {
				return out
			}
		}
	}

	return out
}
