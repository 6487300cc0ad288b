package scheduler

import (
	"github.com/noah-isme/campus-scheduler/internal/models"
)

// MeetingKey identifies one weekly meeting of a section.
type MeetingKey struct {
	SectionID string
	Index     int
}

type placement struct {
	key         MeetingKey
	window      window
	classroomID string
}

// SearchState holds the committed placements and lookup indexes of a single
// scheduling run. It is not safe for concurrent use.
type SearchState struct {
	constraints     Constraints
	sections        map[string]*models.Section
	studentSections map[string][]string
	sectionStudents map[string][]string
	committed       map[string][]placement
	dayIndex        map[models.Weekday][]placement
	size            int
}

// NewSearchState indexes sections and their active enrollments. Enrollments
// for sections outside the batch are ignored.
func NewSearchState(sections []models.Section, enrollments []models.Enrollment, constraints Constraints) *SearchState {
	s := &SearchState{
		constraints:     constraints,
		sections:        make(map[string]*models.Section, len(sections)),
		studentSections: make(map[string][]string),
		sectionStudents: make(map[string][]string),
		committed:       make(map[string][]placement),
		dayIndex:        make(map[models.Weekday][]placement),
	}
	for i := range sections {
		s.sections[sections[i].ID] = &sections[i]
	}

	seen := make(map[[2]string]bool, len(enrollments))
	for _, e := range enrollments {
		if e.Status != models.EnrollmentStatusActive {
			continue
		}
		if _, ok := s.sections[e.SectionID]; !ok {
			continue
		}
		pair := [2]string{e.StudentID, e.SectionID}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		s.studentSections[e.StudentID] = append(s.studentSections[e.StudentID], e.SectionID)
		s.sectionStudents[e.SectionID] = append(s.sectionStudents[e.SectionID], e.StudentID)
	}
	return s
}

// Len returns the number of committed meetings.
func (s *SearchState) Len() int {
	return s.size
}

// Commit records a placement. Callers check feasibility first.
func (s *SearchState) Commit(key MeetingKey, classroomID string, slot models.TimeSlot) error {
	w, err := newWindow(slot)
	if err != nil {
		return err
	}
	s.commit(key, classroomID, w)
	return nil
}

// Undo removes the placement for key, if any.
func (s *SearchState) Undo(key MeetingKey) {
	s.undo(key)
}

func (s *SearchState) commit(key MeetingKey, classroomID string, w window) {
	p := placement{key: key, window: w, classroomID: classroomID}
	s.committed[key.SectionID] = append(s.committed[key.SectionID], p)
	s.dayIndex[w.day] = append(s.dayIndex[w.day], p)
	s.size++
}

func (s *SearchState) undo(key MeetingKey) {
	meetings := s.committed[key.SectionID]
	for i, p := range meetings {
		if p.key != key {
			continue
		}
		s.committed[key.SectionID] = append(meetings[:i:i], meetings[i+1:]...)
		if len(s.committed[key.SectionID]) == 0 {
			delete(s.committed, key.SectionID)
		}
		day := s.dayIndex[p.window.day]
		for j := len(day) - 1; j >= 0; j-- {
			if day[j].key == key {
				s.dayIndex[p.window.day] = append(day[:j:j], day[j+1:]...)
				break
			}
		}
		s.size--
		return
	}
}

func (s *SearchState) placementOf(key MeetingKey) (placement, bool) {
	for _, p := range s.committed[key.SectionID] {
		if p.key == key {
			return p, true
		}
	}
	return placement{}, false
}
