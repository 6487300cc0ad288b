package scheduler

import "sort"

// Unplaceable describes a section with no feasible candidate even on an
// empty timetable. Rejections counts candidates per violated constraint.
type Unplaceable struct {
	SectionID  string         `json:"sectionId"`
	Rejections map[string]int `json:"rejections"`
}

// Diagnose checks every section in isolation against every (slot, classroom)
// candidate. Only sections that fit nowhere are reported, in input order.
// An empty result means the conflict comes from interactions between
// sections, not from a single one.
func Diagnose(problem Problem, constraints Constraints) []Unplaceable {
	windows := make([]window, 0, len(problem.TimeSlots))
	for _, slot := range problem.TimeSlots {
		if w, err := newWindow(slot); err == nil {
			windows = append(windows, w)
		}
	}

	empty := NewSearchState(problem.Sections, nil, constraints)
	var out []Unplaceable
	for i := range problem.Sections {
		section := &problem.Sections[i]
		rejections := make(map[string]int)
		placeable := false
		for _, w := range windows {
			for ri := range problem.Classrooms {
				violations := empty.check(section, &problem.Classrooms[ri], w, false)
				if len(violations) == 0 {
					placeable = true
					break
				}
				for _, v := range violations {
					rejections[v.Constraint]++
				}
			}
			if placeable {
				break
			}
		}
		if !placeable {
			out = append(out, Unplaceable{SectionID: section.ID, Rejections: rejections})
		}
	}
	return out
}

// Constraints returns the violated constraint names sorted by wire name.
func (u Unplaceable) Constraints() []string {
	names := make([]string, 0, len(u.Rejections))
	for name := range u.Rejections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
