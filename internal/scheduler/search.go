package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/campus-scheduler/internal/models"
)

var (
	// ErrInfeasible means every combination of placements was tried.
	ErrInfeasible = errors.New("could not generate valid schedule with given constraints")
	// ErrBudgetExhausted means the node budget or the deadline stopped the search first.
	ErrBudgetExhausted = errors.New("search exhausted budget")
	// ErrInvalidInput wraps eager validation failures.
	ErrInvalidInput = errors.New("invalid scheduling input")
)

const ctxCheckInterval = 256

// Problem is the in-memory input of one scheduling run.
type Problem struct {
	Sections              []models.Section
	Classrooms            []models.Classroom
	TimeSlots             []models.TimeSlot
	Enrollments           []models.Enrollment
	InstructorPreferences map[string]models.InstructorPreference
}

// Options tunes a run. A nil Constraints enables every hard constraint.
type Options struct {
	Constraints *Constraints
	Soft        SoftConstraints
	Optimizer   Optimizer
	MaxNodes    int
	Timeout     time.Duration
}

// Stats describes the work done by the search.
type Stats struct {
	Variables  int           `json:"variables"`
	Nodes      int           `json:"nodes"`
	Backtracks int           `json:"backtracks"`
	Duration   time.Duration `json:"duration"`
}

// Result is a complete, feasible set of assignments. On failure only Stats is
// populated.
type Result struct {
	Assignments []models.Assignment
	Stats       Stats
	Penalty     int
}

type variable struct {
	key     MeetingKey
	section *models.Section
}

type searcher struct {
	ctx      context.Context
	state    *SearchState
	vars     []variable
	slots    []window
	rooms    []models.Classroom
	maxNodes int
	stats    Stats
	err      error
}

// GenerateSchedule places every meeting of every section into one
// (time slot, classroom) pair. Sections are visited in input order and
// candidates in time slot then classroom order; the first complete
// placement found is returned. No partial result is returned on failure.
func GenerateSchedule(ctx context.Context, problem Problem, opts Options) (*Result, error) {
	started := time.Now()
	if err := ValidateProblem(problem); err != nil {
		return nil, err
	}

	constraints := DefaultConstraints()
	if opts.Constraints != nil {
		constraints = *opts.Constraints
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	s := &searcher{
		ctx:      ctx,
		state:    NewSearchState(problem.Sections, problem.Enrollments, constraints),
		rooms:    problem.Classrooms,
		maxNodes: opts.MaxNodes,
	}
	s.slots = make([]window, len(problem.TimeSlots))
	for i, slot := range problem.TimeSlots {
		// validated above
		s.slots[i], _ = newWindow(slot)
	}
	for i := range problem.Sections {
		section := &problem.Sections[i]
		for m := 0; m < section.Meetings(); m++ {
			s.vars = append(s.vars, variable{key: MeetingKey{SectionID: section.ID, Index: m}, section: section})
		}
	}
	s.stats.Variables = len(s.vars)

	if err := ctx.Err(); err != nil {
		return &Result{Stats: s.stats}, fmt.Errorf("%w: %w", ErrBudgetExhausted, err)
	}
	ok := s.backtrack(0)
	s.stats.Duration = time.Since(started)
	if s.err != nil {
		return &Result{Stats: s.stats}, s.err
	}
	if !ok {
		return &Result{Stats: s.stats}, ErrInfeasible
	}

	assignments := s.assignments()
	optimizer := opts.Optimizer
	if optimizer == nil {
		optimizer = IdentityOptimizer{}
	}
	assignments = optimizer.Optimize(assignments, problem, opts.Soft, constraints)
	s.stats.Duration = time.Since(started)

	return &Result{
		Assignments: assignments,
		Stats:       s.stats,
		Penalty:     Penalty(assignments, problem, opts.Soft),
	}, nil
}

func (s *searcher) backtrack(index int) bool {
	if index == len(s.vars) {
		return true
	}
	v := s.vars[index]
	for si := range s.slots {
		for ri := range s.rooms {
			if s.spend() {
				return false
			}
			if len(s.state.check(v.section, &s.rooms[ri], s.slots[si], true)) > 0 {
				continue
			}
			s.state.commit(v.key, s.rooms[ri].ID, s.slots[si])
			if s.backtrack(index + 1) {
				return true
			}
			s.state.undo(v.key)
			if s.err != nil {
				return false
			}
			s.stats.Backtracks++
		}
	}
	return false
}

// spend counts one node and reports whether the budget is gone.
func (s *searcher) spend() bool {
	if s.err != nil {
		return true
	}
	s.stats.Nodes++
	if s.maxNodes > 0 && s.stats.Nodes > s.maxNodes {
		s.err = fmt.Errorf("%w: node limit %d reached", ErrBudgetExhausted, s.maxNodes)
		return true
	}
	if s.stats.Nodes%ctxCheckInterval == 1 {
		if err := s.ctx.Err(); err != nil {
			s.err = fmt.Errorf("%w: %w", ErrBudgetExhausted, err)
			return true
		}
	}
	return false
}

func (s *searcher) assignments() []models.Assignment {
	out := make([]models.Assignment, 0, len(s.vars))
	for _, v := range s.vars {
		p, ok := s.state.placementOf(v.key)
		if !ok {
			continue
		}
		slot := p.window.slot()
		out = append(out, models.Assignment{
			SectionID:    v.key.SectionID,
			MeetingIndex: v.key.Index,
			DayOfWeek:    slot.DayOfWeek,
			StartTime:    slot.StartTime,
			EndTime:      slot.EndTime,
			ClassroomID:  p.classroomID,
		})
	}
	return out
}
