package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-scheduler/internal/models"
)

const sectionColumns = `s.id, s.course_id, c.code AS course_code, c.name AS course_name, s.section_number,
s.instructor_id, s.term_id, s.capacity, c.required_features, c.is_required, c.meetings_per_week,
s.deleted_at, s.created_at, s.updated_at`

// SectionRepository reads course sections joined with their course.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// ListSections returns sections matching the filter. When IDs are given the
// result follows their order; otherwise it is ordered by course code and
// section number.
func (r *SectionRepository) ListSections(ctx context.Context, filter models.SectionFilter) ([]models.Section, error) {
	var conditions []string
	var args []interface{}

	if len(filter.IDs) > 0 {
		args = append(args, pq.Array(filter.IDs))
		conditions = append(conditions, fmt.Sprintf("s.id = ANY($%d)", len(args)))
	}
	if filter.TermID != "" {
		args = append(args, filter.TermID)
		conditions = append(conditions, fmt.Sprintf("s.term_id = $%d", len(args)))
	}
	if filter.InstructorID != "" {
		args = append(args, filter.InstructorID)
		conditions = append(conditions, fmt.Sprintf("s.instructor_id = $%d", len(args)))
	}
	if !filter.IncludeDeleted {
		conditions = append(conditions, "s.deleted_at IS NULL")
	}

	query := "SELECT " + sectionColumns + " FROM sections s JOIN courses c ON c.id = s.course_id"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY c.code ASC, s.section_number ASC"

	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	if len(filter.IDs) > 0 {
		sections = orderByIDs(sections, filter.IDs, func(s models.Section) string { return s.ID })
	}
	return sections, nil
}

// orderByIDs reorders items to follow ids. Items whose id is not listed keep
// their relative order at the end.
func orderByIDs[T any](items []T, ids []string, id func(T) string) []T {
	rank := make(map[string]int, len(ids))
	for i, v := range ids {
		if _, seen := rank[v]; !seen {
			rank[v] = i
		}
	}
	out := make([]T, 0, len(items))
	var rest []T
	placed := make([]*T, len(ids))
	for i := range items {
		if pos, ok := rank[id(items[i])]; ok && placed[pos] == nil {
			placed[pos] = &items[i]
			continue
		}
		rest = append(rest, items[i])
	}
	for _, item := range placed {
		if item != nil {
			out = append(out, *item)
		}
	}
	return append(out, rest...)
}
