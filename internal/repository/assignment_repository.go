package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-scheduler/internal/models"
)

// AssignmentRepository persists committed schedule rows.
type AssignmentRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db, now: time.Now}
}

// ReplaceAssignmentsForSections deletes the existing rows of sectionIDs and
// inserts assignments in one transaction. Readers never observe a partial
// batch.
func (r *AssignmentRepository) ReplaceAssignmentsForSections(ctx context.Context, sectionIDs []string, assignments []models.Assignment) (err error) {
	if len(sectionIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM schedule_assignments WHERE section_id = ANY($1)`, pq.Array(sectionIDs)); err != nil {
		return fmt.Errorf("delete assignments: %w", err)
	}

	const insert = `INSERT INTO schedule_assignments (id, section_id, meeting_index, day_of_week, start_time, end_time, classroom_id, created_at)
VALUES (:id, :section_id, :meeting_index, :day_of_week, :start_time, :end_time, :classroom_id, :created_at)`
	now := r.now().UTC()
	for i := range assignments {
		row := assignments[i]
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, insert, row); err != nil {
			return fmt.Errorf("insert assignment for section %s: %w", row.SectionID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assignments: %w", err)
	}
	return nil
}

// ListAssignmentsForSections returns persisted rows for the given sections.
func (r *AssignmentRepository) ListAssignmentsForSections(ctx context.Context, sectionIDs []string) ([]models.Assignment, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, section_id, meeting_index, day_of_week, start_time, end_time, classroom_id, created_at
FROM schedule_assignments WHERE section_id = ANY($1) ORDER BY section_id, meeting_index`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, pq.Array(sectionIDs)); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}
