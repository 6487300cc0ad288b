package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-scheduler/internal/models"
)

// EnrollmentRepository reads student enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListActiveEnrollments returns active enrollments for the given sections.
func (r *EnrollmentRepository) ListActiveEnrollments(ctx context.Context, sectionIDs []string) ([]models.Enrollment, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, student_id, section_id, status, created_at FROM enrollments
WHERE section_id = ANY($1) AND status = $2 ORDER BY section_id, student_id`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, pq.Array(sectionIDs), models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list active enrollments: %w", err)
	}
	return enrollments, nil
}

// ListActiveByStudent returns a student's active enrollments.
func (r *EnrollmentRepository) ListActiveByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, section_id, status, created_at FROM enrollments
WHERE student_id = $1 AND status = $2 ORDER BY section_id`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}
