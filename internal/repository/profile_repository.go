package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ProfileRepository resolves authenticated users to student or instructor
// profiles. A missing profile surfaces as sql.ErrNoRows.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindStudentIDByUser returns the student profile id of a user.
func (r *ProfileRepository) FindStudentIDByUser(ctx context.Context, userID string) (string, error) {
	var id string
	if err := r.db.GetContext(ctx, &id, `SELECT id FROM students WHERE user_id = $1`, userID); err != nil {
		return "", fmt.Errorf("find student profile: %w", err)
	}
	return id, nil
}

// FindInstructorIDByUser returns the instructor profile id of a user.
func (r *ProfileRepository) FindInstructorIDByUser(ctx context.Context, userID string) (string, error) {
	var id string
	if err := r.db.GetContext(ctx, &id, `SELECT id FROM instructors WHERE user_id = $1`, userID); err != nil {
		return "", fmt.Errorf("find instructor profile: %w", err)
	}
	return id, nil
}
