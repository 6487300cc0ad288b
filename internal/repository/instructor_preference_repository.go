package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-scheduler/internal/models"
)

// InstructorPreferenceRepository reads stored soft scheduling preferences.
type InstructorPreferenceRepository struct {
	db *sqlx.DB
}

// NewInstructorPreferenceRepository constructs the repository.
func NewInstructorPreferenceRepository(db *sqlx.DB) *InstructorPreferenceRepository {
	return &InstructorPreferenceRepository{db: db}
}

// ListByInstructors returns preferences keyed by instructor id.
func (r *InstructorPreferenceRepository) ListByInstructors(ctx context.Context, instructorIDs []string) (map[string]models.InstructorPreference, error) {
	out := make(map[string]models.InstructorPreference)
	if len(instructorIDs) == 0 {
		return out, nil
	}
	const query = `SELECT id, instructor_id, preferred_days, preferred_slots, avoid_slots, max_meetings_per_day, updated_at
FROM instructor_preferences WHERE instructor_id = ANY($1)`
	var records []models.InstructorPreferenceRecord
	if err := r.db.SelectContext(ctx, &records, query, pq.Array(instructorIDs)); err != nil {
		return nil, fmt.Errorf("list instructor preferences: %w", err)
	}
	for _, record := range records {
		pref, err := record.Decode()
		if err != nil {
			return nil, fmt.Errorf("decode preferences for %s: %w", record.InstructorID, err)
		}
		out[record.InstructorID] = pref
	}
	return out, nil
}
