package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-scheduler/internal/models"
)

// ClassroomRepository reads rooms available for scheduling.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository constructs the repository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// ListClassrooms returns rooms matching the filter, in IDs order when given.
func (r *ClassroomRepository) ListClassrooms(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, error) {
	var conditions []string
	var args []interface{}

	if len(filter.IDs) > 0 {
		args = append(args, pq.Array(filter.IDs))
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	if filter.Building != "" {
		args = append(args, filter.Building)
		conditions = append(conditions, fmt.Sprintf("building = $%d", len(args)))
	}
	if filter.MinCapacity > 0 {
		args = append(args, filter.MinCapacity)
		conditions = append(conditions, fmt.Sprintf("capacity >= $%d", len(args)))
	}

	query := "SELECT id, building, room_number, capacity, features, created_at, updated_at FROM classrooms"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY building ASC, room_number ASC"

	var rooms []models.Classroom
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	if len(filter.IDs) > 0 {
		rooms = orderByIDs(rooms, filter.IDs, func(c models.Classroom) string { return c.ID })
	}
	return rooms, nil
}
