package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ClassroomFeatures flags what a room offers, e.g. {"projector": true}.
type ClassroomFeatures map[string]bool

// Value implements driver.Valuer storing the map as jsonb.
func (f ClassroomFeatures) Value() (driver.Value, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *ClassroomFeatures) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*f = ClassroomFeatures{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("classroom features: unsupported type %T", src)
	}
	out := ClassroomFeatures{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("classroom features: %w", err)
		}
	}
	*f = out
	return nil
}

// Classroom is a physical room that can host a section meeting.
type Classroom struct {
	ID         string            `db:"id" json:"id"`
	Building   string            `db:"building" json:"building"`
	RoomNumber string            `db:"room_number" json:"room_number"`
	Capacity   int               `db:"capacity" json:"capacity"`
	Features   ClassroomFeatures `db:"features" json:"features"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time         `db:"updated_at" json:"updated_at"`
}

// HasFeature reports whether the room flags the feature as present.
func (c Classroom) HasFeature(name string) bool {
	return c.Features[name]
}

// Label renders "Building Room".
func (c Classroom) Label() string {
	switch {
	case c.Building == "":
		return c.RoomNumber
	case c.RoomNumber == "":
		return c.Building
	}
	return c.Building + " " + c.RoomNumber
}

// ClassroomFilter narrows ListClassrooms.
type ClassroomFilter struct {
	IDs         []string
	Building    string
	MinCapacity int
}
