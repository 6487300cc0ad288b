package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// InstructorPreference holds soft scheduling wishes for one instructor.
type InstructorPreference struct {
	InstructorID      string     `json:"instructorId"`
	PreferredDays     []string   `json:"preferredDays,omitempty"`
	PreferredSlots    []TimeSlot `json:"preferredSlots,omitempty"`
	AvoidSlots        []TimeSlot `json:"avoidSlots,omitempty"`
	MaxMeetingsPerDay int        `json:"maxMeetingsPerDay,omitempty"`
}

// InstructorPreferenceRecord is the persisted form of InstructorPreference.
type InstructorPreferenceRecord struct {
	ID                string         `db:"id"`
	InstructorID      string         `db:"instructor_id"`
	PreferredDays     types.JSONText `db:"preferred_days"`
	PreferredSlots    types.JSONText `db:"preferred_slots"`
	AvoidSlots        types.JSONText `db:"avoid_slots"`
	MaxMeetingsPerDay int            `db:"max_meetings_per_day"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

// Decode expands the JSON columns.
func (r InstructorPreferenceRecord) Decode() (InstructorPreference, error) {
	pref := InstructorPreference{InstructorID: r.InstructorID, MaxMeetingsPerDay: r.MaxMeetingsPerDay}
	if len(r.PreferredDays) > 0 {
		if err := r.PreferredDays.Unmarshal(&pref.PreferredDays); err != nil {
			return pref, err
		}
	}
	if len(r.PreferredSlots) > 0 {
		if err := r.PreferredSlots.Unmarshal(&pref.PreferredSlots); err != nil {
			return pref, err
		}
	}
	if len(r.AvoidSlots) > 0 {
		if err := r.AvoidSlots.Unmarshal(&pref.AvoidSlots); err != nil {
			return pref, err
		}
	}
	return pref, nil
}
