package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-scheduler/internal/models"
)

func TestDiagnoseReportsSectionsThatFitNowhere(t *testing.T) {
	lab := section("lab", "i2", 20)
	lab.RequiredFeatures = []string{"computers"}
	problem := Problem{
		Sections:   []models.Section{section("ok", "i1", 20), section("big", "i1", 100), lab},
		Classrooms: []models.Classroom{room("r1", 30), room("r2", 60, "projector")},
		TimeSlots:  []models.TimeSlot{mon0900, tue0900},
	}

	diagnosis := Diagnose(problem, DefaultConstraints())
	require.Len(t, diagnosis, 2)

	assert.Equal(t, "big", diagnosis[0].SectionID)
	assert.Equal(t, map[string]int{ConstraintCapacity: 4}, diagnosis[0].Rejections)
	assert.Equal(t, "lab", diagnosis[1].SectionID)
	assert.Equal(t, []string{ConstraintFeatures}, diagnosis[1].Constraints())
	assert.Equal(t, 4, diagnosis[1].Rejections[ConstraintFeatures])
}

func TestDiagnoseIsEmptyForInteractionConflicts(t *testing.T) {
	problem := Problem{
		Sections:   []models.Section{section("s1", "i1", 20), section("s2", "i1", 20)},
		Classrooms: []models.Classroom{room("r1", 30)},
		TimeSlots:  []models.TimeSlot{mon0900},
	}
	assert.Empty(t, Diagnose(problem, DefaultConstraints()))

	relaxed := Diagnose(Problem{
		Sections:   []models.Section{section("big", "i1", 100)},
		Classrooms: []models.Classroom{room("r1", 30)},
		TimeSlots:  []models.TimeSlot{mon0900},
	}, Constraints{})
	assert.Empty(t, relaxed)
}
