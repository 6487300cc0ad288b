package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"

	"github.com/noah-isme/campus-scheduler/pkg/storage"
)

const sampleProblem = `{
  "sections": [
    {"id": "s1", "course_code": "CS101", "course_name": "Intro", "section_number": "1", "instructor_id": "i1", "capacity": 20},
    {"id": "s2", "course_code": "CS102", "course_name": "Data", "section_number": "1", "instructor_id": "i1", "capacity": 20}
  ],
  "classrooms": [{"id": "r1", "building": "Science", "room_number": "101", "capacity": 30}],
  "timeSlots": [
    {"dayOfWeek": "MONDAY", "startTime": "09:00", "endTime": "10:30"},
    {"dayOfWeek": "MONDAY", "startTime": "10:45", "endTime": "12:15"}
  ]
}`

func newMemStore(t *testing.T, files map[string]string) (*storage.Store, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	store, err := storage.NewStore(fsys, "/work")
	require.NoError(t, err)
	for name, body := range files {
		_, err := store.Save(name, []byte(body))
		require.NoError(t, err)
	}
	return store, fsys
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var coder cli.ExitCoder
	require.True(t, errors.As(err, &coder), "expected exit error, got %v", err)
	return coder.ExitCode()
}

func TestRunSolveWritesAssignmentsAndCalendar(t *testing.T) {
	store, fsys := newMemStore(t, map[string]string{"problem.json": sampleProblem})

	err := runSolve(context.Background(), store, solveOptions{
		Input:    "problem.json",
		Output:   "out/assignments.json",
		ICS:      "out/schedule.ics",
		Start:    "2025-01-01",
		End:      "2025-01-28",
		Location: time.UTC,
	}, &bytes.Buffer{})
	require.NoError(t, err)

	raw, err := afero.ReadFile(fsys, "/work/out/assignments.json")
	require.NoError(t, err)
	var report solveReport
	require.NoError(t, json.Unmarshal(raw, &report))
	require.Len(t, report.Assignments, 2)
	assert.Equal(t, "09:00", report.Assignments[0].StartTime)
	assert.Equal(t, "10:45", report.Assignments[1].StartTime)

	ics, err := afero.ReadFile(fsys, "/work/out/schedule.ics")
	require.NoError(t, err)
	assert.Equal(t, 8, strings.Count(string(ics), "BEGIN:VEVENT"))
}

func TestRunSolvePrintsToStdout(t *testing.T) {
	store, _ := newMemStore(t, map[string]string{"problem.json": sampleProblem})
	var out bytes.Buffer

	require.NoError(t, runSolve(context.Background(), store, solveOptions{Input: "problem.json"}, &out))
	assert.Contains(t, out.String(), `"classroom_id": "r1"`)
}

func TestRunSolveExitCodes(t *testing.T) {
	tight := strings.Replace(sampleProblem, `"capacity": 30`, `"capacity": 5`, 1)
	store, _ := newMemStore(t, map[string]string{
		"problem.json": sampleProblem,
		"tight.json":   tight,
		"broken.json":  `{"sections": [`,
	})
	ctx := context.Background()

	err := runSolve(ctx, store, solveOptions{Input: "tight.json"}, &bytes.Buffer{})
	assert.Equal(t, exitInfeasible, exitCode(t, err))
	assert.Contains(t, err.Error(), "fits nowhere: classroomCapacity")

	err = runSolve(ctx, store, solveOptions{Input: "problem.json", MaxNodes: 1}, &bytes.Buffer{})
	assert.Equal(t, exitBudget, exitCode(t, err))

	err = runSolve(ctx, store, solveOptions{Input: "broken.json"}, &bytes.Buffer{})
	assert.Equal(t, exitInvalid, exitCode(t, err))

	err = runSolve(ctx, store, solveOptions{Input: "missing.json"}, &bytes.Buffer{})
	assert.Equal(t, exitInvalid, exitCode(t, err))

	err = runSolve(ctx, store, solveOptions{Input: "problem.json", Optimizer: "annealing"}, &bytes.Buffer{})
	assert.Equal(t, exitInvalid, exitCode(t, err))
}
