package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-scheduler/internal/models"
	"github.com/noah-isme/campus-scheduler/internal/scheduler"
	"github.com/noah-isme/campus-scheduler/internal/service"
	"github.com/noah-isme/campus-scheduler/pkg/config"
	"github.com/noah-isme/campus-scheduler/pkg/storage"
)

// Exit codes of the solve command.
const (
	exitInvalid    = 1
	exitInfeasible = 2
	exitBudget     = 3
)

var solveFlags = []cli.Flag{
	cli.StringFlag{Name: "input, i", Usage: "problem file (JSON)"},
	cli.StringFlag{Name: "output, o", Usage: "write assignments as JSON to this file instead of stdout"},
	cli.StringFlag{Name: "ics", Usage: "also write an iCalendar file"},
	cli.StringFlag{Name: "start", Usage: "first calendar date, YYYY-MM-DD (default today)"},
	cli.StringFlag{Name: "end", Usage: "last calendar date, YYYY-MM-DD"},
	cli.StringFlag{Name: "optimizer", Usage: "identity or local_search (default SCHEDULER_OPTIMIZER)"},
	cli.IntFlag{Name: "max-nodes", Usage: "search node budget (default SCHEDULER_MAX_NODES)"},
	cli.DurationFlag{Name: "timeout", Usage: "search deadline (default SCHEDULER_TIMEOUT)"},
}

// problemFile is the on-disk form of a scheduling problem.
type problemFile struct {
	Sections              []models.Section              `json:"sections"`
	Classrooms            []models.Classroom            `json:"classrooms"`
	TimeSlots             []models.TimeSlot             `json:"timeSlots"`
	Enrollments           []models.Enrollment           `json:"enrollments"`
	InstructorPreferences []models.InstructorPreference `json:"instructorPreferences"`
	HardConstraints       []string                      `json:"hardConstraints"`
	SoftConstraints       []string                      `json:"softConstraints"`
}

type solveOptions struct {
	Input     string
	Output    string
	ICS       string
	Start     string
	End       string
	Optimizer string
	MaxNodes  int
	Timeout   time.Duration
	Location  *time.Location
	UIDDomain string
}

type solveReport struct {
	Assignments []models.Assignment `json:"assignments"`
	Stats       scheduler.Stats     `json:"stats"`
	Penalty     int                 `json:"penalty"`
}

func solve(ctx *cli.Context) error {
	if ctx.String("input") == "" {
		return cli.NewExitError("--input is required", exitInvalid)
	}
	cfg, err := config.Load()
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("load config: %v", err), exitInvalid)
	}
	loc, err := time.LoadLocation(cfg.Calendar.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	opts := solveOptions{
		Input:     ctx.String("input"),
		Output:    ctx.String("output"),
		ICS:       ctx.String("ics"),
		Start:     ctx.String("start"),
		End:       ctx.String("end"),
		Optimizer: cfg.Scheduler.Optimizer,
		MaxNodes:  cfg.Scheduler.MaxNodes,
		Timeout:   cfg.Scheduler.Timeout,
		Location:  loc,
		UIDDomain: cfg.Calendar.UIDDomain,
	}
	if v := ctx.String("optimizer"); v != "" {
		opts.Optimizer = v
	}
	if v := ctx.Int("max-nodes"); v > 0 {
		opts.MaxNodes = v
	}
	if v := ctx.Duration("timeout"); v > 0 {
		opts.Timeout = v
	}

	store, err := storage.NewStore(afero.NewOsFs(), ".")
	if err != nil {
		return cli.NewExitError(err.Error(), exitInvalid)
	}
	return runSolve(context.Background(), store, opts, os.Stdout)
}

func runSolve(ctx context.Context, store *storage.Store, opts solveOptions, stdout io.Writer) error {
	raw, err := store.Read(opts.Input)
	if err != nil {
		return cli.NewExitError(err.Error(), exitInvalid)
	}
	var file problemFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return cli.NewExitError(fmt.Sprintf("parse %s: %v", opts.Input, err), exitInvalid)
	}

	runOpts := scheduler.Options{MaxNodes: opts.MaxNodes, Timeout: opts.Timeout}
	if len(file.HardConstraints) > 0 {
		hard, err := scheduler.ParseConstraintNames(file.HardConstraints)
		if err != nil {
			return cli.NewExitError(err.Error(), exitInvalid)
		}
		runOpts.Constraints = &hard
	}
	if runOpts.Soft, err = scheduler.ParseSoftConstraintNames(file.SoftConstraints); err != nil {
		return cli.NewExitError(err.Error(), exitInvalid)
	}
	switch opts.Optimizer {
	case "", service.OptimizerIdentity:
		runOpts.Optimizer = scheduler.IdentityOptimizer{}
	case service.OptimizerLocalSearch:
		runOpts.Optimizer = scheduler.LocalSearchOptimizer{}
	default:
		return cli.NewExitError(fmt.Sprintf("unknown optimizer %q", opts.Optimizer), exitInvalid)
	}

	slots := file.TimeSlots
	if len(slots) == 0 {
		slots = scheduler.DefaultTimeSlots()
	}
	prefs := make(map[string]models.InstructorPreference, len(file.InstructorPreferences))
	for _, pref := range file.InstructorPreferences {
		prefs[pref.InstructorID] = pref
	}
	problem := scheduler.Problem{
		Sections:              file.Sections,
		Classrooms:            file.Classrooms,
		TimeSlots:             slots,
		Enrollments:           file.Enrollments,
		InstructorPreferences: prefs,
	}

	result, err := scheduler.GenerateSchedule(ctx, problem, runOpts)
	switch {
	case errors.Is(err, scheduler.ErrInvalidInput):
		return cli.NewExitError(err.Error(), exitInvalid)
	case errors.Is(err, scheduler.ErrInfeasible):
		hard := scheduler.DefaultConstraints()
		if runOpts.Constraints != nil {
			hard = *runOpts.Constraints
		}
		msg := fmt.Sprintf("%v (%d nodes, %d backtracks)", err, result.Stats.Nodes, result.Stats.Backtracks)
		for _, u := range scheduler.Diagnose(problem, hard) {
			msg += fmt.Sprintf("\n  section %s fits nowhere: %s", u.SectionID, strings.Join(u.Constraints(), ", "))
		}
		return cli.NewExitError(msg, exitInfeasible)
	case errors.Is(err, scheduler.ErrBudgetExhausted):
		return cli.NewExitError(fmt.Sprintf("%v (%d nodes)", err, result.Stats.Nodes), exitBudget)
	case err != nil:
		return cli.NewExitError(err.Error(), exitInvalid)
	}

	report, err := json.MarshalIndent(solveReport{Assignments: result.Assignments, Stats: result.Stats, Penalty: result.Penalty}, "", "  ")
	if err != nil {
		return err
	}
	if opts.Output != "" {
		if _, err := store.Save(opts.Output, append(report, '\n')); err != nil {
			return cli.NewExitError(err.Error(), exitInvalid)
		}
	} else {
		fmt.Fprintln(stdout, string(report))
	}

	if opts.ICS != "" {
		exporter := service.NewCalendarExportService(nil, nil, nil, zap.NewNop(), service.CalendarConfig{
			Location:  opts.Location,
			UIDDomain: opts.UIDDomain,
		})
		start, end, err := exporter.ResolveRange(opts.Start, opts.End)
		if err != nil {
			return cli.NewExitError(err.Error(), exitInvalid)
		}
		weekly := service.BuildWeeklySchedule(result.Assignments, file.Sections, file.Classrooms)
		body, err := exporter.GenerateICal(weekly, start, end)
		if err != nil {
			return cli.NewExitError(err.Error(), exitInvalid)
		}
		if _, err := store.Save(opts.ICS, []byte(body)); err != nil {
			return cli.NewExitError(err.Error(), exitInvalid)
		}
	}
	return nil
}

func grid(_ *cli.Context) error {
	out, err := json.MarshalIndent(scheduler.DefaultTimeSlots(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
