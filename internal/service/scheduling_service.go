package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/campus-scheduler/internal/dto"
	"github.com/noah-isme/campus-scheduler/internal/models"
	"github.com/noah-isme/campus-scheduler/internal/scheduler"
	appErrors "github.com/noah-isme/campus-scheduler/pkg/errors"
	"github.com/noah-isme/campus-scheduler/pkg/jobs"
)

// JobTypeScheduleRun identifies async scheduling runs on the job queue.
const JobTypeScheduleRun = "schedule.run"

// Optimizer names accepted in config and requests.
const (
	OptimizerIdentity    = "identity"
	OptimizerLocalSearch = "local_search"
)

const weeklyCachePattern = "schedule:weekly:*"

type sectionLister interface {
	ListSections(ctx context.Context, filter models.SectionFilter) ([]models.Section, error)
}

type classroomLister interface {
	ListClassrooms(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, error)
}

type activeEnrollmentLister interface {
	ListActiveEnrollments(ctx context.Context, sectionIDs []string) ([]models.Enrollment, error)
}

type assignmentReplacer interface {
	ReplaceAssignmentsForSections(ctx context.Context, sectionIDs []string, assignments []models.Assignment) error
}

type instructorPreferenceLister interface {
	ListByInstructors(ctx context.Context, instructorIDs []string) (map[string]models.InstructorPreference, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// SchedulingConfig carries search limits and run retention.
type SchedulingConfig struct {
	MaxNodes  int
	Timeout   time.Duration
	Optimizer string
	RunTTL    time.Duration
}

// SchedulingService loads a batch of sections, runs the search and persists
// the result.
type SchedulingService struct {
	sections    sectionLister
	classrooms  classroomLister
	enrollments activeEnrollmentLister
	assignments assignmentReplacer
	prefs       instructorPreferenceLister
	cache       cacheInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         SchedulingConfig
	runs        *runStore
	queue       jobEnqueuer
	now         func() time.Time
}

// NewSchedulingService wires scheduling dependencies. prefs, cache and
// metrics may be nil.
func NewSchedulingService(
	sections sectionLister,
	classrooms classroomLister,
	enrollments activeEnrollmentLister,
	assignments assignmentReplacer,
	prefs instructorPreferenceLister,
	cache cacheInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SchedulingConfig,
) *SchedulingService {
	if validate == nil {
		validate = validator.New()
	}
	RegisterSchedulingValidations(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = time.Hour
	}
	if cfg.Optimizer == "" {
		cfg.Optimizer = OptimizerIdentity
	}
	return &SchedulingService{
		sections:    sections,
		classrooms:  classrooms,
		enrollments: enrollments,
		assignments: assignments,
		prefs:       prefs,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		runs:        newRunStore(cfg.RunTTL),
		now:         time.Now,
	}
}

// AttachQueue sets the dispatcher used by Submit.
func (s *SchedulingService) AttachQueue(queue jobEnqueuer) {
	s.queue = queue
}

// DefaultTimeSlots exposes the grid used when a request names no slots.
func (s *SchedulingService) DefaultTimeSlots() []models.TimeSlot {
	return scheduler.DefaultTimeSlots()
}

// Run schedules the batch and replaces its stored assignments.
func (s *SchedulingService) Run(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleRunResponse, error) {
	return s.execute(ctx, uuid.NewString(), req, true)
}

// Preview schedules the batch without writing anything.
func (s *SchedulingService) Preview(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleRunResponse, error) {
	return s.execute(ctx, uuid.NewString(), req, false)
}

type runPayload struct {
	Request dto.GenerateScheduleRequest
}

// Submit queues a persisting run and returns its QUEUED record.
func (s *SchedulingService) Submit(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleRunResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "scheduling queue not configured")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduling payload")
	}

	run := dto.ScheduleRunResponse{
		RunID:       uuid.NewString(),
		Status:      dto.RunStatusQueued,
		Assignments: []dto.AssignmentView{},
		CreatedAt:   s.now().UTC(),
	}
	s.runs.Save(run)

	job := jobs.Job{
		ID:      run.RunID,
		Type:    JobTypeScheduleRun,
		Payload: runPayload{Request: copyRequest(req)},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.runs.Delete(run.RunID)
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "scheduling queue is full, retry later")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue scheduling run")
	}
	s.logger.Info("scheduling run queued", zap.String("run_id", run.RunID))
	return &run, nil
}

// GetRun returns the latest state of an async run.
func (s *SchedulingService) GetRun(_ context.Context, id string) (*dto.ScheduleRunResponse, error) {
	run, ok := s.runs.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "scheduling run not found or expired")
	}
	return &run, nil
}

// HandleRunJob executes a queued run. Failures are recorded on the run and
// not returned, so the queue does not retry a deterministic search.
func (s *SchedulingService) HandleRunJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(runPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	if !s.runs.Update(job.ID, func(r *dto.ScheduleRunResponse) { r.Status = dto.RunStatusRunning }) {
		s.logger.Warn("scheduling run expired before start", zap.String("run_id", job.ID))
		return nil
	}

	result, err := s.execute(ctx, job.ID, payload.Request, true)
	completed := s.now().UTC()
	s.runs.Update(job.ID, func(r *dto.ScheduleRunResponse) {
		r.CompletedAt = &completed
		if err != nil {
			r.Status = dto.RunStatusFailed
			appErr := appErrors.FromError(err)
			r.Error = &dto.RunError{Code: appErr.Code, Message: appErr.Message}
			var stats *runStatsError
			if errors.As(err, &stats) {
				r.Stats = stats.stats
				r.Error.Unplaceable = stats.unplaceable
			}
			return
		}
		r.Status = dto.RunStatusSucceeded
		r.Persisted = result.Persisted
		r.Assignments = result.Assignments
		r.Stats = result.Stats
		r.Penalty = result.Penalty
	})
	return nil
}

// runStatsError carries search stats and diagnostics alongside a failed search.
type runStatsError struct {
	stats       dto.RunStats
	unplaceable []dto.UnplaceableSection
	err         error
}

func (e *runStatsError) Error() string { return e.err.Error() }
func (e *runStatsError) Unwrap() error { return e.err }

func (s *SchedulingService) execute(ctx context.Context, runID string, req dto.GenerateScheduleRequest, persist bool) (*dto.ScheduleRunResponse, error) {
	createdAt := s.now().UTC()
	if err := s.validator.Struct(req); err != nil {
		s.metrics.ObserveSchedulerRun(RunOutcomeInvalid, 0, 0, 0)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduling payload")
	}

	hard := scheduler.DefaultConstraints()
	if len(req.HardConstraints) > 0 {
		parsed, err := scheduler.ParseConstraintNames(req.HardConstraints)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
		hard = parsed
	}
	soft, err := scheduler.ParseSoftConstraintNames(req.SoftConstraints)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	optimizer, err := s.optimizerFor(req.Optimizer)
	if err != nil {
		return nil, err
	}

	problem, err := s.loadProblem(ctx, req)
	if err != nil {
		return nil, err
	}

	opts := scheduler.Options{
		Constraints: &hard,
		Soft:        soft,
		Optimizer:   optimizer,
		MaxNodes:    s.cfg.MaxNodes,
		Timeout:     s.cfg.Timeout,
	}
	if req.MaxNodes > 0 {
		opts.MaxNodes = req.MaxNodes
	}
	if req.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	result, err := scheduler.GenerateSchedule(ctx, problem, opts)
	if err != nil {
		var stats scheduler.Stats
		if result != nil {
			stats = result.Stats
		}
		appErr, outcome := mapSchedulerError(err)
		s.metrics.ObserveSchedulerRun(outcome, stats.Nodes, stats.Backtracks, stats.Duration)
		failed := &runStatsError{stats: toRunStats(len(problem.Sections), stats), err: appErr}
		if errors.Is(err, scheduler.ErrInfeasible) {
			failed.unplaceable = toUnplaceable(scheduler.Diagnose(problem, hard))
		}
		s.logger.Warn("scheduling run failed",
			zap.String("run_id", runID),
			zap.String("outcome", outcome),
			zap.Int("sections", len(problem.Sections)),
			zap.Int("nodes", stats.Nodes),
			zap.Int("backtracks", stats.Backtracks),
			zap.Any("unplaceable", failed.unplaceable),
			zap.Error(err),
		)
		return nil, failed
	}

	if violations := scheduler.ValidateAssignments(result.Assignments, problem.Sections, problem.Classrooms, problem.Enrollments, hard); len(violations) > 0 {
		s.metrics.ObserveSchedulerRun(RunOutcomeError, result.Stats.Nodes, result.Stats.Backtracks, result.Stats.Duration)
		s.logger.Error("scheduler produced conflicting assignments",
			zap.String("run_id", runID),
			zap.String("first_violation", violations[0].String()),
			zap.Int("violations", len(violations)),
		)
		return nil, appErrors.Clone(appErrors.ErrInternal, "scheduler produced conflicting assignments")
	}

	sectionIDs := make([]string, len(problem.Sections))
	for i, section := range problem.Sections {
		sectionIDs[i] = section.ID
	}
	if persist {
		if err := s.assignments.ReplaceAssignmentsForSections(ctx, sectionIDs, result.Assignments); err != nil {
			s.metrics.ObserveSchedulerRun(RunOutcomeError, result.Stats.Nodes, result.Stats.Backtracks, result.Stats.Duration)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule")
		}
		if s.cache != nil {
			if err := s.cache.Invalidate(ctx, weeklyCachePattern); err != nil {
				s.logger.Warn("weekly schedule cache invalidation failed", zap.Error(err))
			}
		}
	}

	s.metrics.ObserveSchedulerRun(RunOutcomeSuccess, result.Stats.Nodes, result.Stats.Backtracks, result.Stats.Duration)
	s.logger.Info("scheduling run completed",
		zap.String("run_id", runID),
		zap.Bool("persisted", persist),
		zap.Int("sections", len(problem.Sections)),
		zap.Int("assignments", len(result.Assignments)),
		zap.Int("nodes", result.Stats.Nodes),
		zap.Int("backtracks", result.Stats.Backtracks),
		zap.Int("penalty", result.Penalty),
		zap.Duration("duration", result.Stats.Duration),
	)

	completed := s.now().UTC()
	return &dto.ScheduleRunResponse{
		RunID:       runID,
		Status:      dto.RunStatusSucceeded,
		Persisted:   persist,
		Assignments: toAssignmentViews(result.Assignments, problem.Sections),
		Stats:       toRunStats(len(problem.Sections), result.Stats),
		Penalty:     result.Penalty,
		CreatedAt:   createdAt,
		CompletedAt: &completed,
	}, nil
}

func (s *SchedulingService) optimizerFor(name string) (scheduler.Optimizer, error) {
	if name == "" {
		name = s.cfg.Optimizer
	}
	switch strings.ToLower(name) {
	case OptimizerIdentity:
		return scheduler.IdentityOptimizer{}, nil
	case OptimizerLocalSearch:
		return scheduler.LocalSearchOptimizer{}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown optimizer %q", name))
	}
}

func (s *SchedulingService) loadProblem(ctx context.Context, req dto.GenerateScheduleRequest) (scheduler.Problem, error) {
	var (
		sections   []models.Section
		classrooms []models.Classroom
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		filter := models.SectionFilter{IDs: req.SectionIDs}
		if len(req.SectionIDs) == 0 {
			filter.TermID = req.TermID
		}
		var err error
		sections, err = s.sections.ListSections(gctx, filter)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		classrooms, err = s.classrooms.ListClassrooms(gctx, models.ClassroomFilter{IDs: req.ClassroomIDs, Building: req.Building})
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return scheduler.Problem{}, err
	}

	if missing := missingIDs(req.SectionIDs, sections); len(missing) > 0 {
		return scheduler.Problem{}, appErrors.Clone(appErrors.ErrValidation, "unknown sections: "+strings.Join(missing, ", "))
	}
	if len(sections) == 0 {
		return scheduler.Problem{}, appErrors.Clone(appErrors.ErrValidation, "no sections to schedule")
	}
	if len(classrooms) == 0 {
		return scheduler.Problem{}, appErrors.Clone(appErrors.ErrValidation, "no classrooms available")
	}

	sectionIDs := make([]string, len(sections))
	instructorSet := make(map[string]struct{})
	var instructorIDs []string
	for i, section := range sections {
		sectionIDs[i] = section.ID
		if section.InstructorID == "" {
			continue
		}
		if _, ok := instructorSet[section.InstructorID]; !ok {
			instructorSet[section.InstructorID] = struct{}{}
			instructorIDs = append(instructorIDs, section.InstructorID)
		}
	}

	enrollments, err := s.enrollments.ListActiveEnrollments(ctx, sectionIDs)
	if err != nil {
		return scheduler.Problem{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	prefs := make(map[string]models.InstructorPreference)
	if s.prefs != nil && len(instructorIDs) > 0 {
		stored, err := s.prefs.ListByInstructors(ctx, instructorIDs)
		if err != nil {
			return scheduler.Problem{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor preferences")
		}
		for id, pref := range stored {
			prefs[id] = pref
		}
	}
	for _, pref := range req.InstructorPreferences {
		if pref.InstructorID != "" {
			prefs[pref.InstructorID] = pref
		}
	}

	slots := req.TimeSlots
	if len(slots) == 0 {
		slots = scheduler.DefaultTimeSlots()
	}

	return scheduler.Problem{
		Sections:              sections,
		Classrooms:            classrooms,
		TimeSlots:             slots,
		Enrollments:           enrollments,
		InstructorPreferences: prefs,
	}, nil
}

func missingIDs(requested []string, sections []models.Section) []string {
	if len(requested) == 0 {
		return nil
	}
	found := make(map[string]bool, len(sections))
	for _, section := range sections {
		found[section.ID] = true
	}
	var missing []string
	for _, id := range requested {
		if !found[id] {
			missing = append(missing, id)
			found[id] = true
		}
	}
	return missing
}

func mapSchedulerError(err error) (*appErrors.Error, string) {
	switch {
	case errors.Is(err, scheduler.ErrInvalidInput):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()), RunOutcomeInvalid
	case errors.Is(err, scheduler.ErrInfeasible):
		return appErrors.Wrap(err, appErrors.ErrUnschedulable.Code, appErrors.ErrUnschedulable.Status, appErrors.ErrUnschedulable.Message), RunOutcomeInfeasible
	case errors.Is(err, scheduler.ErrBudgetExhausted):
		return appErrors.Wrap(err, appErrors.ErrSearchBudget.Code, appErrors.ErrSearchBudget.Status, appErrors.ErrSearchBudget.Message), RunOutcomeBudget
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "scheduling failed"), RunOutcomeError
	}
}

func toUnplaceable(diagnosis []scheduler.Unplaceable) []dto.UnplaceableSection {
	if len(diagnosis) == 0 {
		return nil
	}
	out := make([]dto.UnplaceableSection, len(diagnosis))
	for i, d := range diagnosis {
		out[i] = dto.UnplaceableSection{SectionID: d.SectionID, Constraints: d.Constraints()}
	}
	return out
}

func toRunStats(sections int, stats scheduler.Stats) dto.RunStats {
	return dto.RunStats{
		Sections:   sections,
		Variables:  stats.Variables,
		Nodes:      stats.Nodes,
		Backtracks: stats.Backtracks,
		DurationMs: stats.Duration.Milliseconds(),
	}
}

func toAssignmentViews(assignments []models.Assignment, sections []models.Section) []dto.AssignmentView {
	byID := make(map[string]models.Section, len(sections))
	for _, section := range sections {
		byID[section.ID] = section
	}
	views := make([]dto.AssignmentView, 0, len(assignments))
	for _, a := range assignments {
		section := byID[a.SectionID]
		views = append(views, dto.AssignmentView{
			SectionID:     a.SectionID,
			CourseCode:    section.CourseCode,
			SectionNumber: section.SectionNumber,
			InstructorID:  section.InstructorID,
			MeetingIndex:  a.MeetingIndex,
			DayOfWeek:     a.DayOfWeek,
			StartTime:     a.StartTime,
			EndTime:       a.EndTime,
			ClassroomID:   a.ClassroomID,
		})
	}
	return views
}

func copyRequest(req dto.GenerateScheduleRequest) dto.GenerateScheduleRequest {
	out := req
	out.SectionIDs = append([]string(nil), req.SectionIDs...)
	out.ClassroomIDs = append([]string(nil), req.ClassroomIDs...)
	out.TimeSlots = append([]models.TimeSlot(nil), req.TimeSlots...)
	out.HardConstraints = append([]string(nil), req.HardConstraints...)
	out.SoftConstraints = append([]string(nil), req.SoftConstraints...)
	out.InstructorPreferences = make([]models.InstructorPreference, len(req.InstructorPreferences))
	for i, pref := range req.InstructorPreferences {
		pref.PreferredDays = append([]string(nil), pref.PreferredDays...)
		pref.PreferredSlots = append([]models.TimeSlot(nil), pref.PreferredSlots...)
		pref.AvoidSlots = append([]models.TimeSlot(nil), pref.AvoidSlots...)
		out.InstructorPreferences[i] = pref
	}
	return out
}
