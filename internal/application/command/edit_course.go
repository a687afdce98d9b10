package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
	"github.com/m-saqi/aistudio-uafcgpa/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE EDIT COMMANDS
// Manual additions, soft deletion, and semester reassignment. Every edit is
// load, mutate, fully recompute, save.
// ══════════════════════════════════════════════════════════════════════════════

// profileMutator bundles the load/persist flow shared by every edit handler.
type profileMutator struct {
	repo  transcript.Repository
	cache transcript.Cache
	log   *logger.Logger
}

func (m *profileMutator) load(ctx context.Context, registration string) (*transcript.Profile, error) {
	return m.repo.GetByRegistration(ctx, strings.TrimSpace(registration))
}

func (m *profileMutator) persist(ctx context.Context, p *transcript.Profile) error {
	if err := m.repo.Save(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if err := m.cache.Invalidate(ctx, p.Registration); err != nil {
		m.log.Warn("cache invalidation failed", logger.Registration(p.Registration), logger.Err(err))
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ADD COURSE
// ══════════════════════════════════════════════════════════════════════════════

// AddCourseCommand adds a manually entered course to a semester, creating
// the bucket when it does not exist yet.
type AddCourseCommand struct {
	// Registration identifies the profile.
	Registration string

	// Semester is the target semester label in any accepted form.
	Semester string

	// Code is the course code.
	Code string

	// Title is the course title (defaults to the code).
	Title string

	// CreditHours is the credit-hour count.
	CreditHours int

	// Marks is the total marks obtained.
	Marks float64

	// Grade is the letter grade; derived from marks when empty.
	Grade string
}

// Validate validates the command.
func (c AddCourseCommand) Validate() error {
	if strings.TrimSpace(c.Registration) == "" {
		return fmt.Errorf("%w: add_course: registration is required", ErrInvalidCommand)
	}
	if strings.TrimSpace(c.Semester) == "" {
		return fmt.Errorf("%w: add_course: semester is required", ErrInvalidCommand)
	}
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("%w: add_course: course code is required", ErrInvalidCommand)
	}
	if c.CreditHours < 0 || c.CreditHours > 10 {
		return fmt.Errorf("%w: add_course: credit hours must be between 0 and 10", ErrInvalidCommand)
	}
	if c.Marks < 0 {
		return fmt.Errorf("%w: add_course: marks cannot be negative", ErrInvalidCommand)
	}
	return nil
}

// AddCourseHandler handles the AddCourseCommand.
type AddCourseHandler struct {
	profileMutator
}

// NewAddCourseHandler creates a new AddCourseHandler.
func NewAddCourseHandler(repo transcript.Repository, cache transcript.Cache, log *logger.Logger) *AddCourseHandler {
	if log == nil {
		log = logger.Default()
	}
	return &AddCourseHandler{profileMutator{repo, cache, log.With(logger.Component("add-course"))}}
}

// Handle executes the add course command.
func (h *AddCourseHandler) Handle(ctx context.Context, cmd AddCourseCommand) (*transcript.Profile, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	p, err := h.load(ctx, cmd.Registration)
	if err != nil {
		return nil, fmt.Errorf("add_course: %w", err)
	}

	record := transcript.RawRecord{
		Semester:    cmd.Semester,
		Code:        cmd.Code,
		Title:       cmd.Title,
		CreditHours: cmd.CreditHours,
		Marks:       cmd.Marks,
		Grade:       cmd.Grade,
		Source:      transcript.SourceManual,
	}
	term := transcript.NormalizeTerm(cmd.Semester)
	course := transcript.CourseFromRecord(record, term.Canonical)

	if err := p.AddCourse(cmd.Semester, course); err != nil {
		return nil, fmt.Errorf("add_course: %w", err)
	}
	if err := h.persist(ctx, p); err != nil {
		return nil, fmt.Errorf("add_course: %w", err)
	}

	h.log.Info("course added",
		logger.Registration(p.Registration),
		logger.CourseCode(course.Code),
		logger.Semester(term.Canonical))

	return p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SET COURSE DELETED
// ══════════════════════════════════════════════════════════════════════════════

// SetCourseDeletedCommand toggles the soft-delete flag on one course. The
// course stays stored either way, so the same command undeletes.
type SetCourseDeletedCommand struct {
	// Registration identifies the profile.
	Registration string

	// Semester is the canonical semester name.
	Semester string

	// Index is the course position within the semester.
	Index int

	// Deleted is the new flag state.
	Deleted bool
}

// Validate validates the command.
func (c SetCourseDeletedCommand) Validate() error {
	if strings.TrimSpace(c.Registration) == "" {
		return fmt.Errorf("%w: set_course_deleted: registration is required", ErrInvalidCommand)
	}
	if strings.TrimSpace(c.Semester) == "" {
		return fmt.Errorf("%w: set_course_deleted: semester is required", ErrInvalidCommand)
	}
	if c.Index < 0 {
		return fmt.Errorf("%w: set_course_deleted: index cannot be negative", ErrInvalidCommand)
	}
	return nil
}

// SetCourseDeletedHandler handles the SetCourseDeletedCommand.
type SetCourseDeletedHandler struct {
	profileMutator
}

// NewSetCourseDeletedHandler creates a new SetCourseDeletedHandler.
func NewSetCourseDeletedHandler(repo transcript.Repository, cache transcript.Cache, log *logger.Logger) *SetCourseDeletedHandler {
	if log == nil {
		log = logger.Default()
	}
	return &SetCourseDeletedHandler{profileMutator{repo, cache, log.With(logger.Component("set-course-deleted"))}}
}

// Handle executes the set course deleted command.
func (h *SetCourseDeletedHandler) Handle(ctx context.Context, cmd SetCourseDeletedCommand) (*transcript.Profile, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	p, err := h.load(ctx, cmd.Registration)
	if err != nil {
		return nil, fmt.Errorf("set_course_deleted: %w", err)
	}

	if err := p.SetCourseDeleted(cmd.Semester, cmd.Index, cmd.Deleted); err != nil {
		return nil, fmt.Errorf("set_course_deleted: %w", err)
	}
	if err := h.persist(ctx, p); err != nil {
		return nil, fmt.Errorf("set_course_deleted: %w", err)
	}

	h.log.Info("course delete flag set",
		logger.Registration(p.Registration),
		logger.Semester(cmd.Semester),
		logger.F("index", cmd.Index),
		logger.F("deleted", cmd.Deleted))

	return p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MOVE COURSE
// ══════════════════════════════════════════════════════════════════════════════

// MoveCourseCommand reassigns one course to a different existing semester.
type MoveCourseCommand struct {
	// Registration identifies the profile.
	Registration string

	// FromSemester is the canonical name of the source semester.
	FromSemester string

	// Index is the course position within the source semester.
	Index int

	// ToSemester is the canonical name of the destination semester. The
	// destination must already exist.
	ToSemester string
}

// Validate validates the command.
func (c MoveCourseCommand) Validate() error {
	if strings.TrimSpace(c.Registration) == "" {
		return fmt.Errorf("%w: move_course: registration is required", ErrInvalidCommand)
	}
	if strings.TrimSpace(c.FromSemester) == "" || strings.TrimSpace(c.ToSemester) == "" {
		return fmt.Errorf("%w: move_course: both source and destination semesters are required", ErrInvalidCommand)
	}
	if c.Index < 0 {
		return fmt.Errorf("%w: move_course: index cannot be negative", ErrInvalidCommand)
	}
	return nil
}

// MoveCourseHandler handles the MoveCourseCommand.
type MoveCourseHandler struct {
	profileMutator
}

// NewMoveCourseHandler creates a new MoveCourseHandler.
func NewMoveCourseHandler(repo transcript.Repository, cache transcript.Cache, log *logger.Logger) *MoveCourseHandler {
	if log == nil {
		log = logger.Default()
	}
	return &MoveCourseHandler{profileMutator{repo, cache, log.With(logger.Component("move-course"))}}
}

// Handle executes the move course command.
func (h *MoveCourseHandler) Handle(ctx context.Context, cmd MoveCourseCommand) (*transcript.Profile, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	p, err := h.load(ctx, cmd.Registration)
	if err != nil {
		return nil, fmt.Errorf("move_course: %w", err)
	}

	if err := p.MoveCourse(cmd.FromSemester, cmd.Index, cmd.ToSemester); err != nil {
		return nil, fmt.Errorf("move_course: %w", err)
	}
	if err := h.persist(ctx, p); err != nil {
		return nil, fmt.Errorf("move_course: %w", err)
	}

	h.log.Info("course moved",
		logger.Registration(p.Registration),
		logger.F("from", cmd.FromSemester),
		logger.F("to", cmd.ToSemester))

	return p, nil
}
