package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
	"github.com/m-saqi/aistudio-uafcgpa/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEMESTER COMMANDS
// Forecast creation, whole-semester removal, and undo.
// ══════════════════════════════════════════════════════════════════════════════

// undoGraceWindow is how long a removed semester stays restorable.
const undoGraceWindow = 5 * time.Minute

// ErrNothingToRestore is returned when the undo window has passed or nothing
// was removed.
var ErrNothingToRestore = errors.New("nothing to restore")

// UndoStore holds removed semester buckets for the grace window. Entries
// are keyed by registration and semester name; a second removal of the same
// bucket overwrites the first.
type UndoStore struct {
	mu      sync.Mutex
	entries map[string]undoEntry
}

type undoEntry struct {
	semester  *transcript.Semester
	expiresAt time.Time
}

// NewUndoStore creates an empty UndoStore.
func NewUndoStore() *UndoStore {
	return &UndoStore{entries: make(map[string]undoEntry)}
}

func undoKey(registration, semesterName string) string {
	return registration + "|" + semesterName
}

// Put stores a removed bucket until the grace window passes.
func (s *UndoStore) Put(registration string, sem *transcript.Semester) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[undoKey(registration, sem.Name)] = undoEntry{
		semester:  sem,
		expiresAt: time.Now().Add(undoGraceWindow),
	}
	s.evictExpired()
}

// Take removes and returns a stored bucket, or nil when none is held or the
// window has passed.
func (s *UndoStore) Take(registration, semesterName string) *transcript.Semester {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := undoKey(registration, semesterName)
	entry, ok := s.entries[key]
	if !ok {
		return nil
	}
	delete(s.entries, key)

	if time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.semester
}

// evictExpired drops stale entries. Called under lock.
func (s *UndoStore) evictExpired() {
	now := time.Now()
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ADD FORECAST
// ══════════════════════════════════════════════════════════════════════════════

// AddForecastCommand creates the next free forecast bucket for planning
// hypothetical future semesters.
type AddForecastCommand struct {
	// Registration identifies the profile.
	Registration string

	// SecondaryTrack creates the bucket for the secondary track view.
	SecondaryTrack bool
}

// Validate validates the command.
func (c AddForecastCommand) Validate() error {
	if strings.TrimSpace(c.Registration) == "" {
		return fmt.Errorf("%w: add_forecast: registration is required", ErrInvalidCommand)
	}
	return nil
}

// AddForecastResult contains the result of forecast creation.
type AddForecastResult struct {
	// SemesterName is the canonical name of the new bucket.
	SemesterName string

	// Profile is the updated profile.
	Profile *transcript.Profile
}

// AddForecastHandler handles the AddForecastCommand.
type AddForecastHandler struct {
	profileMutator
}

// NewAddForecastHandler creates a new AddForecastHandler.
func NewAddForecastHandler(repo transcript.Repository, cache transcript.Cache, log *logger.Logger) *AddForecastHandler {
	if log == nil {
		log = logger.Default()
	}
	return &AddForecastHandler{profileMutator{repo, cache, log.With(logger.Component("add-forecast"))}}
}

// Handle executes the add forecast command.
func (h *AddForecastHandler) Handle(ctx context.Context, cmd AddForecastCommand) (*AddForecastResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	p, err := h.load(ctx, cmd.Registration)
	if err != nil {
		return nil, fmt.Errorf("add_forecast: %w", err)
	}

	sem := p.AddForecast(cmd.SecondaryTrack)

	if err := h.persist(ctx, p); err != nil {
		return nil, fmt.Errorf("add_forecast: %w", err)
	}

	h.log.Info("forecast semester added",
		logger.Registration(p.Registration),
		logger.Semester(sem.Name),
		logger.F("secondary_track", cmd.SecondaryTrack))

	return &AddForecastResult{SemesterName: sem.Name, Profile: p}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REMOVE SEMESTER
// ══════════════════════════════════════════════════════════════════════════════

// RemoveSemesterCommand detaches a whole semester bucket. The bucket is held
// in the undo store for the grace window.
type RemoveSemesterCommand struct {
	// Registration identifies the profile.
	Registration string

	// Semester is the canonical name of the bucket to remove.
	Semester string
}

// Validate validates the command.
func (c RemoveSemesterCommand) Validate() error {
	if strings.TrimSpace(c.Registration) == "" {
		return fmt.Errorf("%w: remove_semester: registration is required", ErrInvalidCommand)
	}
	if strings.TrimSpace(c.Semester) == "" {
		return fmt.Errorf("%w: remove_semester: semester is required", ErrInvalidCommand)
	}
	return nil
}

// RemoveSemesterHandler handles the RemoveSemesterCommand.
type RemoveSemesterHandler struct {
	profileMutator
	undo *UndoStore
}

// NewRemoveSemesterHandler creates a new RemoveSemesterHandler.
func NewRemoveSemesterHandler(repo transcript.Repository, cache transcript.Cache, undo *UndoStore, log *logger.Logger) *RemoveSemesterHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RemoveSemesterHandler{
		profileMutator: profileMutator{repo, cache, log.With(logger.Component("remove-semester"))},
		undo:           undo,
	}
}

// Handle executes the remove semester command.
func (h *RemoveSemesterHandler) Handle(ctx context.Context, cmd RemoveSemesterCommand) (*transcript.Profile, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	p, err := h.load(ctx, cmd.Registration)
	if err != nil {
		return nil, fmt.Errorf("remove_semester: %w", err)
	}

	sem, err := p.RemoveSemester(cmd.Semester)
	if err != nil {
		return nil, fmt.Errorf("remove_semester: %w", err)
	}
	if err := h.persist(ctx, p); err != nil {
		return nil, fmt.Errorf("remove_semester: %w", err)
	}

	h.undo.Put(p.Registration, sem)

	h.log.Info("semester removed",
		logger.Registration(p.Registration),
		logger.Semester(cmd.Semester),
		logger.CourseCount(len(sem.Courses)))

	return p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RESTORE SEMESTER
// ══════════════════════════════════════════════════════════════════════════════

// RestoreSemesterCommand reinserts a semester removed within the grace
// window.
type RestoreSemesterCommand struct {
	// Registration identifies the profile.
	Registration string

	// Semester is the canonical name of the bucket to restore.
	Semester string
}

// Validate validates the command.
func (c RestoreSemesterCommand) Validate() error {
	if strings.TrimSpace(c.Registration) == "" {
		return fmt.Errorf("%w: restore_semester: registration is required", ErrInvalidCommand)
	}
	if strings.TrimSpace(c.Semester) == "" {
		return fmt.Errorf("%w: restore_semester: semester is required", ErrInvalidCommand)
	}
	return nil
}

// RestoreSemesterHandler handles the RestoreSemesterCommand.
type RestoreSemesterHandler struct {
	profileMutator
	undo *UndoStore
}

// NewRestoreSemesterHandler creates a new RestoreSemesterHandler.
func NewRestoreSemesterHandler(repo transcript.Repository, cache transcript.Cache, undo *UndoStore, log *logger.Logger) *RestoreSemesterHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RestoreSemesterHandler{
		profileMutator: profileMutator{repo, cache, log.With(logger.Component("restore-semester"))},
		undo:           undo,
	}
}

// Handle executes the restore semester command.
func (h *RestoreSemesterHandler) Handle(ctx context.Context, cmd RestoreSemesterCommand) (*transcript.Profile, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	sem := h.undo.Take(strings.TrimSpace(cmd.Registration), cmd.Semester)
	if sem == nil {
		return nil, fmt.Errorf("restore_semester: %w: %s", ErrNothingToRestore, cmd.Semester)
	}

	p, err := h.load(ctx, cmd.Registration)
	if err != nil {
		return nil, fmt.Errorf("restore_semester: %w", err)
	}

	if err := p.RestoreSemester(sem); err != nil {
		return nil, fmt.Errorf("restore_semester: %w", err)
	}
	if err := h.persist(ctx, p); err != nil {
		return nil, fmt.Errorf("restore_semester: %w", err)
	}

	h.log.Info("semester restored",
		logger.Registration(p.Registration),
		logger.Semester(cmd.Semester))

	return p, nil
}
