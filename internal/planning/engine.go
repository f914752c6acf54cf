// Package planning orchestrates task lifecycle operations over the
// relational store and the Markdown mirror. The store is authoritative:
// preconditions are checked before any write, and once a relational write
// has committed, mirror failures are logged rather than returned.
package planning

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"vault-planning/internal/apperr"
	"vault-planning/internal/database"
	"vault-planning/internal/mirror"
	"vault-planning/internal/models"
	"vault-planning/internal/pathpolicy"
	"vault-planning/internal/slug"
	"vault-planning/internal/store"
)

// Publisher receives an event after every successful mutation.
type Publisher interface {
	Publish(channel string, event any)
}

// Event types published by the engine.
const (
	EventTaskCreated    = "task_created"
	EventTaskUpdated    = "task_updated"
	EventTaskDone       = "task_done"
	EventTaskReopened   = "task_reopened"
	EventTimerStarted   = "timer_started"
	EventTimerStopped   = "timer_stopped"
	EventTasksReordered = "tasks_reordered"
	EventTaskDeleted    = "task_deleted"
	EventUIStateChanged = "ui_state_changed"
)

// Event tells subscribers that vault state changed. Version increases with
// every event the engine emits.
type Event struct {
	Type    string `json:"type"`
	TaskID  string `json:"task_id,omitempty"`
	VaultID string `json:"vault_id"`
	Version int64  `json:"version"`
}

// Options configures an Engine.
type Options struct {
	VaultRoot string
	DB        *gorm.DB
	Logger    *slog.Logger
	Publisher Publisher
}

// Engine implements the planning operations for one vault.
type Engine struct {
	root      string
	db        *gorm.DB
	ownsDB    bool
	store     *store.Store
	mirror    *mirror.Store
	log       *slog.Logger
	publisher Publisher
	vaultID   string
	version   atomic.Int64

	// mu is held for the whole of every state-changing operation.
	mu sync.Mutex
}

// New builds an engine over an already opened database and reconciles the
// vault identity.
func New(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	md, err := mirror.New(opts.VaultRoot)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		root:      opts.VaultRoot,
		db:        opts.DB,
		store:     store.New(opts.DB, opts.VaultRoot),
		mirror:    md,
		log:       logger.With("component", "planning"),
		publisher: opts.Publisher,
	}
	e.vaultID, err = e.store.EnsureVaultID()
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Open opens (or creates) .planning/planning.db under opts.VaultRoot and
// builds an engine that closes the database on Close.
func Open(opts Options, dbOpts database.Options) (*Engine, error) {
	if err := pathpolicy.EnsureOrCreateDirInVault(opts.VaultRoot, mirror.PlanningDir); err != nil {
		return nil, err
	}
	if _, err := pathpolicy.ResolveWritePath(opts.VaultRoot, filepath.ToSlash(database.RelPath)); err != nil {
		return nil, err
	}
	db, err := database.Open(filepath.Join(opts.VaultRoot, database.RelPath), dbOpts)
	if err != nil {
		return nil, apperr.Wrap(apperr.DatabaseError, err, "open planning database")
	}
	opts.DB = db
	e, err := New(opts)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	e.ownsDB = true
	return e, nil
}

// VaultID is the reconciled identity of the vault.
func (e *Engine) VaultID() string {
	return e.vaultID
}

// Root is the vault directory.
func (e *Engine) Root() string {
	return e.root
}

// SetPublisher replaces the event sink.
func (e *Engine) SetPublisher(p Publisher) {
	e.publisher = p
}

// Checkpoint truncates the write-ahead log.
func (e *Engine) Checkpoint() error {
	return e.mutate("checkpoint", nil, e.store.Checkpoint)
}

// Close checkpoints and closes the database if the engine opened it.
func (e *Engine) Close() error {
	if !e.ownsDB {
		return nil
	}
	if err := e.store.Checkpoint(); err != nil {
		e.log.Warn("checkpoint on close failed", "error", err)
	}
	return database.Close(e.db)
}

// run logs the outcome and duration of one operation.
func (e *Engine) run(op string, attrs []any, fn func() error) error {
	start := time.Now()
	err := fn()
	attrs = append(attrs, "elapsed_ms", time.Since(start).Milliseconds())
	if err != nil {
		attrs = append(attrs, "error_code", apperr.CodeOf(err), "error", err)
		e.log.Error("planning."+op+" failed", attrs...)
		return err
	}
	e.log.Info("planning."+op+" succeeded", attrs...)
	return nil
}

// mutate runs fn like run with the engine lock held, so the precondition checks of an
// operation and the writes they guard see the same state.
func (e *Engine) mutate(op string, attrs []any, fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.run(op, attrs, fn)
}

func (e *Engine) publish(eventType, taskID string) {
	if e.publisher == nil {
		return
	}
	e.publisher.Publish(e.vaultID, Event{
		Type:    eventType,
		TaskID:  taskID,
		VaultID: e.vaultID,
		Version: e.version.Add(1),
	})
}

// noteSlug is the slug a task's note lives under.
func noteSlug(t *models.Task) string {
	if t.TaskDirSlug != nil && *t.TaskDirSlug != "" {
		return *t.TaskDirSlug
	}
	return t.ID
}

// syncFrontmatter patches the note with whatever whitelisted fields changed
// between before and task. Failures leave the mirror stale and are logged.
func (e *Engine) syncFrontmatter(before mirror.Fields, task *models.Task) {
	delta := mirror.Diff(before, mirror.Project(task))
	if len(delta) == 0 {
		return
	}
	if err := e.mirror.UpdateTaskFrontmatter(task.ID, noteSlug(task), delta); err != nil {
		e.log.Warn("mirror sync failed", "task_id", task.ID, "error_code", apperr.CodeOf(err), "error", err)
	}
}

// uniqueSlug derives a slug from title that neither a note file nor another
// task already uses, appending _1, _2, ... as needed. Callers hold e.mu until
// the slug is stored.
func (e *Engine) uniqueSlug(title string) (string, error) {
	base := slug.Generate(title)
	candidate := base
	for n := 1; ; n++ {
		onDisk, err := e.mirror.SlugTaken(candidate)
		if err != nil {
			return "", err
		}
		inStore, err := e.store.SlugInUse(candidate)
		if err != nil {
			return "", err
		}
		if !onDisk && !inStore {
			return candidate, nil
		}
		candidate = slug.WithSuffix(base, n)
	}
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func checkDay(day string) error {
	if _, err := time.Parse(time.DateOnly, day); err != nil {
		return apperr.New(apperr.InvalidInput, "invalid day %q, expected YYYY-MM-DD", day)
	}
	return nil
}
