// Package store is the relational record of tasks, timers, day logs, UI
// state and vault identity. It is the source of truth for status, ordering
// and timing; it never touches note files.
package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vault-planning/internal/apperr"
	"vault-planning/internal/models"
)

// now is a small indirection to allow test stubbing.
var now = func() time.Time { return time.Now().UTC() }

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Store runs planning queries against one gorm connection.
type Store struct {
	db   *gorm.DB
	root string
}

// New returns a store over db for the vault at root.
func New(db *gorm.DB, root string) *Store {
	return &Store{db: db, root: root}
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// dbError tags untyped gorm failures as DatabaseError and passes typed errors through.
func dbError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var typed *apperr.Error
	if errors.As(err, &typed) {
		return err
	}
	return apperr.Wrap(apperr.DatabaseError, err, format, args...)
}

func findTask(tx *gorm.DB, id string) (*models.Task, error) {
	var task models.Task
	if err := tx.Where("id = ?", id).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "task %s not found", id)
		}
		return nil, dbError(err, "load task %s", id)
	}
	withLabels(&task)
	return &task, nil
}

// withLabels mirrors tags into the legacy labels field.
func withLabels(t *models.Task) {
	if t.Tags == nil {
		t.Labels = nil
		return
	}
	t.Labels = append([]string(nil), t.Tags...)
}

// nextOrderIndex is one past the highest order_index in status, or 0.
func nextOrderIndex(tx *gorm.DB, status models.TaskStatus) (int64, error) {
	var highest int64
	err := tx.Model(&models.Task{}).
		Select("COALESCE(MAX(order_index), -1)").
		Where("status = ?", status).
		Scan(&highest).Error
	if err != nil {
		return 0, dbError(err, "read max order_index for %s", status)
	}
	return highest + 1, nil
}

// setStatus moves t to status and keeps completed_at set exactly when done.
func setStatus(t *models.Task, status models.TaskStatus, at time.Time) {
	t.Status = status
	if status == models.StatusDone {
		if t.CompletedAt == nil {
			t.CompletedAt = &at
		}
		return
	}
	t.CompletedAt = nil
}

// moveToColumn sets status and appends t to the end of the destination column.
func moveToColumn(tx *gorm.DB, t *models.Task, status models.TaskStatus, at time.Time) error {
	next, err := nextOrderIndex(tx, status)
	if err != nil {
		return err
	}
	setStatus(t, status, at)
	t.OrderIndex = next
	return nil
}
