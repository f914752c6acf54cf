package store

import (
	"strings"

	"gorm.io/gorm"

	"vault-planning/internal/apperr"
	"vault-planning/internal/models"
)

// GetTask loads one task.
func (s *Store) GetTask(id string) (*models.Task, error) {
	return findTask(s.db, id)
}

// ListTasks returns every task by status column, then position. Ties in
// order_index fall back to creation time and id so reads are stable.
func (s *Store) ListTasks() ([]models.Task, error) {
	var tasks []models.Task
	if err := s.db.Order("status, order_index, created_at, id").Find(&tasks).Error; err != nil {
		return nil, dbError(err, "list tasks")
	}
	for i := range tasks {
		withLabels(&tasks[i])
	}
	return tasks, nil
}

// CreateTask inserts task at the end of its status column. The id, order
// index and timestamps are assigned here; the stored row is returned.
func (s *Store) CreateTask(task *models.Task) (*models.Task, error) {
	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if task.Tags == nil && task.Labels != nil {
		task.Tags = task.Labels
	}

	var id string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		at := now()
		row := *task
		row.ID = newID()
		row.CreatedAt = at
		row.UpdatedAt = at
		row.CompletedAt = nil
		if err := moveToColumn(tx, &row, row.Status, at); err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return dbError(err, "insert task")
		}
		id = row.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTask(id)
}

// UpdateTask applies a merge patch. A status change appends the task to the
// destination column unless the patch also sets order_index.
func (s *Store) UpdateTask(patch models.UpdateTaskInput) (*models.Task, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, patch.ID)
		if err != nil {
			return err
		}
		at := now()

		if patch.Title != nil {
			task.Title = *patch.Title
		}
		if patch.Description != nil {
			task.Description = patch.Description
		}
		if patch.Status != nil && *patch.Status != task.Status {
			if err := moveToColumn(tx, task, *patch.Status, at); err != nil {
				return err
			}
		}
		if patch.Priority != nil {
			task.Priority = patch.Priority
		}
		switch {
		case patch.Tags != nil:
			task.Tags = patch.Tags
		case patch.Labels != nil:
			task.Tags = patch.Labels
		}
		if patch.Subtasks != nil {
			task.Subtasks = patch.Subtasks
		}
		if patch.Periodicity != nil {
			task.Periodicity = patch.Periodicity
		}
		if patch.OrderIndex != nil {
			task.OrderIndex = *patch.OrderIndex
		}
		if patch.EstimateMin != nil {
			task.EstimateMin = patch.EstimateMin
		}
		if patch.ScheduledStart != nil {
			task.ScheduledStart = patch.ScheduledStart
		}
		if patch.ScheduledEnd != nil {
			task.ScheduledEnd = patch.ScheduledEnd
		}
		if patch.DueDate.Set {
			task.DueDate = trimmedOrNil(patch.DueDate.Value)
		}
		if patch.BoardID != nil {
			task.BoardID = patch.BoardID
		}
		if patch.NotePath != nil {
			task.NotePath = patch.NotePath
		}
		if patch.Archived != nil {
			task.Archived = *patch.Archived
		}
		task.UpdatedAt = at

		return dbError(tx.Save(task).Error, "update task %s", task.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetTask(patch.ID)
}

// MarkTaskDone moves the task to done, stamps completed_at and closes the
// task's open timer if it was running.
func (s *Store) MarkTaskDone(id string) (*models.Task, error) {
	return s.transition(id, models.StatusDone)
}

// ReopenTask moves the task back to todo and clears completed_at.
func (s *Store) ReopenTask(id string) (*models.Task, error) {
	return s.transition(id, models.StatusTodo)
}

func (s *Store) transition(id string, status models.TaskStatus) (*models.Task, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, id)
		if err != nil {
			return err
		}
		at := now()
		if status == models.StatusDone {
			if err := closeTaskTimers(tx, id, at); err != nil {
				return err
			}
		}
		if err := moveToColumn(tx, task, status, at); err != nil {
			return err
		}
		task.UpdatedAt = at
		return dbError(tx.Save(task).Error, "set task %s to %s", id, status)
	})
	if err != nil {
		return nil, err
	}
	return s.GetTask(id)
}

// ReorderTasks applies positional moves in one transaction. Siblings are
// not renumbered. An unknown id aborts the whole batch.
func (s *Store) ReorderTasks(items []models.ReorderTaskInput) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		at := now()
		for _, item := range items {
			task, err := findTask(tx, item.ID)
			if err != nil {
				return err
			}
			if item.Status != nil && *item.Status != task.Status {
				setStatus(task, *item.Status, at)
			}
			task.OrderIndex = item.OrderIndex
			task.UpdatedAt = at
			if err := tx.Save(task).Error; err != nil {
				return dbError(err, "reorder task %s", item.ID)
			}
		}
		return nil
	})
}

// DeleteTask removes the task and all of its timers atomically.
func (s *Store) DeleteTask(id string) error {
	if _, err := s.GetTask(id); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.Timer{}).Error; err != nil {
			return dbError(err, "delete timers of task %s", id)
		}
		if err := tx.Where("id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return dbError(err, "delete task %s", id)
		}
		return nil
	})
}

// UpdateTaskPathInfo records the note slug and path of a task. Path
// bookkeeping leaves updated_at alone so the note's front-matter stays current.
func (s *Store) UpdateTaskPathInfo(id, slug, mdRelPath string) error {
	res := s.db.Model(&models.Task{}).Where("id = ?", id).Updates(map[string]any{
		"task_dir_slug": slug,
		"md_rel_path":   mdRelPath,
	})
	return rowsOrNotFound(res, id)
}

// UpdateTaskNotePath sets the task's note_path.
func (s *Store) UpdateTaskNotePath(id, notePath string) error {
	res := s.db.Model(&models.Task{}).Where("id = ?", id).Update("note_path", notePath)
	return rowsOrNotFound(res, id)
}

// SlugInUse reports whether any task already owns slug.
func (s *Store) SlugInUse(slug string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Task{}).Where("task_dir_slug = ?", slug).Count(&count).Error; err != nil {
		return false, dbError(err, "check slug %s", slug)
	}
	return count > 0, nil
}

func rowsOrNotFound(res *gorm.DB, id string) error {
	if res.Error != nil {
		return dbError(res.Error, "update task %s", id)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "task %s not found", id)
	}
	return nil
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
