package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"vault-planning/internal/models"
)

// TimerSourceManual marks timers opened through StartTask.
const TimerSourceManual = "manual"

// StartTask closes every open timer, moves tasks that were doing back to
// todo, then opens a timer for id and moves it to doing. At most one timer
// is open when it returns.
func (s *Store) StartTask(id string) (*models.Timer, error) {
	var timer models.Timer
	err := s.db.Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, id)
		if err != nil {
			return err
		}
		at := now()
		if err := stopAllActiveTimers(tx, at); err != nil {
			return err
		}

		timer = models.Timer{
			ID:      newID(),
			TaskID:  id,
			StartAt: at,
			Source:  TimerSourceManual,
		}
		if err := tx.Create(&timer).Error; err != nil {
			return dbError(err, "open timer for task %s", id)
		}

		// reload: the bulk stop may have moved this task
		if err := tx.Where("id = ?", id).First(task).Error; err != nil {
			return dbError(err, "reload task %s", id)
		}
		if task.Status != models.StatusDoing {
			if err := moveToColumn(tx, task, models.StatusDoing, at); err != nil {
				return err
			}
		}
		task.UpdatedAt = at
		return dbError(tx.Save(task).Error, "start task %s", id)
	})
	if err != nil {
		return nil, err
	}
	return &timer, nil
}

// StopTask closes the task's own open timer, freezing its duration, and
// moves the task to todo. The closed timer is returned, or nil if the task
// had none open.
func (s *Store) StopTask(id string) (*models.Timer, error) {
	var closed *models.Timer
	err := s.db.Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, id)
		if err != nil {
			return err
		}
		at := now()

		var timer models.Timer
		err = tx.Where("task_id = ? AND stop_at IS NULL", id).Order("start_at").First(&timer).Error
		switch {
		case err == nil:
			if err := closeTimer(tx, &timer, at); err != nil {
				return err
			}
			closed = &timer
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return dbError(err, "find open timer of task %s", id)
		}

		if task.Status != models.StatusTodo {
			if err := moveToColumn(tx, task, models.StatusTodo, at); err != nil {
				return err
			}
		}
		task.UpdatedAt = at
		return dbError(tx.Save(task).Error, "stop task %s", id)
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

// ActiveTimer returns the open timer, or nil when nothing is running.
func (s *Store) ActiveTimer() (*models.Timer, error) {
	var timer models.Timer
	err := s.db.Where("stop_at IS NULL").Order("start_at DESC").First(&timer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err, "find active timer")
	}
	return &timer, nil
}

// TimersForTask lists a task's timers oldest first.
func (s *Store) TimersForTask(id string) ([]models.Timer, error) {
	var timers []models.Timer
	if err := s.db.Where("task_id = ?", id).Order("start_at, id").Find(&timers).Error; err != nil {
		return nil, dbError(err, "list timers of task %s", id)
	}
	return timers, nil
}

func stopAllActiveTimers(tx *gorm.DB, at time.Time) error {
	var open []models.Timer
	if err := tx.Where("stop_at IS NULL").Find(&open).Error; err != nil {
		return dbError(err, "find open timers")
	}
	for i := range open {
		if err := closeTimer(tx, &open[i], at); err != nil {
			return err
		}
	}

	var doing []models.Task
	if err := tx.Where("status = ?", models.StatusDoing).Order("order_index, created_at, id").Find(&doing).Error; err != nil {
		return dbError(err, "find doing tasks")
	}
	if len(doing) == 0 {
		return nil
	}
	next, err := nextOrderIndex(tx, models.StatusTodo)
	if err != nil {
		return err
	}
	for i := range doing {
		setStatus(&doing[i], models.StatusTodo, at)
		doing[i].OrderIndex = next
		doing[i].UpdatedAt = at
		next++
		if err := tx.Save(&doing[i]).Error; err != nil {
			return dbError(err, "move task %s to todo", doing[i].ID)
		}
	}
	return nil
}

func closeTaskTimers(tx *gorm.DB, taskID string, at time.Time) error {
	var open []models.Timer
	if err := tx.Where("task_id = ? AND stop_at IS NULL", taskID).Find(&open).Error; err != nil {
		return dbError(err, "find open timers of task %s", taskID)
	}
	for i := range open {
		if err := closeTimer(tx, &open[i], at); err != nil {
			return err
		}
	}
	return nil
}

// closeTimer stops timer at and freezes its duration in whole seconds.
func closeTimer(tx *gorm.DB, timer *models.Timer, at time.Time) error {
	elapsed := int64(at.Sub(timer.StartAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	timer.StopAt = &at
	timer.DurationSec = elapsed
	if err := tx.Save(timer).Error; err != nil {
		return dbError(err, "close timer %s", timer.ID)
	}
	return nil
}
