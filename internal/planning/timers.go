package planning

import (
	"vault-planning/internal/apperr"
	"vault-planning/internal/mirror"
	"vault-planning/internal/models"
)

// StartTask opens a timer on the task and makes it the one doing task.
// Any other running timer is closed first.
func (e *Engine) StartTask(id string) (*models.Timer, error) {
	var timer *models.Timer
	err := e.mutate("start_task", []any{"task_id", id}, func() error {
		current, err := e.store.GetTask(id)
		if err != nil {
			return err
		}
		switch current.Status {
		case models.StatusDoing:
			return apperr.New(apperr.InvalidStateTransition, "task %s is already running", id)
		case models.StatusDone:
			return apperr.New(apperr.InvalidStateTransition, "task %s is done", id)
		}
		if !current.HasDueDate() {
			return apperr.New(apperr.DueDateRequired, "due_date is required to start task %s", id)
		}

		// tasks the store will move out of doing
		before := map[string]mirror.Fields{current.ID: mirror.Project(current)}
		doing, err := e.tasksIn(models.StatusDoing)
		if err != nil {
			return err
		}
		for i := range doing {
			before[doing[i].ID] = mirror.Project(&doing[i])
		}

		timer, err = e.store.StartTask(id)
		if err != nil {
			return err
		}
		e.syncAll(before)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(EventTimerStarted, id)
	return timer, nil
}

// StopTask closes the task's running timer and moves it back to todo. The
// closed timer is returned, or nil if none was open.
func (e *Engine) StopTask(id string) (*models.Timer, error) {
	var timer *models.Timer
	err := e.mutate("stop_task", []any{"task_id", id}, func() error {
		current, err := e.store.GetTask(id)
		if err != nil {
			return err
		}
		if current.Status != models.StatusDoing {
			return apperr.New(apperr.InvalidStateTransition, "task %s is not running", id)
		}
		if !current.HasDueDate() {
			return apperr.New(apperr.DueDateRequired, "due_date is required to stop task %s", id)
		}
		before := mirror.Project(current)
		timer, err = e.store.StopTask(id)
		if err != nil {
			return err
		}
		e.syncAll(map[string]mirror.Fields{id: before})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(EventTimerStopped, id)
	return timer, nil
}

func (e *Engine) tasksIn(status models.TaskStatus) ([]models.Task, error) {
	all, err := e.store.ListTasks()
	if err != nil {
		return nil, err
	}
	var out []models.Task
	for _, t := range all {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

// syncAll reloads each task and patches its note against its old projection.
func (e *Engine) syncAll(before map[string]mirror.Fields) {
	for id, fields := range before {
		task, err := e.store.GetTask(id)
		if err != nil {
			e.log.Warn("mirror sync skipped", "task_id", id, "error", err)
			continue
		}
		e.syncFrontmatter(fields, task)
	}
}
