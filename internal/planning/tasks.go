package planning

import (
	"strings"
	"time"

	"vault-planning/internal/apperr"
	"vault-planning/internal/mirror"
	"vault-planning/internal/models"
)

// GetToday returns the home view for today (YYYY-MM-DD). An empty day
// means the local calendar day.
func (e *Engine) GetToday(today string) (*models.TodayData, error) {
	if today == "" {
		today = time.Now().Format(time.DateOnly)
	}
	var data *models.TodayData
	err := e.run("get_today", []any{"day", today}, func() error {
		if err := checkDay(today); err != nil {
			return err
		}
		var err error
		data, err = e.store.GetTodayData(today)
		return err
	})
	return data, err
}

// GetTask loads one task.
func (e *Engine) GetTask(id string) (*models.Task, error) {
	return e.store.GetTask(id)
}

// CreateTask validates the input, inserts the task under a fresh slug and
// writes its note. A note that cannot be written does not fail the call.
func (e *Engine) CreateTask(in models.CreateTaskInput) (*models.Task, error) {
	var created *models.Task
	err := e.mutate("create_task", []any{"title", in.Title, "status", in.Status}, func() error {
		title := strings.TrimSpace(in.Title)
		if title == "" {
			return apperr.New(apperr.InvalidInput, "title is required")
		}
		status := in.Status
		if status == "" {
			status = models.StatusTodo
		}
		due := trimmedOrNil(in.DueDate)
		if status.RequiresDueDate() && due == nil {
			return apperr.New(apperr.DueDateRequired, "due_date is required for %s tasks", status)
		}
		tags := in.Tags
		if tags == nil {
			tags = in.Labels
		}

		taskSlug, err := e.uniqueSlug(title)
		if err != nil {
			return err
		}
		task, err := e.store.CreateTask(&models.Task{
			Title:          title,
			Description:    in.Description,
			Status:         status,
			Priority:       in.Priority,
			Tags:           tags,
			Subtasks:       in.Subtasks,
			Periodicity:    in.Periodicity,
			EstimateMin:    in.EstimateMin,
			ScheduledStart: in.ScheduledStart,
			ScheduledEnd:   in.ScheduledEnd,
			DueDate:        due,
			BoardID:        trimmedOrNil(in.BoardID),
			NotePath:       in.NotePath,
			TaskDirSlug:    &taskSlug,
		})
		if err != nil {
			return err
		}
		created = task
		e.writeInitialNote(task, taskSlug, in.NotePath == nil)

		if fresh, err := e.store.GetTask(task.ID); err == nil {
			created = fresh
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(EventTaskCreated, created.ID)
	return created, nil
}

// writeInitialNote writes the note of a newly created task and back-fills
// its paths. Every failure here is logged only.
func (e *Engine) writeInitialNote(task *models.Task, taskSlug string, setNotePath bool) {
	rel, err := e.mirror.UpsertTaskMD(task.ID, taskSlug, mirror.Project(task), mirror.TaskTemplate())
	if err != nil {
		e.log.Warn("task note creation failed", "task_id", task.ID, "error_code", apperr.CodeOf(err), "error", err)
		return
	}
	if err := e.store.UpdateTaskPathInfo(task.ID, taskSlug, rel); err != nil {
		e.log.Warn("md_rel_path back-fill failed", "task_id", task.ID, "error", err)
	}
	if setNotePath {
		if err := e.store.UpdateTaskNotePath(task.ID, rel); err != nil {
			e.log.Warn("note_path back-fill failed", "task_id", task.ID, "error", err)
		}
	}
}

// UpdateTask applies a merge patch after checking that the resulting task
// still satisfies the due date rule.
func (e *Engine) UpdateTask(in models.UpdateTaskInput) (*models.Task, error) {
	var updated *models.Task
	err := e.mutate("update_task", []any{"task_id", in.ID}, func() error {
		current, err := e.store.GetTask(in.ID)
		if err != nil {
			return err
		}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return apperr.New(apperr.InvalidInput, "title cannot be empty")
			}
			in.Title = &title
		}

		next := current.Status
		if in.Status != nil {
			next = *in.Status
		}
		due := current.DueDate
		if in.DueDate.Set {
			due = trimmedOrNil(in.DueDate.Value)
		}
		if next.RequiresDueDate() && due == nil {
			return apperr.New(apperr.DueDateRequired, "due_date is required for %s tasks", next)
		}
		if in.BoardID != nil {
			board := strings.TrimSpace(*in.BoardID)
			if board == "" {
				return apperr.New(apperr.BoardIDRequired, "board_id cannot be empty")
			}
			in.BoardID = &board
		}

		before := mirror.Project(current)
		updated, err = e.store.UpdateTask(in)
		if err != nil {
			return err
		}
		e.syncFrontmatter(before, updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(EventTaskUpdated, updated.ID)
	return updated, nil
}

// MarkTaskDone moves a task that is not yet done to done, closing its timer
// if it was running.
func (e *Engine) MarkTaskDone(id string) (*models.Task, error) {
	var done *models.Task
	err := e.mutate("mark_task_done", []any{"task_id", id}, func() error {
		current, err := e.store.GetTask(id)
		if err != nil {
			return err
		}
		if current.Status == models.StatusDone {
			return apperr.New(apperr.InvalidStateTransition, "task %s is already done", id)
		}
		before := mirror.Project(current)
		done, err = e.store.MarkTaskDone(id)
		if err != nil {
			return err
		}
		e.syncFrontmatter(before, done)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(EventTaskDone, id)
	return done, nil
}

// ReopenTask moves a done task back to todo.
func (e *Engine) ReopenTask(id string) (*models.Task, error) {
	var reopened *models.Task
	err := e.mutate("reopen_task", []any{"task_id", id}, func() error {
		current, err := e.store.GetTask(id)
		if err != nil {
			return err
		}
		if current.Status != models.StatusDone {
			return apperr.New(apperr.InvalidStateTransition, "task %s is not done", id)
		}
		if !current.HasDueDate() {
			return apperr.New(apperr.DueDateRequired, "due_date is required to reopen task %s", id)
		}
		before := mirror.Project(current)
		reopened, err = e.store.ReopenTask(id)
		if err != nil {
			return err
		}
		e.syncFrontmatter(before, reopened)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(EventTaskReopened, id)
	return reopened, nil
}

// ReorderTasks applies a batch of positional moves. Every id must exist.
func (e *Engine) ReorderTasks(items []models.ReorderTaskInput) error {
	err := e.mutate("reorder_tasks", []any{"task_count", len(items)}, func() error {
		before := make(map[string]mirror.Fields, len(items))
		for _, item := range items {
			current, err := e.store.GetTask(item.ID)
			if err != nil {
				return err
			}
			before[item.ID] = mirror.Project(current)
		}
		if err := e.store.ReorderTasks(items); err != nil {
			return err
		}
		e.syncAll(before)
		return nil
	})
	if err != nil {
		return err
	}
	e.publish(EventTasksReordered, "")
	return nil
}

// DeleteTask removes the task and its timers, then its note.
func (e *Engine) DeleteTask(id string) error {
	err := e.mutate("delete_task", []any{"task_id", id}, func() error {
		current, err := e.store.GetTask(id)
		if err != nil {
			return err
		}
		if err := e.store.DeleteTask(id); err != nil {
			return err
		}
		if err := e.mirror.DeleteTaskMD(id, noteSlug(current)); err != nil {
			e.log.Warn("task note deletion failed", "task_id", id, "error_code", apperr.CodeOf(err), "error", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.publish(EventTaskDeleted, id)
	return nil
}
