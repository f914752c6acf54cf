package planning

import (
	"vault-planning/internal/mirror"
	"vault-planning/internal/models"
)

// OpenDaily returns the vault-relative path of day's note, creating the note
// from the daily template and recording the day on first open. An existing
// note file is kept as is.
func (e *Engine) OpenDaily(day string) (string, error) {
	var rel string
	err := e.mutate("open_daily", []any{"day", day}, func() error {
		if err := checkDay(day); err != nil {
			return err
		}
		log, err := e.store.GetDayLog(day)
		if err != nil {
			return err
		}
		if log != nil {
			rel = log.DailyMdPath
			return nil
		}

		content, err := e.mirror.ReadDailyMD(day)
		if err != nil {
			return err
		}
		rel = mirror.DailyRelPath(day)
		if content == "" {
			if rel, err = e.mirror.UpsertDailyMD(day, mirror.DailyTemplate(day)); err != nil {
				return err
			}
		}
		_, err = e.store.UpsertDayLog(day, rel)
		return err
	})
	return rel, err
}

// OpenTaskNote returns the vault-relative path of the task's note. Tasks
// created before notes existed get a slug and a note from the template.
func (e *Engine) OpenTaskNote(id string) (string, error) {
	var rel string
	err := e.mutate("open_task_note", []any{"task_id", id}, func() error {
		task, err := e.store.GetTask(id)
		if err != nil {
			return err
		}
		taskSlug := ""
		if task.TaskDirSlug != nil && *task.TaskDirSlug != "" {
			taskSlug = *task.TaskDirSlug
		} else if taskSlug, err = e.uniqueSlug(task.Title); err != nil {
			return err
		}

		content, err := e.mirror.ReadTaskMD(taskSlug)
		if err != nil {
			return err
		}
		rel = mirror.TaskRelPath(taskSlug)
		if content == "" {
			if rel, err = e.mirror.UpsertTaskMD(task.ID, taskSlug, mirror.Project(task), mirror.TaskTemplate()); err != nil {
				return err
			}
		}

		if !equal(task.TaskDirSlug, taskSlug) || !equal(task.MdRelPath, rel) {
			if err := e.store.UpdateTaskPathInfo(task.ID, taskSlug, rel); err != nil {
				return err
			}
		}
		if !equal(task.NotePath, rel) {
			return e.store.UpdateTaskNotePath(task.ID, rel)
		}
		return nil
	})
	return rel, err
}

// GetUIState returns the stored UI state of vaultID, or of this vault when
// vaultID is empty.
func (e *Engine) GetUIState(vaultID string) (string, error) {
	if vaultID == "" {
		vaultID = e.vaultID
	}
	return e.store.GetUIState(vaultID)
}

// SetUIState merges partialJSON into the stored UI state and returns the result.
func (e *Engine) SetUIState(vaultID, partialJSON string) (string, error) {
	if vaultID == "" {
		vaultID = e.vaultID
	}
	var merged string
	err := e.mutate("set_ui_state", []any{"vault_id", vaultID}, func() error {
		var err error
		merged, err = e.store.SetUIState(vaultID, partialJSON)
		return err
	})
	if err != nil {
		return "", err
	}
	e.publish(EventUIStateChanged, "")
	return merged, nil
}

// TimersForTask lists the task's timers oldest first.
func (e *Engine) TimersForTask(id string) ([]models.Timer, error) {
	if _, err := e.store.GetTask(id); err != nil {
		return nil, err
	}
	return e.store.TimersForTask(id)
}

func equal(p *string, v string) bool {
	return p != nil && *p == v
}
