package store

import (
	"time"

	"vault-planning/internal/models"
	"vault-planning/internal/recurrence"
)

// GetTodayData assembles the kanban columns, the timeline for today
// (YYYY-MM-DD), the running task and timer, and the server clock.
func (s *Store) GetTodayData(today string) (*models.TodayData, error) {
	tasks, err := s.ListTasks()
	if err != nil {
		return nil, err
	}

	data := &models.TodayData{
		Kanban: models.KanbanTasks{
			Todo:   []models.Task{},
			Doing:  []models.Task{},
			Verify: []models.Task{},
			Done:   []models.Task{},
		},
		Timeline:  []models.Task{},
		Today:     today,
		ServerNow: now().Format(time.RFC3339),
	}
	for _, task := range tasks {
		switch task.Status {
		case models.StatusDoing:
			data.Kanban.Doing = append(data.Kanban.Doing, task)
		case models.StatusVerify:
			data.Kanban.Verify = append(data.Kanban.Verify, task)
		case models.StatusDone:
			data.Kanban.Done = append(data.Kanban.Done, task)
		default:
			data.Kanban.Todo = append(data.Kanban.Todo, task)
		}
		if occurrence, ok := recurrence.Expand(task, today); ok {
			data.Timeline = append(data.Timeline, occurrence)
		}
	}

	timer, err := s.ActiveTimer()
	if err != nil {
		return nil, err
	}
	if timer != nil {
		task, err := s.GetTask(timer.TaskID)
		if err != nil {
			return nil, err
		}
		data.CurrentDoing = task
		data.CurrentTimer = timer
	}
	return data, nil
}
