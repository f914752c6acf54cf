package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vault-planning/internal/models"
)

// GetToday handles GET /api/today?day=YYYY-MM-DD
// The day defaults to the server's local date.
func (h *Handler) GetToday(c *gin.Context) {
	data, err := h.engine.GetToday(c.Query("day"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// GetTask handles GET /api/tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	task, err := h.engine.GetTask(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateTask handles POST /api/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req models.CreateTaskInput
	if !h.bindJSON(c, &req) {
		return
	}
	task, err := h.engine.CreateTask(req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// UpdateTask handles PATCH /api/tasks/:id
// Absent fields are left unchanged; "due_date": null clears the due date.
func (h *Handler) UpdateTask(c *gin.Context) {
	var req models.UpdateTaskInput
	if !h.bindJSON(c, &req) {
		return
	}
	req.ID = c.Param("id")
	task, err := h.engine.UpdateTask(req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// MarkTaskDone handles POST /api/tasks/:id/done
func (h *Handler) MarkTaskDone(c *gin.Context) {
	h.respondTask(c, h.engine.MarkTaskDone)
}

// ReopenTask handles POST /api/tasks/:id/reopen
func (h *Handler) ReopenTask(c *gin.Context) {
	h.respondTask(c, h.engine.ReopenTask)
}

func (h *Handler) respondTask(c *gin.Context, op func(string) (*models.Task, error)) {
	task, err := op(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// StartTask handles POST /api/tasks/:id/start
func (h *Handler) StartTask(c *gin.Context) {
	timer, err := h.engine.StartTask(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": timer})
}

// StopTask handles POST /api/tasks/:id/stop
// The timer is null when the task had no running timer.
func (h *Handler) StopTask(c *gin.Context) {
	timer, err := h.engine.StopTask(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": timer})
}

// ListTimers handles GET /api/tasks/:id/timers
func (h *Handler) ListTimers(c *gin.Context) {
	timers, err := h.engine.TimersForTask(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timers": timers, "count": len(timers)})
}

// OpenTaskNote handles POST /api/tasks/:id/note
func (h *Handler) OpenTaskNote(c *gin.Context) {
	path, err := h.engine.OpenTaskNote(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path})
}

// OpenDaily handles POST /api/daily/:day
func (h *Handler) OpenDaily(c *gin.Context) {
	path, err := h.engine.OpenDaily(c.Param("day"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path})
}

// ReorderTasks handles POST /api/tasks/reorder
// The body is an array of {id, status?, order_index}, applied atomically.
func (h *Handler) ReorderTasks(c *gin.Context) {
	var items []models.ReorderTaskInput
	if !h.bindJSON(c, &items) {
		return
	}
	if err := h.engine.ReorderTasks(items); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items)})
}

// DeleteTask handles DELETE /api/tasks/:id
func (h *Handler) DeleteTask(c *gin.Context) {
	if err := h.engine.DeleteTask(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
