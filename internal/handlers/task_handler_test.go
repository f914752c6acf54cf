package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"vault-planning/internal/apperr"
	"vault-planning/internal/auth"
	"vault-planning/internal/config"
	"vault-planning/internal/middleware"
	"vault-planning/internal/models"
	"vault-planning/internal/planning"
	"vault-planning/internal/realtime"
	"vault-planning/internal/testutil"
)

type testServer struct {
	root    string
	engine  *planning.Engine
	issuer  *auth.Issuer
	hub     *realtime.Hub
	handler *Handler
	router  *gin.Engine
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	root, db := testutil.NewVault(t)
	hub := realtime.NewHub(nil)
	engine, err := planning.New(planning.Options{VaultRoot: root, DB: db, Publisher: hub})
	require.NoError(t, err)
	issuer := auth.NewIssuer(config.DefaultConfig().Auth, engine.VaultID())
	h := New(engine, issuer, hub, nil)

	r := gin.New()
	r.POST("/api/session", h.CreateSession)
	api := r.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(issuer))
	api.GET("/today", h.GetToday)
	api.POST("/tasks", h.CreateTask)
	api.POST("/tasks/reorder", h.ReorderTasks)
	api.GET("/tasks/:id", h.GetTask)
	api.PATCH("/tasks/:id", h.UpdateTask)
	api.DELETE("/tasks/:id", h.DeleteTask)
	api.POST("/tasks/:id/done", h.MarkTaskDone)
	api.POST("/tasks/:id/reopen", h.ReopenTask)
	api.POST("/tasks/:id/start", h.StartTask)
	api.POST("/tasks/:id/stop", h.StopTask)
	api.POST("/tasks/:id/note", h.OpenTaskNote)
	api.GET("/tasks/:id/timers", h.ListTimers)
	api.POST("/daily/:day", h.OpenDaily)
	api.GET("/ui-state", h.GetUIState)
	api.PUT("/ui-state", h.PutUIState)
	api.GET("/ws", h.WebSocket)

	token, _, err := issuer.GenerateToken()
	require.NoError(t, err)
	return &testServer{root: root, engine: engine, issuer: issuer, hub: hub, handler: h, router: r, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	switch p := payload.(type) {
	case nil:
	case string:
		body = []byte(p)
	default:
		var err error
		body, err = json.Marshal(p)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, code apperr.Code) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	require.Equal(t, string(code), decode[errorBody](t, w).Code)
}

func (s *testServer) createTask(t *testing.T, title string) models.Task {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": title, "status": "todo", "due_date": "2024-01-01"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Task](t, w)
}

func TestStatusFor(t *testing.T) {
	cases := map[apperr.Code]int{
		apperr.NotFound:               http.StatusNotFound,
		apperr.InvalidStateTransition: http.StatusConflict,
		apperr.DueDateRequired:        http.StatusBadRequest,
		apperr.BoardIDRequired:        http.StatusBadRequest,
		apperr.InvalidInput:           http.StatusBadRequest,
		apperr.PathOutsideVault:       http.StatusForbidden,
		apperr.SymlinkNotAllowed:      http.StatusForbidden,
		apperr.DatabaseError:          http.StatusInternalServerError,
		apperr.FileReadError:          http.StatusInternalServerError,
		apperr.FileWriteError:         http.StatusInternalServerError,
	}
	for code, want := range cases {
		require.Equal(t, want, statusFor(code), code)
	}
}

func TestCreateTask_Success(t *testing.T) {
	srv := newTestServer(t)

	created := srv.createTask(t, "Buy milk")
	require.Equal(t, "Buy milk", created.Title)
	require.Equal(t, models.StatusTodo, created.Status)
	require.Equal(t, "Buy_milk", *created.TaskDirSlug)
	_, err := os.Stat(filepath.Join(srv.root, ".planning", "tasks", "Buy_milk.md"))
	require.NoError(t, err)

	w := srv.do(t, http.MethodGet, "/api/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, created.ID, decode[models.Task](t, w).ID)
}

func TestCreateTask_ValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "No date", "status": "doing"})
	requireError(t, w, http.StatusBadRequest, apperr.DueDateRequired)

	w = srv.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "Bad", "status": "someday"})
	requireError(t, w, http.StatusBadRequest, apperr.InvalidInput)

	w = srv.do(t, http.MethodPost, "/api/tasks", "{not json")
	requireError(t, w, http.StatusBadRequest, apperr.InvalidInput)
}

func TestGetTask_NotFound(t *testing.T) {
	srv := newTestServer(t)
	w := srv.do(t, http.MethodGet, "/api/tasks/missing", nil)
	requireError(t, w, http.StatusNotFound, apperr.NotFound)
}

func TestUpdateTask_PatchSemantics(t *testing.T) {
	srv := newTestServer(t)
	task := srv.createTask(t, "Buy milk")

	w := srv.do(t, http.MethodPatch, "/api/tasks/"+task.ID, `{"status":"doing","due_date":null}`)
	requireError(t, w, http.StatusBadRequest, apperr.DueDateRequired)

	w = srv.do(t, http.MethodPatch, "/api/tasks/"+task.ID, `{"board_id":"  "}`)
	requireError(t, w, http.StatusBadRequest, apperr.BoardIDRequired)

	w = srv.do(t, http.MethodPatch, "/api/tasks/"+task.ID, `{"title":"Buy oat milk"}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.Task](t, w)
	require.Equal(t, "Buy oat milk", updated.Title)
	require.Equal(t, "2024-01-01", *updated.DueDate)
}

func TestLifecycleEndpoints(t *testing.T) {
	srv := newTestServer(t)
	task := srv.createTask(t, "Write report")

	w := srv.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/start", nil)
	require.Equal(t, http.StatusOK, w.Code)
	started := decode[struct{ Timer models.Timer }](t, w)
	require.Equal(t, task.ID, started.Timer.TaskID)

	w = srv.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/start", nil)
	requireError(t, w, http.StatusConflict, apperr.InvalidStateTransition)

	w = srv.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/stop", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/api/tasks/"+task.ID+"/timers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, decode[struct{ Count int }](t, w).Count)

	w = srv.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/done", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.StatusDone, decode[models.Task](t, w).Status)

	w = srv.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/done", nil)
	requireError(t, w, http.StatusConflict, apperr.InvalidStateTransition)

	w = srv.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/reopen", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.StatusTodo, decode[models.Task](t, w).Status)
}

func TestReorderTasks(t *testing.T) {
	srv := newTestServer(t)
	a := srv.createTask(t, "A")
	b := srv.createTask(t, "B")

	w := srv.do(t, http.MethodPost, "/api/tasks/reorder", []map[string]any{
		{"id": a.ID, "order_index": 1},
		{"id": b.ID, "order_index": 0},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = srv.do(t, http.MethodGet, "/api/today?day=2024-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	today := decode[models.TodayData](t, w)
	require.Len(t, today.Kanban.Todo, 2)
	require.Equal(t, b.ID, today.Kanban.Todo[0].ID)

	w = srv.do(t, http.MethodPost, "/api/tasks/reorder", []map[string]any{{"id": "missing", "order_index": 0}})
	requireError(t, w, http.StatusNotFound, apperr.NotFound)
}

func TestDeleteTask(t *testing.T) {
	srv := newTestServer(t)
	task := srv.createTask(t, "Buy milk")

	w := srv.do(t, http.MethodDelete, "/api/tasks/"+task.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = srv.do(t, http.MethodDelete, "/api/tasks/"+task.ID, nil)
	requireError(t, w, http.StatusNotFound, apperr.NotFound)
}

func TestNotesEndpoints(t *testing.T) {
	srv := newTestServer(t)
	task := srv.createTask(t, "Buy milk")

	w := srv.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/note", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, ".planning/tasks/Buy_milk.md", decode[struct{ Path string }](t, w).Path)

	w = srv.do(t, http.MethodPost, "/api/daily/2024-03-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, ".planning/daily/2024-03-01.md", decode[struct{ Path string }](t, w).Path)

	w = srv.do(t, http.MethodPost, "/api/daily/yesterday", nil)
	requireError(t, w, http.StatusBadRequest, apperr.InvalidInput)
}

func TestUIStateEndpoints(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/ui-state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"vault_id":"`+srv.engine.VaultID()+`","state":null}`, w.Body.String())

	w = srv.do(t, http.MethodPut, "/api/ui-state", `{"panels":{"left":true}}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = srv.do(t, http.MethodPut, "/api/ui-state", `{"panels":{"right":false}}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/api/ui-state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[UIStateResponse](t, w)
	require.JSONEq(t, `{"panels":{"left":true,"right":false}}`, string(resp.State))

	w = srv.do(t, http.MethodPut, "/api/ui-state", `[1,2`)
	requireError(t, w, http.StatusBadRequest, apperr.InvalidInput)
}
