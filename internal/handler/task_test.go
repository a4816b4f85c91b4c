package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/tasknest-go/internal/middleware"
	"github.com/tasknest/tasknest-go/internal/model"
	"github.com/tasknest/tasknest-go/internal/service"
)

type stubTaskService struct {
	lastUser  int64
	lastID    string
	lastQuery model.TaskQuery
	err       error
}

func (s *stubTaskService) CreateTask(_ context.Context, userID int64, req model.CreateTaskRequest) (model.Task, error) {
	s.lastUser = userID
	if s.err != nil {
		return model.Task{}, s.err
	}
	return model.Task{ID: "t-1", UserID: userID, Title: req.Title, Status: model.StatusTodo}, nil
}

func (s *stubTaskService) ListTasks(_ context.Context, userID int64, q model.TaskQuery) ([]model.Task, error) {
	s.lastUser, s.lastQuery = userID, q
	if s.err != nil {
		return nil, s.err
	}
	return []model.Task{}, nil
}

func (s *stubTaskService) UpdateTask(_ context.Context, userID int64, id string, req model.UpdateTaskRequest) (model.Task, error) {
	s.lastUser, s.lastID = userID, id
	if s.err != nil {
		return model.Task{}, s.err
	}
	task := model.Task{ID: id, UserID: userID, Status: model.StatusTodo}
	if req.Title != nil {
		task.Title = *req.Title
	}
	return task, nil
}

func (s *stubTaskService) ToggleTask(_ context.Context, userID int64, id string) (model.Task, error) {
	s.lastUser, s.lastID = userID, id
	if s.err != nil {
		return model.Task{}, s.err
	}
	return model.Task{ID: id, UserID: userID, Status: model.StatusDone}, nil
}

func (s *stubTaskService) DeleteTask(_ context.Context, userID int64, id string) error {
	s.lastUser, s.lastID = userID, id
	return s.err
}

// taskRouter mounts the task routes behind a fake authenticator for user 9.
func taskRouter(svc TaskService) http.Handler {
	h := NewTaskHandler(svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), 9)))
		})
	})
	r.Get("/tasks", h.HandleListTasks)
	r.Post("/tasks", h.HandleCreateTask)
	r.Patch("/tasks/{id}", h.HandleUpdateTask)
	r.Patch("/tasks/{id}/toggle", h.HandleToggleTask)
	r.Delete("/tasks/{id}", h.HandleDeleteTask)
	return r
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreateTask(t *testing.T) {
	svc := &stubTaskService{}
	r := taskRouter(svc)

	rec := serve(r, http.MethodPost, "/tasks", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(9), svc.lastUser)

	var task map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&task))
	assert.Equal(t, "Buy milk", task["title"])
	assert.Equal(t, "9", task["userId"])
	assert.Equal(t, "TODO", task["status"])

	svc.err = service.ErrTitleRequired
	rec = serve(r, http.MethodPost, "/tasks", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, http.MethodPost, "/tasks", `[`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListTasks_Query(t *testing.T) {
	svc := &stubTaskService{}
	r := taskRouter(svc)

	rec := serve(r, http.MethodGet, "/tasks?status=DONE&search=milk&page=3&limit=25", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.TaskQuery{Status: "DONE", Search: "milk", Page: 3, Limit: 25}, svc.lastQuery)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(r, http.MethodGet, "/tasks?page=abc&limit=-4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.lastQuery.Page)
	assert.Equal(t, 10, svc.lastQuery.Limit)

	svc.err = service.ErrInvalidStatus
	rec = serve(r, http.MethodGet, "/tasks?status=LATER", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUpdateTask(t *testing.T) {
	svc := &stubTaskService{}
	r := taskRouter(svc)

	rec := serve(r, http.MethodPatch, "/tasks/t-1", `{"title":"renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t-1", svc.lastID)

	svc.err = service.ErrTaskNotFound
	rec = serve(r, http.MethodPatch, "/tasks/t-2", `{"title":"renamed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(r, http.MethodPatch, "/tasks/"+strings.Repeat("x", 37), `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid task id")
}

func TestHandleToggleTask(t *testing.T) {
	svc := &stubTaskService{}
	r := taskRouter(svc)

	rec := serve(r, http.MethodPatch, "/tasks/t-1/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"DONE"`)
}

func TestHandleDeleteTask(t *testing.T) {
	svc := &stubTaskService{}
	r := taskRouter(svc)

	rec := serve(r, http.MethodDelete, "/tasks/t-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	svc.err = service.ErrTaskNotFound
	rec = serve(r, http.MethodDelete, "/tasks/t-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.err = errors.New("db down")
	rec = serve(r, http.MethodDelete, "/tasks/t-1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestTaskHandlersRequireUser(t *testing.T) {
	h := NewTaskHandler(&stubTaskService{})

	rec := httptest.NewRecorder()
	h.HandleListTasks(rec, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQueryInt(t *testing.T) {
	assert.Equal(t, 5, queryInt("5", 1))
	assert.Equal(t, 1, queryInt("", 1))
	assert.Equal(t, 1, queryInt("0", 1))
	assert.Equal(t, 10, queryInt("ten", 10))
}
