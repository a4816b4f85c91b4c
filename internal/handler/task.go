package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tasknest/tasknest-go/internal/middleware"
	"github.com/tasknest/tasknest-go/internal/model"
	"github.com/tasknest/tasknest-go/internal/service"
)

// TaskService is the task operations the task endpoints drive.
type TaskService interface {
	CreateTask(ctx context.Context, userID int64, req model.CreateTaskRequest) (model.Task, error)
	ListTasks(ctx context.Context, userID int64, q model.TaskQuery) ([]model.Task, error)
	UpdateTask(ctx context.Context, userID int64, id string, req model.UpdateTaskRequest) (model.Task, error)
	ToggleTask(ctx context.Context, userID int64, id string) (model.Task, error)
	DeleteTask(ctx context.Context, userID int64, id string) error
}

// TaskHandler handles HTTP requests for task operations.
type TaskHandler struct {
	service TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc TaskService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// HandleListTasks handles GET /tasks requests.
func (h *TaskHandler) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("access token required"))
		return
	}

	q := r.URL.Query()
	tasks, err := h.service.ListTasks(r.Context(), userID, model.TaskQuery{
		Status: q.Get("status"),
		Search: q.Get("search"),
		Page:   queryInt(q.Get("page"), 1),
		Limit:  queryInt(q.Get("limit"), 10),
	})
	if err != nil {
		writeTaskError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// HandleCreateTask handles POST /tasks requests.
func (h *TaskHandler) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("access token required"))
		return
	}

	var req model.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.service.CreateTask(r.Context(), userID, req)
	if err != nil {
		writeTaskError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// HandleUpdateTask handles PATCH /tasks/{id} requests.
func (h *TaskHandler) HandleUpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("access token required"))
		return
	}

	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	var req model.UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.service.UpdateTask(r.Context(), userID, taskID, req)
	if err != nil {
		writeTaskError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleToggleTask handles PATCH /tasks/{id}/toggle requests.
func (h *TaskHandler) HandleToggleTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("access token required"))
		return
	}

	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	task, err := h.service.ToggleTask(r.Context(), userID, taskID)
	if err != nil {
		writeTaskError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleDeleteTask handles DELETE /tasks/{id} requests.
func (h *TaskHandler) HandleDeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("access token required"))
		return
	}

	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), userID, taskID); err != nil {
		writeTaskError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func taskIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	taskID := chi.URLParam(r, "id")
	if taskID == "" || len(taskID) > 36 {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid task id"))
		return "", false
	}
	return taskID, true
}

// queryInt parses a positive integer query value, falling back to def.
func queryInt(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func writeTaskError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case service.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrTaskNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
	default:
		slog.ErrorContext(r.Context(), "task request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
	}
}
