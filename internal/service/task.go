package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tasknest/tasknest-go/internal/model"
	"github.com/tasknest/tasknest-go/internal/repository"
)

const (
	maxTitleLength   = 255
	defaultPageLimit = 10
	maxPageLimit     = 100
	// maxOffset bounds (page-1)*limit so a huge page number cannot overflow.
	maxOffset = math.MaxInt32
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrTitleTooLong  = errors.New("title must be at most 255 characters")
	ErrInvalidStatus = errors.New("status must be one of TODO, IN_PROGRESS, DONE")
	ErrTaskNotFound  = errors.New("task not found")
)

// TaskStore is the persistence the task operations need. Every call is scoped
// to the owning user.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, userID int64, id string) (*model.Task, error)
	List(ctx context.Context, userID int64, filter model.TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, userID int64, id string) error
}

// TaskService handles task business logic.
type TaskService struct {
	repo  TaskStore
	now   func() time.Time
	newID func() string
}

// NewTaskService creates a new TaskService.
func NewTaskService(repo TaskStore) *TaskService {
	return &TaskService{
		repo:  repo,
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID: uuid.NewString,
	}
}

// CreateTask creates a task for userID. Status defaults to TODO.
func (s *TaskService) CreateTask(ctx context.Context, userID int64, req model.CreateTaskRequest) (model.Task, error) {
	title, err := validateTitle(req.Title)
	if err != nil {
		return model.Task{}, err
	}

	status := model.StatusTodo
	if req.Status != nil {
		if status, err = parseStatus(*req.Status); err != nil {
			return model.Task{}, err
		}
	}

	now := s.now()
	task := model.Task{
		ID:          s.newID(),
		UserID:      userID,
		Title:       title,
		Description: req.Description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, &task); err != nil {
		return model.Task{}, err
	}

	return task, nil
}

// ListTasks returns one page of the user's tasks, newest first.
func (s *TaskService) ListTasks(ctx context.Context, userID int64, q model.TaskQuery) ([]model.Task, error) {
	var status model.TaskStatus
	if strings.TrimSpace(q.Status) != "" {
		var err error
		if status, err = parseStatus(model.TaskStatus(q.Status)); err != nil {
			return nil, err
		}
	}

	limit := q.Limit
	switch {
	case limit <= 0:
		limit = defaultPageLimit
	case limit > maxPageLimit:
		limit = maxPageLimit
	}
	page := min(max(q.Page, 1), maxOffset/limit+1)

	return s.repo.List(ctx, userID, model.TaskFilter{
		Status: status,
		Search: strings.TrimSpace(q.Search),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
}

// UpdateTask applies the non-nil fields of req to one of the user's tasks.
func (s *TaskService) UpdateTask(ctx context.Context, userID int64, id string, req model.UpdateTaskRequest) (model.Task, error) {
	task, err := s.get(ctx, userID, id)
	if err != nil {
		return model.Task{}, err
	}

	if req.Title != nil {
		title, err := validateTitle(*req.Title)
		if err != nil {
			return model.Task{}, err
		}
		task.Title = title
	}
	if req.Description.Set {
		task.Description = req.Description.Value
	}
	if req.Status != nil {
		status, err := parseStatus(*req.Status)
		if err != nil {
			return model.Task{}, err
		}
		task.Status = status
	}

	return s.save(ctx, task)
}

// ToggleTask flips a task between DONE and TODO. An IN_PROGRESS task becomes DONE.
func (s *TaskService) ToggleTask(ctx context.Context, userID int64, id string) (model.Task, error) {
	task, err := s.get(ctx, userID, id)
	if err != nil {
		return model.Task{}, err
	}

	task.Status = task.Status.Toggled()
	return s.save(ctx, task)
}

// DeleteTask removes one of the user's tasks.
func (s *TaskService) DeleteTask(ctx context.Context, userID int64, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return err
	}
	return nil
}

func (s *TaskService) get(ctx context.Context, userID int64, id string) (*model.Task, error) {
	task, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

func (s *TaskService) save(ctx context.Context, task *model.Task) (model.Task, error) {
	task.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return model.Task{}, ErrTaskNotFound
		}
		return model.Task{}, err
	}
	return *task, nil
}

// parseStatus accepts a status in any letter case, the same way for create,
// update and list filters.
func parseStatus(s model.TaskStatus) (model.TaskStatus, error) {
	status := s.Normalize()
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// IsValidationError reports whether err was caused by bad caller input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, ErrRefreshTokenRequired) ||
		errors.Is(err, ErrTitleRequired) ||
		errors.Is(err, ErrTitleTooLong) ||
		errors.Is(err, ErrInvalidStatus)
}
