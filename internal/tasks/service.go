// Package tasks implements the ownership-enforced task operations. Every
// method takes the authenticated requester's id; nothing under this package
// trusts an owner value supplied by a client.
package tasks

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pliu/taskchat/internal/models"
	"github.com/pliu/taskchat/internal/store"
)

var (
	ErrNotFound  = errors.New("Task not found")
	ErrForbidden = errors.New("Not authorized")
)

const (
	TitleMaxLen       = 200
	DescriptionMaxLen = 2000
)

// ValidationError reports a rejected input field. The whole operation fails;
// no partial write ever happens.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Service struct {
	store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{store: s}
}

type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// UpdateInput carries a partial field set; only non-nil fields are applied.
type UpdateInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
}

// List returns the requester's tasks, newest-created-first. Never a global
// scan.
func (s *Service) List(userID int) ([]models.Task, error) {
	return s.store.GetUserTasks(userID)
}

// Create stamps the owner from the authenticated requester regardless of
// anything in the request body.
func (s *Service) Create(userID int, in CreateInput) (*models.Task, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}
	priority, err := normalizePriority(in.Priority)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		UserID:      userID,
		Title:       title,
		Description: in.Description,
		Priority:    priority,
	}
	if err := s.store.CreateTask(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) Get(userID, taskID int) (*models.Task, error) {
	return s.fetchOwned(userID, taskID)
}

// Update applies only the fields present in the input. A present-but-invalid
// field fails the whole request before anything is written.
func (s *Service) Update(userID, taskID int, in UpdateInput) (*models.Task, error) {
	task, err := s.fetchOwned(userID, taskID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title, err := validateTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		task.Title = title
	}
	if in.Description != nil {
		if err := validateDescription(*in.Description); err != nil {
			return nil, err
		}
		task.Description = *in.Description
	}
	if in.Priority != nil {
		priority, err := normalizePriority(*in.Priority)
		if err != nil {
			return nil, err
		}
		task.Priority = priority
	}

	if err := s.store.UpdateTask(task); err != nil {
		return nil, err
	}
	return task, nil
}

// Toggle flips the completion flag under the same ownership gate as Update.
func (s *Service) Toggle(userID, taskID int) (*models.Task, error) {
	task, err := s.fetchOwned(userID, taskID)
	if err != nil {
		return nil, err
	}
	task.IsComplete = !task.IsComplete
	if err := s.store.UpdateTask(task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete is hard and permanent.
func (s *Service) Delete(userID, taskID int) error {
	if _, err := s.fetchOwned(userID, taskID); err != nil {
		return err
	}
	return s.store.DeleteTask(taskID)
}

// fetchOwned is the ownership gate: absent task and foreign task surface as
// distinct errors, but neither reveals anything about the actual owner.
func (s *Service) fetchOwned(userID, taskID int) (*models.Task, error) {
	task, err := s.store.GetTaskByID(taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if task.UserID != userID {
		return nil, ErrForbidden
	}
	return task, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &ValidationError{Field: "title", Message: "title must not be empty"}
	}
	// Limits are in characters, not bytes.
	if utf8.RuneCountInString(title) > TitleMaxLen {
		return "", &ValidationError{Field: "title", Message: fmt.Sprintf("title must be at most %d characters", TitleMaxLen)}
	}
	return title, nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > DescriptionMaxLen {
		return &ValidationError{Field: "description", Message: fmt.Sprintf("description must be at most %d characters", DescriptionMaxLen)}
	}
	return nil
}

func normalizePriority(priority string) (string, error) {
	if priority == "" {
		return models.PriorityMedium, nil
	}
	switch strings.ToLower(priority) {
	case models.PriorityHigh:
		return models.PriorityHigh, nil
	case models.PriorityMedium:
		return models.PriorityMedium, nil
	case models.PriorityLow:
		return models.PriorityLow, nil
	}
	return "", &ValidationError{Field: "priority", Message: "priority must be one of high, medium, low"}
}
