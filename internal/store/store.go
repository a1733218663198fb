package store

import (
	"errors"

	"github.com/pliu/taskchat/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when the unique email constraint fires.
	ErrDuplicateEmail = errors.New("email already registered")
)

type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id int) (*models.User, error)
	DeleteUser(id int) error

	// Task operations
	CreateTask(task *models.Task) error
	GetTaskByID(id int) (*models.Task, error)
	GetUserTasks(userID int) ([]models.Task, error)
	UpdateTask(task *models.Task) error
	DeleteTask(id int) error

	// Conversation operations
	AppendTurns(userID int, turns ...*models.ConversationTurn) error
	GetUserTurns(userID int) ([]models.ConversationTurn, error)
}
