package sqlstore

import (
	"database/sql"
	"errors"
	"time"

	"github.com/pliu/taskchat/internal/models"
	"github.com/pliu/taskchat/internal/store"
)

func (s *SQLStore) CreateTask(task *models.Task) error {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	query := s.rebind(`INSERT INTO tasks (user_id, title, description, priority, is_complete, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	return s.db.QueryRow(query, task.UserID, task.Title, task.Description, task.Priority,
		task.IsComplete, task.CreatedAt, task.UpdatedAt).Scan(&task.ID)
}

func (s *SQLStore) GetTaskByID(id int) (*models.Task, error) {
	var task models.Task
	query := s.rebind(`SELECT id, user_id, title, description, priority, is_complete, created_at, updated_at
		FROM tasks WHERE id = ?`)
	err := s.db.QueryRow(query, id).Scan(&task.ID, &task.UserID, &task.Title, &task.Description,
		&task.Priority, &task.IsComplete, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (s *SQLStore) GetUserTasks(userID int) ([]models.Task, error) {
	query := s.rebind(`SELECT id, user_id, title, description, priority, is_complete, created_at, updated_at
		FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id DESC`)
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(&task.ID, &task.UserID, &task.Title, &task.Description,
			&task.Priority, &task.IsComplete, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// UpdateTask writes every mutable field in one statement. The owner is never
// part of the update; user_id is immutable after creation.
func (s *SQLStore) UpdateTask(task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()
	query := s.rebind(`UPDATE tasks SET title = ?, description = ?, priority = ?, is_complete = ?, updated_at = ?
		WHERE id = ?`)
	result, err := s.db.Exec(query, task.Title, task.Description, task.Priority,
		task.IsComplete, task.UpdatedAt, task.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *SQLStore) DeleteTask(id int) error {
	query := s.rebind("DELETE FROM tasks WHERE id = ?")
	result, err := s.db.Exec(query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}
