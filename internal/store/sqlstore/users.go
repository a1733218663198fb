package sqlstore

import (
	"database/sql"
	"errors"
	"time"

	"github.com/pliu/taskchat/internal/models"
	"github.com/pliu/taskchat/internal/store"
)

func (s *SQLStore) CreateUser(user *models.User) error {
	user.CreatedAt = time.Now().UTC()
	query := s.rebind("INSERT INTO users (email, hashed_password, created_at) VALUES (?, ?, ?) RETURNING id")
	err := s.db.QueryRow(query, user.Email, user.HashedPassword, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *SQLStore) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	query := s.rebind("SELECT id, email, hashed_password, created_at FROM users WHERE email = ?")
	err := s.db.QueryRow(query, email).Scan(&user.ID, &user.Email, &user.HashedPassword, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *SQLStore) GetUserByID(id int) (*models.User, error) {
	var user models.User
	query := s.rebind("SELECT id, email, hashed_password, created_at FROM users WHERE id = ?")
	err := s.db.QueryRow(query, id).Scan(&user.ID, &user.Email, &user.HashedPassword, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the user row; tasks and conversation turns go with it
// via ON DELETE CASCADE.
func (s *SQLStore) DeleteUser(id int) error {
	query := s.rebind("DELETE FROM users WHERE id = ?")
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
