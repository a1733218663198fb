package sqlstore

import (
	"time"

	"github.com/pliu/taskchat/internal/models"
)

// AppendTurns inserts the given turns in order inside one transaction, so a
// failed chat request never leaves a user turn without its assistant turn.
func (s *SQLStore) AppendTurns(userID int, turns ...*models.ConversationTurn) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := s.rebind("INSERT INTO conversation_turns (user_id, role, content, created_at) VALUES (?, ?, ?, ?) RETURNING id")
	for _, turn := range turns {
		turn.UserID = userID
		turn.CreatedAt = time.Now().UTC()
		if err := tx.QueryRow(query, userID, turn.Role, turn.Content, turn.CreatedAt).Scan(&turn.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetUserTurns(userID int) ([]models.ConversationTurn, error) {
	query := s.rebind(`SELECT id, user_id, role, content, created_at
		FROM conversation_turns WHERE user_id = ? ORDER BY created_at ASC, id ASC`)
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := []models.ConversationTurn{}
	for rows.Next() {
		var turn models.ConversationTurn
		if err := rows.Scan(&turn.ID, &turn.UserID, &turn.Role, &turn.Content, &turn.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}
