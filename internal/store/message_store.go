package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/workforge/forgedesk/internal/model"
)

const insertMessageSQL = `
	INSERT OR REPLACE INTO messages (
		id, sender_id, sender_name, sender_role,
		recipient_id, content, sent_at, read
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// messageRow mirrors the messages table for sqlx scanning.
type messageRow struct {
	ID          string `db:"id"`
	SenderID    string `db:"sender_id"`
	SenderName  string `db:"sender_name"`
	SenderRole  string `db:"sender_role"`
	RecipientID string `db:"recipient_id"`
	Content     string `db:"content"`
	SentAt      int64  `db:"sent_at"`
	Read        bool   `db:"read"`
}

func (r messageRow) toModel() model.Message {
	return model.Message{
		ID:          r.ID,
		SenderID:    r.SenderID,
		SenderName:  r.SenderName,
		SenderRole:  r.SenderRole,
		RecipientID: r.RecipientID,
		Content:     r.Content,
		Timestamp:   fromMillis(r.SentAt),
		Read:        r.Read,
	}
}

// ReplaceMessages swaps the cached message set for a fresh server snapshot.
// Read flags only move from unread to read: a row already read in the
// cache stays read even if the snapshot was fetched before the mark
// reached the server.
func (s *SQLiteStore) ReplaceMessages(
	ctx context.Context,
	messages []model.Message,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var readIDs []string
	if err := tx.SelectContext(ctx, &readIDs, "SELECT id FROM messages WHERE read = 1"); err != nil {
		return fmt.Errorf("querying read messages: %w", err)
	}
	wasRead := make(map[string]bool, len(readIDs))
	for _, id := range readIDs {
		wasRead[id] = true
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages"); err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, insertMessageSQL)
	if err != nil {
		return fmt.Errorf("preparing message insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range messages {
		if m.ID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			m.ID, m.SenderID, m.SenderName, m.SenderRole,
			m.RecipientID, m.Content, toMillis(m.Timestamp), boolToInt(m.Read || wasRead[m.ID]),
		); err != nil {
			return fmt.Errorf("inserting message %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// UpsertMessages inserts or replaces individual messages, e.g. a reply
// that was just sent.
func (s *SQLiteStore) UpsertMessages(
	ctx context.Context,
	messages []model.Message,
) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range messages {
		if _, err := tx.ExecContext(ctx, insertMessageSQL,
			m.ID, m.SenderID, m.SenderName, m.SenderRole,
			m.RecipientID, m.Content, toMillis(m.Timestamp), boolToInt(m.Read),
		); err != nil {
			return fmt.Errorf("upserting message %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// GetMessages retrieves cached messages ordered oldest first.
func (s *SQLiteStore) GetMessages(
	ctx context.Context,
	filter MessageFilter,
) ([]model.Message, error) {
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, "(sender_id = ? OR recipient_id = ?)")
		args = append(args, filter.UserID, filter.UserID)
	}
	if filter.UnreadOnly {
		conditions = append(conditions, "read = 0")
	}

	query := "SELECT id, sender_id, sender_name, sender_role, recipient_id, content, sent_at, read FROM messages"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY sent_at ASC, id ASC"

	var rows []messageRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}

	messages := make([]model.Message, len(rows))
	for i, r := range rows {
		messages[i] = r.toModel()
	}
	return messages, nil
}

// GetMessageIDs returns the set of cached message IDs.
func (s *SQLiteStore) GetMessageIDs(ctx context.Context) (map[string]bool, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, "SELECT id FROM messages"); err != nil {
		return nil, fmt.Errorf("querying message ids: %w", err)
	}

	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// MarkMessageRead sets the cached read flag for one message.
func (s *SQLiteStore) MarkMessageRead(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE messages SET read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking message %s read: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("message %s not found", id)
	}
	return nil
}

// MarkMessagesRead sets the cached read flag on every message addressed
// to recipientID and returns how many rows changed.
func (s *SQLiteStore) MarkMessagesRead(
	ctx context.Context,
	recipientID string,
) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE messages SET read = 1 WHERE recipient_id = ? AND read = 0",
		recipientID,
	)
	if err != nil {
		return 0, fmt.Errorf("marking messages read for %s: %w", recipientID, err)
	}
	return result.RowsAffected()
}
