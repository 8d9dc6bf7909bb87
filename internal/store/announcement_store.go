package store

import (
	"context"
	"fmt"

	"github.com/workforge/forgedesk/internal/model"
)

// ReplaceAnnouncements swaps the cached announcements for a fresh snapshot.
func (s *SQLiteStore) ReplaceAnnouncements(
	ctx context.Context,
	items []model.Announcement,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM announcements"); err != nil {
		return fmt.Errorf("clearing announcements: %w", err)
	}

	for _, a := range items {
		if a.ID == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO announcements (id, title, content, author, priority, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, a.Title, a.Content, a.Author, a.Priority, toMillis(a.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting announcement %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// GetAnnouncements retrieves cached announcements, newest first.
func (s *SQLiteStore) GetAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, title, content, author, priority, created_at FROM announcements ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("querying announcements: %w", err)
	}
	defer rows.Close()

	var items []model.Announcement
	for rows.Next() {
		var (
			a         model.Announcement
			createdAt int64
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Author, &a.Priority, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning announcement row: %w", err)
		}
		a.CreatedAt = fromMillis(createdAt)
		items = append(items, a)
	}

	return items, rows.Err()
}
