package store

import (
	"context"
	"fmt"

	"github.com/workforge/forgedesk/internal/model"
)

// ReplaceEmployees swaps the cached roster for a fresh server snapshot.
func (s *SQLiteStore) ReplaceEmployees(
	ctx context.Context,
	employees []model.Employee,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM employees"); err != nil {
		return fmt.Errorf("clearing employees: %w", err)
	}

	for _, e := range employees {
		if e.ID == "" {
			continue
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT OR REPLACE INTO employees (id, name, role, email, department)
			VALUES (:id, :name, :role, :email, :department)`, e)
		if err != nil {
			return fmt.Errorf("inserting employee %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// GetEmployees retrieves the cached roster ordered by name.
func (s *SQLiteStore) GetEmployees(ctx context.Context) ([]model.Employee, error) {
	var employees []model.Employee
	err := s.db.SelectContext(ctx, &employees,
		"SELECT id, name, role, email, department FROM employees ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("querying employees: %w", err)
	}
	return employees, nil
}
