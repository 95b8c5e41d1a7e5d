package repository

import (
	"context"
	"database/sql"
	"fmt"

	"expense_tracker/internal/models"
)

type CategorySQLite struct {
	db *sql.DB
}

func NewCategorySQLite(db *sql.DB) *CategorySQLite { return &CategorySQLite{db: db} }

const selectCategoriesSQL = `SELECT id, name, color FROM categories ORDER BY name`

func (r *CategorySQLite) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, selectCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]models.Category, 0, 8)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}
