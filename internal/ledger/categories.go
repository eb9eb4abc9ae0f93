package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/carnoises/ingresos-gastos-app/internal/core"
)

// CreateCategory creates a category with a unique name.
func (s *Service) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyName
	}

	var category core.Category
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.nameAvailableInTx(ctx, tx, "categories", name, 0); err != nil {
			return err
		}
		category = core.Category{Name: name}
		err := tx.QueryRowContext(ctx,
			s.store.Rebind("INSERT INTO categories (name) VALUES (?) RETURNING id"), name,
		).Scan(&category.ID)
		if err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}

	slog.InfoContext(ctx, "Category created", "category_id", category.ID, "name", category.Name)
	return category, nil
}

// Categories lists all categories ordered by name.
func (s *Service) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.store.DB().QueryContext(ctx, "SELECT id, name FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpdateCategory renames a category, keeping names unique.
func (s *Service) UpdateCategory(ctx context.Context, id int64, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyName
	}

	var category core.Category
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.categoryExistsInTx(ctx, tx, id); err != nil {
			return err
		}
		if err := s.nameAvailableInTx(ctx, tx, "categories", name, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			s.store.Rebind("UPDATE categories SET name = ? WHERE id = ?"), name, id); err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		category = core.Category{ID: id, Name: name}
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}

	slog.InfoContext(ctx, "Category updated", "category_id", id, "name", name)
	return category, nil
}

// DeleteCategory removes a category no transaction references.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.categoryExistsInTx(ctx, tx, id); err != nil {
			return err
		}

		var refs int
		err := tx.QueryRowContext(ctx,
			s.store.Rebind("SELECT COUNT(*) FROM transactions WHERE category_id = ?"), id,
		).Scan(&refs)
		if err != nil {
			return fmt.Errorf("count category references: %w", err)
		}
		if refs > 0 {
			return core.ErrCategoryInUse
		}

		if _, err := tx.ExecContext(ctx, s.store.Rebind("DELETE FROM categories WHERE id = ?"), id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category deleted", "category_id", id)
	return nil
}
