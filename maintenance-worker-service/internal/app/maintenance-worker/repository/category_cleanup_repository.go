package repository

import (
	"context"
	"fmt"
	"strings"

	"techcatalog/maintenance-worker-service/internal/app/maintenance-worker/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type categoryCleanupRepository struct {
	db *pgxpool.Pool
}

// NewCategoryCleanupRepository создает репозиторий чистки категорий
func NewCategoryCleanupRepository(db *pgxpool.Pool) CategoryCleanupRepository {
	return &categoryCleanupRepository{db: db}
}

// FindDuplicateGroups находит категории, имена которых совпадают
// без учета регистра
// Импортер ищет категории case-insensitive, но прямые вставки в БД
// или старые данные могут оставить "Laptops" и "laptops" одновременно
func (r *categoryCleanupRepository) FindDuplicateGroups(ctx context.Context) ([]entity.DuplicateGroup, error) {
	query := `
		SELECT id, name, created_at
		FROM categories
		WHERE LOWER(name) IN (
			SELECT LOWER(name)
			FROM categories
			GROUP BY LOWER(name)
			HAVING COUNT(*) > 1
		)
		ORDER BY LOWER(name), created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate categories: %w", err)
	}
	defer rows.Close()

	var groups []entity.DuplicateGroup
	currentKey := ""
	for rows.Next() {
		var category entity.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}

		key := strings.ToLower(category.Name)
		if key != currentKey {
			// Первая запись группы самая старая, она становится канонической
			groups = append(groups, entity.DuplicateGroup{Canonical: category})
			currentKey = key
			continue
		}

		last := &groups[len(groups)-1]
		last.Duplicates = append(last.Duplicates, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating duplicate categories: %w", err)
	}

	return groups, nil
}

// Delete удаляет категорию
// Вызывается только после переноса всех товаров из нее
func (r *categoryCleanupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM categories WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	return nil
}
