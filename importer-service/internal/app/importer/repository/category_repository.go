package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"techcatalog/importer-service/internal/app/importer/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type categoryRepository struct {
	db *pgxpool.Pool // Пул соединений с PostgreSQL
}

// NewCategoryRepository создает новый репозиторий категорий
func NewCategoryRepository(db *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create создает новую категорию в PostgreSQL
// Уникальность без учета регистра обеспечивает functional unique index
// по LOWER(name); гонка двух импортов дает unique_violation
func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	query := `
		INSERT INTO categories (id, name, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.Exec(ctx, query, category.ID, category.Name, category.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetByNameInsensitive ищет категорию по имени без учета регистра
// Именно этот lookup гарантирует, что "laptops" переиспользует "Laptops"
func (r *categoryRepository) GetByNameInsensitive(ctx context.Context, name string) (*entity.Category, error) {
	query := `SELECT id, name, created_at FROM categories WHERE LOWER(name) = LOWER($1)`

	var category entity.Category
	err := r.db.QueryRow(ctx, query, strings.TrimSpace(name)).Scan(
		&category.ID,
		&category.Name,
		&category.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by name: %w", err)
	}

	return &category, nil
}
