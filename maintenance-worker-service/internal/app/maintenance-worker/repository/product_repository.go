package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// ReassignCategory переводит товары из категории-дубликата в каноническую
func (r *productRepository) ReassignCategory(ctx context.Context, from, to uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Table("products").
		Where("category_id = ?", from).
		Update("category_id", to)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to reassign products: %w", result.Error)
	}

	return result.RowsAffected, nil
}
