package repository

import (
	"context"
	"errors"
	"fmt"

	"techcatalog/importer-service/internal/app/importer/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// UpsertByName создает товар или обновляет существующий по имени
// Повторный импорт той же записи перезаписывает описание, цену,
// категорию и наличие - операция идемпотентна
// Путь изображения при конфликте не трогается: повторный импорт
// без image_url не должен стирать ранее загруженное изображение
func (r *productRepository) UpsertByName(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"short_description", "price", "category_id", "in_stock",
		}),
	}).Create(product)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to upsert product: %w", result.Error)
	}

	// Перечитываем строку: при конфликте ID в product остается сгенерированным,
	// а не тем, что реально лежит в таблице
	return r.GetByName(ctx, product.Name)
}

// UpdateImagePath выставляет путь изображения для товара по имени
func (r *productRepository) UpdateImagePath(ctx context.Context, name string, imagePath string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Product{}).
		Where("name = ?", name).
		Update("image_path", imagePath)

	if result.Error != nil {
		return fmt.Errorf("failed to update image path: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// GetByName получает товар по имени
func (r *productRepository) GetByName(ctx context.Context, name string) (*entity.Product, error) {
	var product entity.Product
	result := r.db.WithContext(ctx).First(&product, "name = ?", name)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, result.Error
	}

	return &product, nil
}
