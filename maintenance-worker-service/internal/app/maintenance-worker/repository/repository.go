package repository

import (
	"context"

	"techcatalog/maintenance-worker-service/internal/app/maintenance-worker/entity"

	"github.com/google/uuid"
)

// CategoryCleanupRepository определяет операции чистки категорий в PostgreSQL
type CategoryCleanupRepository interface {
	// FindDuplicateGroups возвращает группы категорий, имена которых
	// совпадают без учета регистра; внутри группы самая старая запись первая
	FindDuplicateGroups(ctx context.Context) ([]entity.DuplicateGroup, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductRepository определяет операции с товарами при слиянии категорий
type ProductRepository interface {
	// ReassignCategory переводит все товары категории from в категорию to
	// Возвращает число перенесенных товаров
	ReassignCategory(ctx context.Context, from, to uuid.UUID) (int64, error)
}

// CacheRepository определяет операции с кешем витрины
type CacheRepository interface {
	InvalidateCategories(ctx context.Context) error
}
