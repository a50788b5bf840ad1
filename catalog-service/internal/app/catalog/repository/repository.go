package repository

import (
	"context"
	"errors"

	"techcatalog/catalog-service/internal/app/catalog/entity"

	"github.com/google/uuid"
)

var (
	// Стандартные ошибки репозиториев для обработки в service layer
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this name already exists")
	ErrCategoryHasProducts   = errors.New("cannot delete category with existing products")
	ErrProductNotFound       = errors.New("product not found")
)

// CategoryRepository определяет операции с категориями в PostgreSQL
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	GetAll(ctx context.Context) ([]entity.Category, error)
	GetByNameInsensitive(ctx context.Context, name string) (*entity.Category, error)
	FindByNameContains(ctx context.Context, fragment string) (*entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductFilter задает параметры выборки товаров для витрины
// Nil CategoryID означает выборку по всем категориям
type ProductFilter struct {
	CategoryID *uuid.UUID
	Offset     int
	Limit      int
}

// ProductRepository определяет операции с товарами в PostgreSQL
type ProductRepository interface {
	ListInStock(ctx context.Context, filter ProductFilter) ([]entity.Product, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}
