package repository

import (
	"context"
	"errors"

	"techcatalog/importer-service/internal/app/importer/entity"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this name already exists")
	ErrProductNotFound       = errors.New("product not found")
)

// CategoryRepository хранилище категорий (PostgreSQL, pgx)
// Поиск по имени всегда выполняется без учета регистра,
// это предотвращает появление дублей вида "Laptops" / "laptops"
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByNameInsensitive(ctx context.Context, name string) (*entity.Category, error)
}

// ProductRepository хранилище товаров (PostgreSQL, gorm)
type ProductRepository interface {
	// UpsertByName создает товар или обновляет существующий по имени,
	// возвращает сохраненную строку
	UpsertByName(ctx context.Context, product *entity.Product) (*entity.Product, error)
	// UpdateImagePath выставляет путь изображения для товара по имени
	UpdateImagePath(ctx context.Context, name string, imagePath string) error
	GetByName(ctx context.Context, name string) (*entity.Product, error)
}

// RunRepository история прогонов импорта (MongoDB, best-effort)
type RunRepository interface {
	Save(ctx context.Context, run *entity.ImportRun) error
}

// MediaStore файловое хранилище изображений товаров
// Save возвращает относительный путь сохраненного файла
type MediaStore interface {
	Save(filename string, data []byte) (string, error)
}
