package mocks

import (
	"context"

	"techcatalog/maintenance-worker-service/internal/app/maintenance-worker/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCategoryCleanupRepository мок репозитория чистки категорий
type MockCategoryCleanupRepository struct {
	mock.Mock
}

func (m *MockCategoryCleanupRepository) FindDuplicateGroups(ctx context.Context) ([]entity.DuplicateGroup, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.DuplicateGroup), args.Error(1)
}

func (m *MockCategoryCleanupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProductRepository мок репозитория товаров
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) ReassignCategory(ctx context.Context, from, to uuid.UUID) (int64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(int64), args.Error(1)
}

// MockCacheRepository мок репозитория кеша
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) InvalidateCategories(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
