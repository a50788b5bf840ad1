package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"techcatalog/maintenance-worker-service/internal/app/maintenance-worker/entity"
	"techcatalog/maintenance-worker-service/internal/app/maintenance-worker/repository/mocks"
	"techcatalog/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitWithWriter("maintenance-worker-test", "debug", io.Discard)
}

type cleanupDeps struct {
	categoryRepo *mocks.MockCategoryCleanupRepository
	productRepo  *mocks.MockProductRepository
	cacheRepo    *mocks.MockCacheRepository
}

func newCleanupService() (*CleanupService, *cleanupDeps) {
	deps := &cleanupDeps{
		categoryRepo: new(mocks.MockCategoryCleanupRepository),
		productRepo:  new(mocks.MockProductRepository),
		cacheRepo:    new(mocks.MockCacheRepository),
	}
	svc := NewCleanupService(deps.categoryRepo, deps.productRepo, deps.cacheRepo)
	return svc, deps
}

func newCategory(name string, age time.Duration) entity.Category {
	return entity.Category{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().Add(-age),
	}
}

func TestMergeDuplicateCategories_NoDuplicates(t *testing.T) {
	svc, deps := newCleanupService()
	ctx := context.Background()

	deps.categoryRepo.On("FindDuplicateGroups", ctx).Return([]entity.DuplicateGroup{}, nil)

	report, err := svc.MergeDuplicateCategories(ctx)

	require.NoError(t, err)
	assert.Equal(t, 0, report.Groups)
	assert.Equal(t, 0, report.MergedCategories)
	deps.productRepo.AssertNotCalled(t, "ReassignCategory", mock.Anything, mock.Anything, mock.Anything)
	deps.cacheRepo.AssertNotCalled(t, "InvalidateCategories", mock.Anything)
}

func TestMergeDuplicateCategories_MergesGroup(t *testing.T) {
	svc, deps := newCleanupService()
	ctx := context.Background()

	canonical := newCategory("Smartphones", 48*time.Hour)
	dup1 := newCategory("smartphones", 24*time.Hour)
	dup2 := newCategory("SMARTPHONES", time.Hour)

	deps.categoryRepo.On("FindDuplicateGroups", ctx).Return([]entity.DuplicateGroup{
		{Canonical: canonical, Duplicates: []entity.Category{dup1, dup2}},
	}, nil)
	deps.productRepo.On("ReassignCategory", ctx, dup1.ID, canonical.ID).Return(int64(3), nil)
	deps.productRepo.On("ReassignCategory", ctx, dup2.ID, canonical.ID).Return(int64(1), nil)
	deps.categoryRepo.On("Delete", ctx, dup1.ID).Return(nil)
	deps.categoryRepo.On("Delete", ctx, dup2.ID).Return(nil)
	deps.cacheRepo.On("InvalidateCategories", ctx).Return(nil)

	report, err := svc.MergeDuplicateCategories(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Groups)
	assert.Equal(t, 2, report.MergedCategories)
	assert.Equal(t, int64(4), report.MovedProducts)
	deps.categoryRepo.AssertExpectations(t)
	deps.productRepo.AssertExpectations(t)
	deps.cacheRepo.AssertNumberOfCalls(t, "InvalidateCategories", 1)
}

func TestMergeDuplicateCategories_ReassignFailureKeepsDuplicate(t *testing.T) {
	svc, deps := newCleanupService()
	ctx := context.Background()

	canonical := newCategory("Laptops", 48*time.Hour)
	dup1 := newCategory("laptops", 24*time.Hour)
	dup2 := newCategory("LAPTOPS", time.Hour)

	deps.categoryRepo.On("FindDuplicateGroups", ctx).Return([]entity.DuplicateGroup{
		{Canonical: canonical, Duplicates: []entity.Category{dup1, dup2}},
	}, nil)
	deps.productRepo.On("ReassignCategory", ctx, dup1.ID, canonical.ID).
		Return(int64(0), errors.New("connection reset"))
	deps.productRepo.On("ReassignCategory", ctx, dup2.ID, canonical.ID).Return(int64(2), nil)
	deps.categoryRepo.On("Delete", ctx, dup2.ID).Return(nil)
	deps.cacheRepo.On("InvalidateCategories", ctx).Return(nil)

	report, err := svc.MergeDuplicateCategories(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, report.MergedCategories)
	assert.Equal(t, int64(2), report.MovedProducts)
	// Дубликат с неудавшимся переносом не удаляется
	deps.categoryRepo.AssertNotCalled(t, "Delete", ctx, dup1.ID)
}

func TestMergeDuplicateCategories_DeleteFailureNotCounted(t *testing.T) {
	svc, deps := newCleanupService()
	ctx := context.Background()

	canonical := newCategory("Tablets", 48*time.Hour)
	dup := newCategory("tablets", time.Hour)

	deps.categoryRepo.On("FindDuplicateGroups", ctx).Return([]entity.DuplicateGroup{
		{Canonical: canonical, Duplicates: []entity.Category{dup}},
	}, nil)
	deps.productRepo.On("ReassignCategory", ctx, dup.ID, canonical.ID).Return(int64(5), nil)
	deps.categoryRepo.On("Delete", ctx, dup.ID).Return(errors.New("foreign key violation"))

	report, err := svc.MergeDuplicateCategories(ctx)

	require.NoError(t, err)
	assert.Equal(t, 0, report.MergedCategories)
	assert.Equal(t, int64(0), report.MovedProducts)
	deps.cacheRepo.AssertNotCalled(t, "InvalidateCategories", mock.Anything)
}

func TestMergeDuplicateCategories_FindError(t *testing.T) {
	svc, deps := newCleanupService()
	ctx := context.Background()

	deps.categoryRepo.On("FindDuplicateGroups", ctx).
		Return(nil, errors.New("connection refused"))

	report, err := svc.MergeDuplicateCategories(ctx)

	require.Error(t, err)
	assert.Nil(t, report)
}

func TestMergeDuplicateCategories_CacheFailureIgnored(t *testing.T) {
	svc, deps := newCleanupService()
	ctx := context.Background()

	canonical := newCategory("Audio", 48*time.Hour)
	dup := newCategory("audio", time.Hour)

	deps.categoryRepo.On("FindDuplicateGroups", ctx).Return([]entity.DuplicateGroup{
		{Canonical: canonical, Duplicates: []entity.Category{dup}},
	}, nil)
	deps.productRepo.On("ReassignCategory", ctx, dup.ID, canonical.ID).Return(int64(1), nil)
	deps.categoryRepo.On("Delete", ctx, dup.ID).Return(nil)
	deps.cacheRepo.On("InvalidateCategories", ctx).Return(errors.New("redis down"))

	report, err := svc.MergeDuplicateCategories(ctx)

	// Сбой кеша не валит чистку: БД уже консистентна
	require.NoError(t, err)
	assert.Equal(t, 1, report.MergedCategories)
}

func TestInvalidateCategoryCache(t *testing.T) {
	svc, deps := newCleanupService()
	ctx := context.Background()

	deps.cacheRepo.On("InvalidateCategories", ctx).Return(nil).Once()
	require.NoError(t, svc.InvalidateCategoryCache(ctx))

	deps.cacheRepo.On("InvalidateCategories", ctx).Return(errors.New("redis down")).Once()
	require.Error(t, svc.InvalidateCategoryCache(ctx))
}
