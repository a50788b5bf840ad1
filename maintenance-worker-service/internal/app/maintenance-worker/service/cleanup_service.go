package service

import (
	"context"
	"fmt"
	"time"

	"techcatalog/maintenance-worker-service/internal/app/maintenance-worker/entity"
	"techcatalog/maintenance-worker-service/internal/app/maintenance-worker/repository"
	"techcatalog/pkg/logger"
	"techcatalog/pkg/metrics"
)

const serviceName = "maintenance-worker"

// CleanupService сливает дубликаты категорий, появившиеся до того,
// как сравнение имён стало регистронезависимым. Канонической считается
// самая старая категория в группе, товары остальных переносятся на неё.
type CleanupService struct {
	categoryRepo repository.CategoryCleanupRepository
	productRepo  repository.ProductRepository
	cacheRepo    repository.CacheRepository
}

func NewCleanupService(
	categoryRepo repository.CategoryCleanupRepository,
	productRepo repository.ProductRepository,
	cacheRepo repository.CacheRepository,
) *CleanupService {
	return &CleanupService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		cacheRepo:    cacheRepo,
	}
}

func (s *CleanupService) MergeDuplicateCategories(ctx context.Context) (*entity.MergeReport, error) {
	report := &entity.MergeReport{StartedAt: time.Now()}

	groups, err := s.categoryRepo.FindDuplicateGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate categories: %w", err)
	}
	report.Groups = len(groups)

	if len(groups) == 0 {
		report.FinishedAt = time.Now()
		logger.Info().Msg("No duplicate categories found")
		return report, nil
	}

	for _, group := range groups {
		for _, dup := range group.Duplicates {
			moved, err := s.productRepo.ReassignCategory(ctx, dup.ID, group.Canonical.ID)
			if err != nil {
				logger.Error().Err(err).
					Str("category", dup.Name).
					Str("canonical", group.Canonical.Name).
					Msg("Failed to reassign products, keeping duplicate")
				continue
			}

			if err := s.categoryRepo.Delete(ctx, dup.ID); err != nil {
				logger.Error().Err(err).
					Str("category", dup.Name).
					Msg("Failed to delete duplicate category")
				continue
			}

			report.MovedProducts += moved
			report.MergedCategories++
			metrics.CategoriesMergedTotal.WithLabelValues(serviceName).Inc()

			logger.Info().
				Str("category", dup.Name).
				Str("canonical", group.Canonical.Name).
				Int64("moved_products", moved).
				Msg("Merged duplicate category")
		}
	}

	if report.MergedCategories > 0 {
		if err := s.InvalidateCategoryCache(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to invalidate categories cache after merge")
		}
	}

	report.FinishedAt = time.Now()

	logger.Info().
		Int("groups", report.Groups).
		Int("merged_categories", report.MergedCategories).
		Int64("moved_products", report.MovedProducts).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Category cleanup finished")

	return report, nil
}

func (s *CleanupService) InvalidateCategoryCache(ctx context.Context) error {
	if err := s.cacheRepo.InvalidateCategories(ctx); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to invalidate categories cache: %w", err)
	}
	logger.Debug().Msg("Categories cache invalidated")
	return nil
}
