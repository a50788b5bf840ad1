package service

import (
	"context"

	"techcatalog/maintenance-worker-service/internal/app/maintenance-worker/entity"
)

// CleanupServiceInterface определяет операции обслуживания каталога
type CleanupServiceInterface interface {
	MergeDuplicateCategories(ctx context.Context) (*entity.MergeReport, error)
	InvalidateCategoryCache(ctx context.Context) error
}
