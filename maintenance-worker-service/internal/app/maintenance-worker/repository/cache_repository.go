package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Ключ кеша списка категорий catalog-service
const categoriesCacheKey = "categories:all"

type cacheRepository struct {
	client *redis.Client
}

// NewCacheRepository создает репозиторий кеша витрины
func NewCacheRepository(client *redis.Client) CacheRepository {
	return &cacheRepository{client: client}
}

// InvalidateCategories сбрасывает кеш списка категорий
// После импорта или слияния дубликатов витрина должна перечитать БД
func (r *cacheRepository) InvalidateCategories(ctx context.Context) error {
	if err := r.client.Del(ctx, categoriesCacheKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate categories cache: %w", err)
	}
	return nil
}
