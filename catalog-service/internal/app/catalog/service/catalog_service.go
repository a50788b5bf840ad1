package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"techcatalog/catalog-service/internal/app/catalog/entity"
	"techcatalog/catalog-service/internal/app/catalog/repository"
	"techcatalog/catalog-service/internal/app/catalog/util"
	"techcatalog/pkg/logger"
	"techcatalog/pkg/metrics"

	"github.com/google/uuid"
)

const serviceName = "catalog-service"

// Размер страницы витрины
const productsPerPage = 12

// TTL кеша списка категорий
const categoriesCacheTTL = time.Hour

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategoryExists      = errors.New("category with this name already exists")
	ErrCategoryHasProducts = errors.New("cannot delete category with existing products")
	ErrProductNotFound     = errors.New("product not found")
)

// CatalogService обрабатывает бизнес-логику витрины каталога
// Координирует работу репозиториев, Redis кеша и Kafka producer
type CatalogService struct {
	categoryRepo  repository.CategoryRepository
	productRepo   repository.ProductRepository
	redisCache    util.RedisCache
	kafkaProducer util.MessagePublisher
}

// NewCatalogService создает новый сервис каталога с внедрением зависимостей
func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	redisCache util.RedisCache,
	kafkaProducer util.MessagePublisher,
) *CatalogService {
	return &CatalogService{
		categoryRepo:  categoryRepo,
		productRepo:   productRepo,
		redisCache:    redisCache,
		kafkaProducer: kafkaProducer,
	}
}

// === CATEGORIES ===

// CreateCategory создает новую категорию и инвалидирует кеш
func (s *CatalogService) CreateCategory(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error) {
	category := &entity.Category{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.invalidateCategoriesCache(ctx)

	return category, nil
}

// GetCategory получает категорию по ID
// Кеш не используется: запрашивается конкретная категория
func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

// GetAllCategories получает все категории с кешированием в Redis
// Сначала проверяет кеш, если нет - загружает из БД и кеширует
func (s *CatalogService) GetAllCategories(ctx context.Context) ([]entity.Category, error) {
	categories, err := s.redisCache.GetCategories(ctx)
	if err == nil && len(categories) > 0 {
		metrics.RecordCacheHit(serviceName, "categories")
		return categories, nil
	}
	metrics.RecordCacheMiss(serviceName, "categories")

	categories, err = s.categoryRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	if err := s.redisCache.SetCategories(ctx, categories, categoriesCacheTTL); err != nil {
		// Данные получены из БД, проблемы с кешем не критичны
		logger.Warn().Err(err).Msg("Failed to cache categories")
	}

	return categories, nil
}

// UpdateCategory переименовывает категорию и инвалидирует кеш
func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req *entity.UpdateCategoryRequest) (*entity.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	category.Name = req.Name

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, ErrCategoryExists
		}
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.invalidateCategoriesCache(ctx)

	return category, nil
}

// DeleteCategory удаляет пустую категорию и инвалидирует кеш
// Категория с товарами не удаляется
func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		if errors.Is(err, repository.ErrCategoryHasProducts) {
			return ErrCategoryHasProducts
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.invalidateCategoriesCache(ctx)

	return nil
}

// === PRODUCTS ===

// ListProducts получает страницу товаров в наличии для витрины
// Фильтр категории нестрогий: сначала точное совпадение имени без учета
// регистра, затем поиск по вхождению; неизвестная категория показывает
// все товары, а не пустую страницу
func (s *CatalogService) ListProducts(ctx context.Context, categoryFilter string, page int) (*entity.ProductListResponse, error) {
	if page < 1 {
		page = 1
	}

	var categoryID *uuid.UUID
	activeCategory := ""
	if categoryFilter != "" {
		if category := s.resolveCategoryFilter(ctx, categoryFilter); category != nil {
			categoryID = &category.ID
			activeCategory = category.Name
		}
	}

	filter := repository.ProductFilter{
		CategoryID: categoryID,
		Offset:     (page - 1) * productsPerPage,
		Limit:      productsPerPage,
	}

	products, total, err := s.productRepo.ListInStock(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	pages := int((total + productsPerPage - 1) / productsPerPage)

	return &entity.ProductListResponse{
		Products:       products,
		Total:          total,
		Page:           page,
		Pages:          pages,
		ActiveCategory: activeCategory,
	}, nil
}

// resolveCategoryFilter превращает строку фильтра в категорию
// Nil означает, что фильтр не сузил выборку
func (s *CatalogService) resolveCategoryFilter(ctx context.Context, filter string) *entity.Category {
	category, err := s.categoryRepo.GetByNameInsensitive(ctx, filter)
	if err == nil {
		return category
	}
	if !errors.Is(err, repository.ErrCategoryNotFound) {
		logger.Warn().Err(err).Str("filter", filter).Msg("Category filter lookup failed")
		return nil
	}

	category, err = s.categoryRepo.FindByNameContains(ctx, filter)
	if err == nil {
		return category
	}
	if !errors.Is(err, repository.ErrCategoryNotFound) {
		logger.Warn().Err(err).Str("filter", filter).Msg("Category filter search failed")
	}

	return nil
}

// GetProduct получает товар по ID с информацией о категории
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return product, nil
}

// UpdateProduct обновляет товар и отправляет событие PRODUCT_UPDATED
// при изменении цены
func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req *entity.UpdateProductRequest) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	oldPrice := product.Price

	// Частичное обновление: меняются только переданные поля
	if req.Name != "" {
		product.Name = req.Name
	}
	if req.ShortDescription != "" {
		product.ShortDescription = req.ShortDescription
	}
	if req.Price.IsPositive() {
		product.Price = req.Price
	}
	if req.CategoryID != uuid.Nil {
		if _, err := s.categoryRepo.GetByID(ctx, req.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to verify category: %w", err)
		}
		product.CategoryID = req.CategoryID
	}
	if req.InStock != nil {
		product.InStock = *req.InStock
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if !product.Price.Equal(oldPrice) {
		s.publishProductEvent(ctx, entity.ProductEvent{
			EventType:  entity.EventProductUpdated,
			ProductID:  product.ID,
			Name:       product.Name,
			Price:      product.Price,
			CategoryID: product.CategoryID,
			Timestamp:  time.Now(),
		})
	}

	return product, nil
}

// DeleteProduct удаляет товар и отправляет событие PRODUCT_DELETED
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to get product: %w", err)
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.publishProductEvent(ctx, entity.ProductEvent{
		EventType:  entity.EventProductDeleted,
		ProductID:  product.ID,
		Name:       product.Name,
		Price:      product.Price,
		CategoryID: product.CategoryID,
		Timestamp:  time.Now(),
	})

	return nil
}

// invalidateCategoriesCache сбрасывает кеш категорий
// Запись уже в БД, проблемы с кешем не критичны
func (s *CatalogService) invalidateCategoriesCache(ctx context.Context) {
	if err := s.redisCache.DeleteCategories(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate categories cache")
	}
}

// publishProductEvent отправляет событие о товаре в Kafka (best-effort)
// Key - это ProductID для правильного партиционирования
func (s *CatalogService) publishProductEvent(ctx context.Context, event entity.ProductEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to marshal product event")
		return
	}

	if err := s.kafkaProducer.PublishMessage(ctx, event.ProductID.String(), data); err != nil {
		// Изменение уже в БД, проблемы с Kafka не критичны
		logger.Warn().Err(err).Str("event", event.EventType).Msg("Failed to publish product event")
		metrics.RecordKafkaError(serviceName, "product_events", "produce")
		return
	}

	metrics.RecordKafkaMessageProduced(serviceName, "product_events")
}
