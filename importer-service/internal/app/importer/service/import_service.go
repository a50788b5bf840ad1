package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"techcatalog/importer-service/internal/app/importer/entity"
	"techcatalog/importer-service/internal/app/importer/repository"
	"techcatalog/pkg/logger"
	"techcatalog/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const serviceName = "importer-service"

// Описание товара по умолчанию, когда key_features пустые
const defaultDescription = "No description available"

// Все кроме цифр и десятичной точки вырезается из сырой цены перед парсингом
var nonPriceChars = regexp.MustCompile(`[^\d.]`)

var (
	// ErrBatchUnreadable - входной файл отсутствует или не читается
	ErrBatchUnreadable = errors.New("batch file is unreadable")
	// ErrBatchMalformed - содержимое не является ожидаемой JSON структурой
	ErrBatchMalformed = errors.New("batch file is not valid JSON")
)

// ImportService - пайплайн импорта товаров
// Обрабатывает записи строго по одной; ошибка одной записи
// никогда не прерывает батч, фатальны только ошибки чтения входа
type ImportService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	runRepo      repository.RunRepository // может быть nil: история прогонов best-effort
	media        repository.MediaStore
	images       ImageFetcher
	producer     MessagePublisher // может быть nil: события best-effort
}

// NewImportService создает сервис импорта с внедрением зависимостей
func NewImportService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	runRepo repository.RunRepository,
	media repository.MediaStore,
	images ImageFetcher,
	producer MessagePublisher,
) *ImportService {
	return &ImportService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		runRepo:      runRepo,
		media:        media,
		images:       images,
		producer:     producer,
	}
}

// Run выполняет импорт батча из JSON файла
// Возвращает ошибку только если вход не удалось прочитать или распарсить;
// все остальные ошибки остаются на уровне отдельных записей
func (s *ImportService) Run(ctx context.Context, batchFile string) (*entity.ImportRun, error) {
	timer := metrics.NewBatchTimer(serviceName)
	defer timer.ObserveDuration()

	data, err := os.ReadFile(batchFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBatchUnreadable, err)
	}

	records, err := decodeBatch(data)
	if err != nil {
		return nil, err
	}

	run := &entity.ImportRun{
		ID:         uuid.New(),
		SourceFile: batchFile,
		StartedAt:  time.Now(),
	}

	if len(records) == 0 {
		logger.Warn().Str("file", batchFile).Msg("No products found in batch")
	}

	for _, raw := range records {
		result := s.importRecord(ctx, raw)
		run.Add(result)
		metrics.RecordImportOutcome(serviceName, string(result.Outcome))
	}

	run.FinishedAt = time.Now()

	logger.Info().
		Str("file", batchFile).
		Int("total", run.Total()).
		Int("imported", run.Imported).
		Int("with_image", run.WithImage).
		Int("skipped", run.Skipped).
		Int("failed", run.Failed).
		Msg("Import finished")

	// История прогонов не критична для результата импорта
	if s.runRepo != nil {
		if err := s.runRepo.Save(ctx, run); err != nil {
			logger.Warn().Err(err).Msg("Failed to save import run history")
		}
	}

	return run, nil
}

// decodeBatch принимает либо массив записей, либо объект с полем products
// Элементы декодируются по отдельности, чтобы кривой элемент
// пропускался на уровне записи, а не валил весь батч
func decodeBatch(data []byte) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var wrapper struct {
		Products []json.RawMessage `json:"products"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBatchMalformed, err)
	}
	if wrapper.Products == nil {
		return nil, fmt.Errorf("%w: expected an array or an object with a products field", ErrBatchMalformed)
	}

	return wrapper.Products, nil
}

// importRecord проводит одну запись через весь пайплайн:
// категория -> цена -> изображение -> upsert -> событие
func (s *ImportService) importRecord(ctx context.Context, raw json.RawMessage) entity.RecordResult {
	var rec entity.BatchRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		logger.Warn().Err(err).Msg("Skipping invalid product entry")
		return entity.RecordResult{Outcome: entity.OutcomeSkippedInvalid, Detail: err.Error()}
	}

	name := rec.ProductName()
	if name == "" {
		logger.Warn().Msg("Missing name/title, skipping")
		return entity.RecordResult{Outcome: entity.OutcomeSkippedMissingName}
	}

	categoryName := ResolveCategory(&rec)
	category, err := s.getOrCreateCategory(ctx, categoryName)
	if err != nil {
		logger.Error().Err(err).Str("product", name).Msg("Failed to resolve category")
		return entity.RecordResult{Name: name, Outcome: entity.OutcomeFailed, Detail: err.Error()}
	}

	product := &entity.Product{
		ID:               uuid.New(),
		Name:             name,
		ShortDescription: buildDescription(rec.KeyFeatures),
		Price:            ParsePrice(rec.Price),
		CategoryID:       category.ID,
		InStock:          rec.Stocked(),
		CreatedAt:        time.Now(),
	}

	// Изображение опционально: любая ошибка на этом шаге деградирует
	// до импорта без изображения, но не отменяет запись
	imagePath := ""
	if rec.ImageURL != "" {
		imagePath = s.fetchImage(ctx, rec.ImageURL, name)
	}

	persisted, err := s.productRepo.UpsertByName(ctx, product)
	if err != nil {
		logger.Error().Err(err).Str("product", name).Msg("Failed to save product")
		return entity.RecordResult{
			Name:     name,
			Category: category.Name,
			Outcome:  entity.OutcomeFailed,
			Detail:   err.Error(),
		}
	}

	outcome := entity.OutcomeImportedWithoutImage
	if imagePath != "" {
		if err := s.productRepo.UpdateImagePath(ctx, name, imagePath); err != nil {
			logger.Warn().Err(err).Str("product", name).Msg("Failed to attach image to product")
		} else {
			outcome = entity.OutcomeImportedWithImage
		}
	}

	s.publishImported(ctx, persisted)

	logger.Info().
		Str("product", name).
		Str("category", category.Name).
		Str("outcome", string(outcome)).
		Msg("Imported product")

	return entity.RecordResult{Name: name, Category: category.Name, Outcome: outcome}
}

// getOrCreateCategory находит категорию без учета регистра или создает новую
// При любой ошибке хранилища откатывается на категорию Miscellaneous,
// чтобы не терять запись из-за проблем с категорией
func (s *ImportService) getOrCreateCategory(ctx context.Context, name string) (*entity.Category, error) {
	category, err := s.findOrCreate(ctx, name)
	if err == nil {
		return category, nil
	}

	logger.Warn().Err(err).Str("category", name).Msg("Falling back to default category")
	metrics.RecordDbError(serviceName, metrics.DbOpInsert)

	if name == FallbackCategory {
		return nil, err
	}
	return s.findOrCreate(ctx, FallbackCategory)
}

func (s *ImportService) findOrCreate(ctx context.Context, name string) (*entity.Category, error) {
	category, err := s.categoryRepo.GetByNameInsensitive(ctx, name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, repository.ErrCategoryNotFound) {
		return nil, err
	}

	category = &entity.Category{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	err = s.categoryRepo.Create(ctx, category)
	if err == nil {
		logger.Info().Str("category", name).Msg("Created category")
		metrics.CategoriesCreatedTotal.WithLabelValues(serviceName).Inc()
		return category, nil
	}

	// Гонка с параллельным создателем: категория появилась между lookup и insert
	if errors.Is(err, repository.ErrCategoryAlreadyExists) {
		return s.categoryRepo.GetByNameInsensitive(ctx, name)
	}

	return nil, err
}

// fetchImage скачивает и сохраняет изображение, возвращает путь в media
// Пустая строка означает, что изображение получить не удалось
func (s *ImportService) fetchImage(ctx context.Context, imageURL string, productName string) string {
	data, err := s.images.Fetch(ctx, imageURL)
	if err != nil {
		logger.Warn().Err(err).Str("product", productName).Msg("Failed to download image")
		metrics.RecordImageFetch(serviceName, false)
		return ""
	}

	filename := ImageFileName(imageURL, productName)
	path, err := s.media.Save(filename, data)
	if err != nil {
		logger.Warn().Err(err).Str("product", productName).Msg("Failed to store image")
		metrics.RecordImageFetch(serviceName, false)
		return ""
	}

	metrics.RecordImageFetch(serviceName, true)
	return path
}

// publishImported отправляет событие PRODUCT_IMPORTED в Kafka (best-effort)
func (s *ImportService) publishImported(ctx context.Context, product *entity.Product) {
	if s.producer == nil {
		return
	}

	event := entity.ProductEvent{
		EventType:  entity.EventProductImported,
		ProductID:  product.ID,
		Name:       product.Name,
		Price:      product.Price,
		CategoryID: product.CategoryID,
		Timestamp:  time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to marshal product event")
		return
	}

	if err := s.producer.PublishMessage(ctx, product.Name, data); err != nil {
		// Товар уже сохранен, проблемы с Kafka не критичны
		logger.Warn().Err(err).Str("product", product.Name).Msg("Failed to publish product event")
		metrics.RecordKafkaError(serviceName, "product_events", "produce")
		return
	}

	metrics.RecordKafkaMessageProduced(serviceName, "product_events")
}

// ParsePrice извлекает цену из зашумленной строки ("$1,299.99" -> 1299.99)
// Непарсибельное значение дает 0, запись никогда не отклоняется из-за цены
func ParsePrice(raw string) decimal.Decimal {
	cleaned := nonPriceChars.ReplaceAllString(raw, "")
	if cleaned == "" {
		return decimal.Zero
	}

	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return price
}

// buildDescription собирает описание из key_features
func buildDescription(features []string) string {
	if len(features) == 0 {
		return defaultDescription
	}
	return strings.Join(features, " ")
}
