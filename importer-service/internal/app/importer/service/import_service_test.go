package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"techcatalog/importer-service/internal/app/importer/entity"
	"techcatalog/importer-service/internal/app/importer/repository"
	"techcatalog/importer-service/internal/app/importer/repository/mocks"
	"techcatalog/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitWithWriter("importer-test", "debug", io.Discard)
}

// Хелперы для создания тестовых данных

type testDeps struct {
	categoryRepo *mocks.MockCategoryRepository
	productRepo  *mocks.MockProductRepository
	runRepo      *mocks.MockRunRepository
	media        *mocks.MockMediaStore
	images       *mocks.MockImageFetcher
	producer     *mocks.MockMessagePublisher
}

func newTestService() (*ImportService, *testDeps) {
	deps := &testDeps{
		categoryRepo: new(mocks.MockCategoryRepository),
		productRepo:  new(mocks.MockProductRepository),
		runRepo:      new(mocks.MockRunRepository),
		media:        new(mocks.MockMediaStore),
		images:       new(mocks.MockImageFetcher),
		producer:     new(mocks.MockMessagePublisher),
	}
	svc := NewImportService(
		deps.categoryRepo, deps.productRepo, deps.runRepo,
		deps.media, deps.images, deps.producer,
	)
	return svc, deps
}

func newTestCategory(name string) *entity.Category {
	return &entity.Category{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now(),
	}
}

func writeBatchFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportService_Run_EndToEnd(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, deps := newTestService()

	batch := writeBatchFile(t, `[{"title":"Acme Phone X","price":"$499","key_features":["Type: Smart Phones","5G"]}]`)

	deps.categoryRepo.On("GetByNameInsensitive", ctx, "Smartphones").
		Return(nil, repository.ErrCategoryNotFound).Once()
	deps.categoryRepo.On("Create", ctx, mock.AnythingOfType("*entity.Category")).Return(nil)

	persisted := &entity.Product{ID: uuid.New(), Name: "Acme Phone X"}
	deps.productRepo.On("UpsertByName", ctx, mock.MatchedBy(func(p *entity.Product) bool {
		return p.Name == "Acme Phone X" &&
			p.Price.Equal(decimal.RequireFromString("499")) &&
			p.ShortDescription == "Type: Smart Phones 5G" &&
			p.InStock
	})).Return(persisted, nil)
	deps.producer.On("PublishMessage", ctx, "Acme Phone X", mock.Anything).Return(nil)
	deps.runRepo.On("Save", ctx, mock.AnythingOfType("*entity.ImportRun")).Return(nil)

	// Act
	run, err := svc.Run(ctx, batch)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, run.Total())
	assert.Equal(t, 1, run.Imported)
	assert.Equal(t, 0, run.WithImage)
	assert.Equal(t, entity.OutcomeImportedWithoutImage, run.Results[0].Outcome)
	assert.Equal(t, "Smartphones", run.Results[0].Category)

	// Категория создается с именем, нормализованным из "Smart Phones"
	deps.categoryRepo.AssertCalled(t, "Create", ctx, mock.MatchedBy(func(c *entity.Category) bool {
		return c.Name == "Smartphones"
	}))
	deps.productRepo.AssertExpectations(t)
	deps.producer.AssertExpectations(t)
}

func TestImportService_Run_ReusesCategoryCaseInsensitive(t *testing.T) {
	// Два товара с категориями, отличающимися только регистром,
	// должны переиспользовать одну запись категории
	ctx := context.Background()
	svc, deps := newTestService()

	batch := writeBatchFile(t, `[
		{"title":"Gadget One","price":"10","category":"widget gear"},
		{"title":"Gadget Two","price":"20","category":"WIDGET GEAR"}
	]`)

	existing := newTestCategory("Widget Gear")
	deps.categoryRepo.On("GetByNameInsensitive", ctx, "Widget Gear").
		Return(nil, repository.ErrCategoryNotFound).Once()
	deps.categoryRepo.On("Create", ctx, mock.AnythingOfType("*entity.Category")).Return(nil).Once()
	deps.categoryRepo.On("GetByNameInsensitive", ctx, "Widget Gear").
		Return(existing, nil).Once()

	deps.productRepo.On("UpsertByName", ctx, mock.Anything).
		Return(&entity.Product{ID: uuid.New()}, nil)
	deps.producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)
	deps.runRepo.On("Save", ctx, mock.Anything).Return(nil)

	run, err := svc.Run(ctx, batch)

	require.NoError(t, err)
	assert.Equal(t, 2, run.Imported)
	deps.categoryRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestImportService_Run_SkipsMissingName(t *testing.T) {
	ctx := context.Background()
	svc, deps := newTestService()

	batch := writeBatchFile(t, `[{"price":"99","key_features":["Type: Tablet"]}]`)
	deps.runRepo.On("Save", ctx, mock.Anything).Return(nil)

	run, err := svc.Run(ctx, batch)

	require.NoError(t, err)
	assert.Equal(t, 1, run.Skipped)
	assert.Equal(t, entity.OutcomeSkippedMissingName, run.Results[0].Outcome)
	deps.productRepo.AssertNotCalled(t, "UpsertByName")
}

func TestImportService_Run_SkipsInvalidEntry(t *testing.T) {
	// Кривой элемент пропускается, остальные записи обрабатываются
	ctx := context.Background()
	svc, deps := newTestService()

	batch := writeBatchFile(t, `[42, {"title":"Real Product","price":"5","category":"laptop"}]`)

	deps.categoryRepo.On("GetByNameInsensitive", ctx, "Laptops").
		Return(newTestCategory("Laptops"), nil)
	deps.productRepo.On("UpsertByName", ctx, mock.Anything).
		Return(&entity.Product{ID: uuid.New(), Name: "Real Product"}, nil)
	deps.producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)
	deps.runRepo.On("Save", ctx, mock.Anything).Return(nil)

	run, err := svc.Run(ctx, batch)

	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeSkippedInvalid, run.Results[0].Outcome)
	assert.Equal(t, 1, run.Imported)
	assert.Equal(t, 1, run.Skipped)
}

func TestImportService_Run_ImageFetchFailureFallsBack(t *testing.T) {
	// Недоступное изображение деградирует до импорта без изображения
	ctx := context.Background()
	svc, deps := newTestService()

	batch := writeBatchFile(t, `[
		{"title":"Cam A","price":"100","category":"gadget","image_url":"http://img.local/a.jpg"},
		{"title":"Cam B","price":"200","category":"gadget"}
	]`)

	deps.categoryRepo.On("GetByNameInsensitive", ctx, "Gadget").
		Return(newTestCategory("Gadget"), nil)
	deps.images.On("Fetch", ctx, "http://img.local/a.jpg").
		Return(nil, errors.New("status 404"))
	deps.productRepo.On("UpsertByName", ctx, mock.Anything).
		Return(&entity.Product{ID: uuid.New()}, nil)
	deps.producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)
	deps.runRepo.On("Save", ctx, mock.Anything).Return(nil)

	run, err := svc.Run(ctx, batch)

	require.NoError(t, err)
	assert.Equal(t, 2, run.Imported)
	assert.Equal(t, 0, run.WithImage)
	assert.Equal(t, entity.OutcomeImportedWithoutImage, run.Results[0].Outcome)
	// Путь изображения не выставляется при неудачной загрузке
	deps.productRepo.AssertNotCalled(t, "UpdateImagePath")
}

func TestImportService_Run_ImageAttached(t *testing.T) {
	ctx := context.Background()
	svc, deps := newTestService()

	batch := writeBatchFile(t, `[{"title":"Cam A","price":"100","category":"gadget","image_url":"http://img.local/a.jpg"}]`)

	deps.categoryRepo.On("GetByNameInsensitive", ctx, "Gadget").
		Return(newTestCategory("Gadget"), nil)
	deps.images.On("Fetch", ctx, "http://img.local/a.jpg").
		Return([]byte{0xFF, 0xD8}, nil)
	deps.media.On("Save", "a.jpg", []byte{0xFF, 0xD8}).
		Return("products/a.jpg", nil)
	deps.productRepo.On("UpsertByName", ctx, mock.Anything).
		Return(&entity.Product{ID: uuid.New(), Name: "Cam A"}, nil)
	deps.productRepo.On("UpdateImagePath", ctx, "Cam A", "products/a.jpg").Return(nil)
	deps.producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)
	deps.runRepo.On("Save", ctx, mock.Anything).Return(nil)

	run, err := svc.Run(ctx, batch)

	require.NoError(t, err)
	assert.Equal(t, 1, run.WithImage)
	assert.Equal(t, entity.OutcomeImportedWithImage, run.Results[0].Outcome)
	deps.productRepo.AssertExpectations(t)
}

func TestImportService_Run_UpsertFailureContinuesBatch(t *testing.T) {
	// Ошибка сохранения одной записи не прерывает обработку остальных
	ctx := context.Background()
	svc, deps := newTestService()

	batch := writeBatchFile(t, `[
		{"title":"Broken","price":"1","category":"gadget"},
		{"title":"Fine","price":"2","category":"gadget"}
	]`)

	deps.categoryRepo.On("GetByNameInsensitive", ctx, "Gadget").
		Return(newTestCategory("Gadget"), nil)
	deps.productRepo.On("UpsertByName", ctx, mock.MatchedBy(func(p *entity.Product) bool {
		return p.Name == "Broken"
	})).Return(nil, errors.New("db error"))
	deps.productRepo.On("UpsertByName", ctx, mock.MatchedBy(func(p *entity.Product) bool {
		return p.Name == "Fine"
	})).Return(&entity.Product{ID: uuid.New(), Name: "Fine"}, nil)
	deps.producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)
	deps.runRepo.On("Save", ctx, mock.Anything).Return(nil)

	run, err := svc.Run(ctx, batch)

	require.NoError(t, err)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, 1, run.Imported)
	assert.Equal(t, entity.OutcomeFailed, run.Results[0].Outcome)
	assert.Equal(t, entity.OutcomeImportedWithoutImage, run.Results[1].Outcome)
}

func TestImportService_Run_CategoryErrorFallsBackToMiscellaneous(t *testing.T) {
	ctx := context.Background()
	svc, deps := newTestService()

	batch := writeBatchFile(t, `[{"title":"Tab Z","price":"300","category":"tablet"}]`)

	misc := newTestCategory("Miscellaneous")
	deps.categoryRepo.On("GetByNameInsensitive", ctx, "Tablets").
		Return(nil, errors.New("connection refused"))
	deps.categoryRepo.On("GetByNameInsensitive", ctx, "Miscellaneous").
		Return(misc, nil)
	deps.productRepo.On("UpsertByName", ctx, mock.MatchedBy(func(p *entity.Product) bool {
		return p.CategoryID == misc.ID
	})).Return(&entity.Product{ID: uuid.New()}, nil)
	deps.producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)
	deps.runRepo.On("Save", ctx, mock.Anything).Return(nil)

	run, err := svc.Run(ctx, batch)

	require.NoError(t, err)
	assert.Equal(t, 1, run.Imported)
	assert.Equal(t, "Miscellaneous", run.Results[0].Category)
}

func TestImportService_Run_KafkaFailureIgnored(t *testing.T) {
	ctx := context.Background()
	svc, deps := newTestService()

	batch := writeBatchFile(t, `[{"title":"Tab Z","price":"300","category":"tablet"}]`)

	deps.categoryRepo.On("GetByNameInsensitive", ctx, "Tablets").
		Return(newTestCategory("Tablets"), nil)
	deps.productRepo.On("UpsertByName", ctx, mock.Anything).
		Return(&entity.Product{ID: uuid.New()}, nil)
	deps.producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).
		Return(errors.New("kafka down"))
	deps.runRepo.On("Save", ctx, mock.Anything).Return(nil)

	run, err := svc.Run(ctx, batch)

	// Товар сохранен, проблемы с Kafka не влияют на исход записи
	require.NoError(t, err)
	assert.Equal(t, 1, run.Imported)
}

func TestImportService_Run_ProductsWrapperObject(t *testing.T) {
	ctx := context.Background()
	svc, deps := newTestService()

	batch := writeBatchFile(t, `{"products":[{"title":"Tab Z","price":"300","category":"tablet"}]}`)

	deps.categoryRepo.On("GetByNameInsensitive", ctx, "Tablets").
		Return(newTestCategory("Tablets"), nil)
	deps.productRepo.On("UpsertByName", ctx, mock.Anything).
		Return(&entity.Product{ID: uuid.New()}, nil)
	deps.producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)
	deps.runRepo.On("Save", ctx, mock.Anything).Return(nil)

	run, err := svc.Run(ctx, batch)

	require.NoError(t, err)
	assert.Equal(t, 1, run.Imported)
}

func TestImportService_Run_MissingFileIsFatal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	run, err := svc.Run(ctx, filepath.Join(t.TempDir(), "no-such-file.json"))

	assert.Nil(t, run)
	assert.ErrorIs(t, err, ErrBatchUnreadable)
}

func TestImportService_Run_MalformedInputIsFatal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{{{`},
		{"object without products", `{"items":[]}`},
		{"scalar", `"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, err := svc.Run(ctx, writeBatchFile(t, tt.content))
			assert.Nil(t, run)
			assert.ErrorIs(t, err, ErrBatchMalformed)
		})
	}
}

func TestImportService_Run_HistorySaveFailureIgnored(t *testing.T) {
	ctx := context.Background()
	svc, deps := newTestService()

	batch := writeBatchFile(t, `[]`)
	deps.runRepo.On("Save", ctx, mock.Anything).Return(errors.New("mongo down"))

	run, err := svc.Run(ctx, batch)

	require.NoError(t, err)
	assert.Equal(t, 0, run.Total())
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"$1,299.99", "1299.99"},
		{"$499", "499"},
		{"499.50 USD", "499.5"},
		{"N/A", "0"},
		{"", "0"},
		{"free", "0"},
		{"1.2.3", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			expected := decimal.RequireFromString(tt.expected)
			assert.True(t, ParsePrice(tt.raw).Equal(expected),
				"ParsePrice(%q) = %s, want %s", tt.raw, ParsePrice(tt.raw), expected)
		})
	}
}
