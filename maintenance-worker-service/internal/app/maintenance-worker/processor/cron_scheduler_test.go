package processor

import (
	"context"
	"errors"
	"io"
	"testing"

	"techcatalog/maintenance-worker-service/internal/app/maintenance-worker/entity"
	"techcatalog/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func init() {
	logger.InitWithWriter("maintenance-worker-test", "debug", io.Discard)
}

// MockCleanupService мок для CleanupServiceInterface
type MockCleanupService struct {
	mock.Mock
}

func (m *MockCleanupService) MergeDuplicateCategories(ctx context.Context) (*entity.MergeReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.MergeReport), args.Error(1)
}

func (m *MockCleanupService) InvalidateCategoryCache(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestNewCronScheduler(t *testing.T) {
	mockSvc := new(MockCleanupService)

	scheduler := NewCronScheduler(mockSvc)

	assert.NotNil(t, scheduler)
	assert.NotNil(t, scheduler.cron)
	assert.Equal(t, mockSvc, scheduler.cleanupSvc)
}

func TestCronScheduler_Start_Success(t *testing.T) {
	mockSvc := new(MockCleanupService)
	scheduler := NewCronScheduler(mockSvc)

	ctx := context.Background()

	// Первый прогон чистки выполняется сразу при старте
	mockSvc.On("MergeDuplicateCategories", mock.Anything).Return(&entity.MergeReport{}, nil)

	err := scheduler.Start(ctx, "30 3 * * *")

	assert.NoError(t, err)
	assert.Len(t, scheduler.GetEntries(), 1)

	scheduler.Stop()
	mockSvc.AssertExpectations(t)
}

func TestCronScheduler_Start_InvalidSchedule(t *testing.T) {
	mockSvc := new(MockCleanupService)
	scheduler := NewCronScheduler(mockSvc)

	err := scheduler.Start(context.Background(), "not a cron expression")

	assert.Error(t, err)
}

func TestCronScheduler_Start_InitialCleanupError_ContinuesWork(t *testing.T) {
	mockSvc := new(MockCleanupService)
	scheduler := NewCronScheduler(mockSvc)

	mockSvc.On("MergeDuplicateCategories", mock.Anything).
		Return(nil, errors.New("database unavailable"))

	err := scheduler.Start(context.Background(), "30 3 * * *")

	// Планировщик стартует даже если первый прогон не удался
	assert.NoError(t, err)
	assert.Len(t, scheduler.GetEntries(), 1)

	scheduler.Stop()
}
