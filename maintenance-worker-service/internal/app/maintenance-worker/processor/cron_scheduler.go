package processor

import (
	"context"
	"log"

	"techcatalog/maintenance-worker-service/internal/app/maintenance-worker/service"
	"techcatalog/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CronScheduler запускает периодическую чистку дубликатов категорий
type CronScheduler struct {
	cron       *cron.Cron
	cleanupSvc service.CleanupServiceInterface
}

func NewCronScheduler(cleanupSvc service.CleanupServiceInterface) *CronScheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(log.Default())))

	return &CronScheduler{
		cron:       c,
		cleanupSvc: cleanupSvc,
	}
}

func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting cron scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		logger.Info().Msg("Cron job triggered: merging duplicate categories")

		if _, err := s.cleanupSvc.MergeDuplicateCategories(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to merge duplicate categories")
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("Cron scheduler started")

	// Первый прогон сразу: чтобы не ждать ночи после деплоя
	logger.Info().Msg("Performing initial category cleanup...")
	if _, err := s.cleanupSvc.MergeDuplicateCategories(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed initial category cleanup")
	}

	return nil
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
