package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// WorkerService runs the daily rollover: yesterday's finished passes leave
// memory and the bell schedule is reloaded.
type WorkerService struct {
	store    *PassStore
	schedule *ScheduleMatcher
	logger   *zap.Logger
	clock    Clock
	location *time.Location
	hour     uint
	minute   uint
}

func NewWorkerService(store *PassStore, schedule *ScheduleMatcher, logger *zap.Logger, location *time.Location, hour, minute uint) *WorkerService {
	if location == nil {
		location = time.Local
	}
	return &WorkerService{
		store:    store,
		schedule: schedule,
		logger:   logger,
		clock:    SystemClock,
		location: location,
		hour:     hour,
		minute:   minute,
	}
}

// Start schedules the rollover job and blocks until ctx is cancelled.
func (w *WorkerService) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(w.location))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(w.hour, w.minute, 0))),
		gocron.NewTask(w.Rollover),
		gocron.WithName("daily-rollover"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("failed to schedule rollover: %w", err)
	}

	scheduler.Start()
	w.logger.Info("background worker started",
		zap.Uint("rollover_hour", w.hour),
		zap.Uint("rollover_minute", w.minute),
	)

	<-ctx.Done()
	if err := scheduler.Shutdown(); err != nil {
		w.logger.Warn("scheduler shutdown", zap.Error(err))
	}
	w.logger.Info("background worker stopped")
	return nil
}

// Rollover evicts terminal passes from before today and reloads periods.
func (w *WorkerService) Rollover() {
	cutoff := startOfDay(w.clock(), w.location)
	evicted := w.store.Evict(cutoff)

	if w.schedule != nil {
		if err := w.schedule.Reload(); err != nil {
			w.logger.Error("failed to reload period windows", zap.Error(err))
		}
	}
	w.logger.Info("daily rollover complete",
		zap.Int("evicted", evicted),
		zap.Time("cutoff", cutoff),
	)
}
