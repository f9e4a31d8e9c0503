package cache

import (
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

var errInvalidInterval = errors.New("sweep interval must be positive")

// Sweeper periodically drops stale entries so idle regions do not hold memory forever.
// It is optional; without it expiry stays lazy.
type Sweeper struct {
	scheduler *gocron.Scheduler
	store     Store
	interval  time.Duration
	now       func() time.Time
	logger    *zap.SugaredLogger
}

func NewSweeper(store Store, interval time.Duration, logger *zap.SugaredLogger) *Sweeper {
	return &Sweeper{
		scheduler: gocron.NewScheduler(time.UTC),
		store:     store,
		interval:  interval,
		now:       time.Now,
		logger:    logger,
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (s *Sweeper) Start() error {
	if s.interval <= 0 {
		return errInvalidInterval
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.sweepOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Infow("Cache sweeper started", "interval", s.interval)
	return nil
}

// Stop stops the scheduler and cancels any future sweeps.
func (s *Sweeper) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Sweeper) sweepOnce() {
	removed := s.store.Sweep(s.now())
	if removed > 0 {
		s.logger.Infow("Swept expired cache entries", "removed", removed, "remaining", s.store.Len())
	}
}
