package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/homenav/internal/domain"
	"github.com/MrSnakeDoc/homenav/internal/logger"
)

// DiscoveryRunner is the part of the catalog the scheduler drives.
type DiscoveryRunner interface {
	RunDiscovery(ctx context.Context) (domain.DiscoveryStatus, error)
}

// DiscoveryScheduler runs discovery once at start (optional), then every
// interval (0 disables the ticker) and whenever Trigger is signalled.
type DiscoveryScheduler struct {
	runner   DiscoveryRunner
	logger   logger.Logger
	interval time.Duration
	onStart  bool
	trigger  chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewDiscoveryScheduler(runner DiscoveryRunner, log logger.Logger, interval time.Duration, onStart bool) *DiscoveryScheduler {
	return &DiscoveryScheduler{
		runner:   runner,
		logger:   log,
		interval: interval,
		onStart:  onStart,
		trigger:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// Trigger requests an asynchronous run. It returns false when a request is
// already pending.
func (s *DiscoveryScheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Start runs the startup discovery synchronously, then hands over to the
// background loop. Discovery failures are logged, never returned: a host
// without systemctl or ss still serves its catalog.
func (s *DiscoveryScheduler) Start(ctx context.Context) {
	if s.onStart {
		s.run(ctx, "startup")
	}

	var ticker *time.Ticker
	var tick <-chan time.Time
	if s.interval > 0 {
		ticker = time.NewTicker(s.interval)
		tick = ticker.C
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if ticker != nil {
			defer ticker.Stop()
		}
		s.loop(ctx, tick)
	}()
}

func (s *DiscoveryScheduler) loop(ctx context.Context, tick <-chan time.Time) {
	for {
		select {
		case <-tick:
			s.run(ctx, "interval")
		case <-s.trigger:
			s.run(ctx, "manual")
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends the background loop and waits for an in-flight run to finish.
func (s *DiscoveryScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *DiscoveryScheduler) run(ctx context.Context, reason string) {
	start := time.Now()
	summary, err := s.runner.RunDiscovery(ctx)
	if err != nil {
		s.logger.Error("discovery run failed",
			logger.String("trigger", reason),
			logger.Error(err))
		return
	}
	s.logger.Info("discovery run complete",
		logger.String("trigger", reason),
		logger.Int("added", summary.Added),
		logger.Int("updated", summary.Updated),
		logger.Int("unchanged", summary.Unchanged),
		logger.Duration("took", time.Since(start)))
}
