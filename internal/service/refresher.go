package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const refresherPassTimeout = 30 * time.Second

// RefresherService periodically re-runs resolution for contacts whose
// records have gone stale, so directory and social-graph changes converge
// without user action. Passes are monotonic, so a sweep can never corrupt
// previously persisted fields.
type RefresherService struct {
	resolver *Resolver
	logger   *zap.Logger

	interval time.Duration
	maxAge   time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewRefresherService(resolver *Resolver, interval time.Duration, logger *zap.Logger) *RefresherService {
	return &RefresherService{
		resolver: resolver,
		logger:   logger,
		interval: interval,
		maxAge:   24 * time.Hour,
		stopCh:   make(chan struct{}),
	}
}

func (s *RefresherService) SetMaxAge(d time.Duration) {
	s.maxAge = d
}

// Start runs the refresher on a periodic schedule in a background goroutine.
func (s *RefresherService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("contact refresher started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				s.run(context.Background())
			case <-s.stopCh:
				s.logger.Info("contact refresher stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the refresher.
func (s *RefresherService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *RefresherService) run(ctx context.Context) {
	listCtx, cancel := context.WithTimeout(ctx, refresherPassTimeout)
	contacts, err := s.resolver.contacts.ListAll(listCtx)
	cancel()
	if err != nil {
		s.logger.Error("failed to list contacts for refresh", zap.Error(err))
		return
	}

	cutoff := time.Now().Add(-s.maxAge)
	refreshed := 0
	for _, c := range contacts {
		if c.UpdatedAt.After(cutoff) {
			continue
		}

		passCtx, cancel := context.WithTimeout(ctx, refresherPassTimeout)
		_, err := s.resolver.Resolve(passCtx, c.InboxID)
		cancel()
		if err != nil {
			s.logger.Warn("background resolution failed",
				zap.String("inbox_id", c.InboxID), zap.Error(err))
			continue
		}
		refreshed++
	}

	if refreshed > 0 {
		s.logger.Info("refreshed stale contacts", zap.Int("count", refreshed))
	}
}
