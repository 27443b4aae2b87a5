package services

import (
	"context"
	"log"
	"sync"
	"time"

	"pos-backend/internal/locks"
	"pos-backend/internal/timeutil"
)

const sweepLockKey = "sweep:global"

// Scheduler runs the reconciliation sweep on a fixed interval. When several
// replicas share a distributed Locker only one of them sweeps per tick.
type Scheduler struct {
	coordinator *Coordinator
	clock       timeutil.Clock
	interval    time.Duration
	locker      locks.Locker

	stopChan chan struct{}
	wg       sync.WaitGroup
	cancel   context.CancelFunc

	mu         sync.Mutex
	lastReport *SweepReport
}

func NewScheduler(coordinator *Coordinator, clock timeutil.Clock, interval time.Duration, locker locks.Locker) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Scheduler{
		coordinator: coordinator,
		clock:       clock,
		interval:    interval,
		locker:      locker,
		stopChan:    make(chan struct{}),
	}
}

// Start sweeps once immediately, then every interval until Stop.
func (s *Scheduler) Start() {
	log.Printf("[Scheduler] Starting reconciliation sweep every %s", s.interval)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunOnce(ctx)
			case <-s.stopChan:
				log.Println("[Scheduler] Stopping reconciliation sweep...")
				return
			}
		}
	}()
}

// Stop cancels an in-flight sweep between entities and waits for the loop
// to exit.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// RunOnce performs one sweep as of the clock's current time. It returns nil
// when another replica holds the sweep lock.
func (s *Scheduler) RunOnce(ctx context.Context) *SweepReport {
	if s.locker != nil {
		lockCtx, cancel := context.WithTimeout(ctx, s.interval/2)
		unlock, err := s.locker.Lock(lockCtx, sweepLockKey)
		cancel()
		if err != nil {
			log.Printf("[Scheduler] Sweep skipped, lock not acquired: %v", err)
			return nil
		}
		defer unlock()
	}

	report := s.coordinator.Tick(ctx, s.clock.Now())
	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()
	return report
}

// LastReport returns the report of the most recent sweep, or nil.
func (s *Scheduler) LastReport() *SweepReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}
