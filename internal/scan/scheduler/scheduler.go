package scheduler

import (
	"log"
	"time"

	"invoicescan-backend/internal/scan/usecase"
)

// StuckJobSweeper periodically fails running jobs that lost liveness
type StuckJobSweeper struct {
	scanUsecase usecase.ScanJobUsecase
	interval    time.Duration
	timeout     time.Duration
	stagnation  time.Duration
	stopChan    chan struct{}
}

// NewStuckJobSweeper creates a new sweeper
func NewStuckJobSweeper(scanUsecase usecase.ScanJobUsecase, interval, timeout, stagnation time.Duration) *StuckJobSweeper {
	return &StuckJobSweeper{
		scanUsecase: scanUsecase,
		interval:    interval,
		timeout:     timeout,
		stagnation:  stagnation,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the sweep loop
func (s *StuckJobSweeper) Start() {
	log.Printf("[Sweep] Starting stuck job sweeper (interval: %s, timeout: %s, stagnation: %s)",
		s.interval, s.timeout, s.stagnation)

	go func() {
		// Run immediately on start
		s.sweep()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				log.Println("[Sweep] Sweeper stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the sweeper
func (s *StuckJobSweeper) Stop() {
	close(s.stopChan)
}

func (s *StuckJobSweeper) sweep() {
	failed, err := s.scanUsecase.CleanupStuckJobs(s.timeout, s.stagnation)
	if err != nil {
		log.Printf("[Sweep] Error sweeping stuck jobs: %v", err)
		return
	}
	if failed > 0 {
		log.Printf("[Sweep] Failed %d stuck jobs", failed)
	}
}
