/*
scheduler.go - Automated periodic backup

PURPOSE:
  Periodically uploads the ledger so a lost device costs at most one
  interval of edits. Manual save/load through the API keeps working.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Skips the upload when nothing changed since the last successful save
  - Skips silently when the ledger is empty (ErrNothingToSave)

CONFIGURATION:
  - Interval: BACKUP_INTERVAL (default: 1 hour, 0 disables)

USAGE:
  scheduler := backup.NewScheduler(service, time.Hour, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - backup.go: Service.SaveIfChanged
  - cmd/tracker/serve.go: Starts the scheduler next to the HTTP server
*/
package backup

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Scheduler saves backups on a fixed interval.
type Scheduler struct {
	Service  *Service
	Interval time.Duration

	log    logrus.FieldLogger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewScheduler(service *Service, interval time.Duration, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		Service:  service,
		Interval: interval,
		log:      log,
	}
}

// Start begins the scheduler. A non-positive interval leaves it disabled.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Interval <= 0 {
		s.log.Info("backup scheduler disabled")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run()

	s.log.WithField("interval", s.Interval).Info("backup scheduler started")
}

// Stop stops the scheduler and waits for a running save to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.log.Info("backup scheduler stopped")
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ticker.C:
			s.tick()
		case <-s.stop:
			return
		}
	}
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	saved, err := s.Service.SaveIfChanged(ctx)
	switch {
	case errors.Is(err, ErrNothingToSave):
		s.log.Debug("backup skipped: ledger empty")
	case err != nil:
		s.log.WithError(err).Error("scheduled backup failed")
	case !saved:
		s.log.Debug("backup skipped: no changes")
	}
}
