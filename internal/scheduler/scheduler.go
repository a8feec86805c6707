package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const minTaskTimeout = time.Second

// Task is the unit of work run on every tick.
type Task func(context.Context) error

// Scheduler runs a Task immediately on Start and then every interval.
type Scheduler struct {
	name      string
	logger    *zap.Logger
	interval  time.Duration
	task      Task
	stopCh    chan struct{}
	doneCh    chan struct{}
	isRunning bool
	lastRun   time.Time
	lastErr   error
	mu        sync.RWMutex
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(name string, logger *zap.Logger, interval time.Duration, task Task) *Scheduler {
	return &Scheduler{
		name:     name,
		logger:   logger.With(zap.String("scheduler", name)),
		interval: interval,
		task:     task,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return ErrSchedulerAlreadyRunning
	}

	s.isRunning = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.run(ctx, s.stopCh, s.doneCh)

	s.logger.Info("Scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop halts the scheduler and waits for the running task to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.isRunning = false
	s.mu.Unlock()

	close(stopCh)
	<-doneCh

	s.logger.Info("Scheduler stopped")
	return nil
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// LastRun returns when the task last finished and the error it returned.
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun, s.lastErr
}

func (s *Scheduler) run(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	defer func() {
		s.mu.Lock()
		// A Stop followed by a new Start already owns the state.
		if s.doneCh == doneCh {
			s.isRunning = false
		}
		s.mu.Unlock()
	}()

	s.executeTask(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler context canceled")
			return
		case <-stopCh:
			s.logger.Info("Scheduler stop signal received")
			return
		case <-ticker.C:
			s.executeTask(ctx)
		}
	}
}

func (s *Scheduler) executeTask(ctx context.Context) {
	timeout := s.interval - time.Second
	if timeout < minTaskTimeout {
		timeout = s.interval
	}

	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := s.task(taskCtx)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Task execution failed", zap.Error(err))
		return
	}
	s.logger.Debug("Task execution completed")
}
