package jobs

import (
	"context"
	"time"

	"momo-proxy-backend/internal/logger"
	"momo-proxy-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	timeout  time.Duration
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Processor service.ProcessorService
	Sweeper   service.SweeperService
}

// NewJobRunner creates a new job runner. Each job run gets its own context
// bounded by timeout.
func NewJobRunner(services *Services, timeout time.Duration) *JobRunner {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &JobRunner{
		services: services,
		timeout:  timeout,
	}
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context)) {
	log := logger.WithJob(jobName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()

	start := time.Now()
	log.Debug("Starting job")
	jobFunc(ctx)
	log.Debug("Job completed", "duration_ms", time.Since(start).Milliseconds())
}

// ProcessQueue claims and executes one batch of pending work items
func (jr *JobRunner) ProcessQueue() {
	jr.runWithRecovery("ProcessQueue", func(ctx context.Context) {
		result, err := jr.services.Processor.ProcessBatch(ctx)
		if err != nil {
			logger.Error("Failed to process queue", "error", err)
			return
		}
		if result.Claimed > 0 {
			logger.Info("Processed work items",
				"claimed", result.Claimed,
				"processed", result.Processed,
				"failed", result.Failed,
			)
		}
	})
}

// SweepStale fails transactions that never received a confirmation
func (jr *JobRunner) SweepStale() {
	jr.runWithRecovery("SweepStale", func(ctx context.Context) {
		count, err := jr.services.Sweeper.SweepStale(ctx)
		if err != nil {
			logger.Error("Failed to sweep stale transactions", "error", err)
			return
		}
		if count > 0 {
			logger.Info("Swept stale transactions", "count", count)
		}
	})
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.ProcessQueue()
	jr.SweepStale()
}
