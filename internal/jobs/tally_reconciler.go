package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"mlm-platform/internal/metrics"
	"mlm-platform/internal/services"
)

const tallyJobName = "tally_reconcile"

// TallyReconciler periodically rebuilds the level counters from the
// referral tree, repairing increments lost to truncated upline walks.
type TallyReconciler struct {
	tally     *services.TallyService
	interval  time.Duration
	timeout   time.Duration
	scheduler gocron.Scheduler
}

// NewTallyReconciler creates a reconciler job. Each run is bounded by the interval.
func NewTallyReconciler(tally *services.TallyService, interval time.Duration) *TallyReconciler {
	return &TallyReconciler{
		tally:    tally,
		interval: interval,
		timeout:  interval,
	}
}

// Start schedules the job, running it once immediately
func (r *TallyReconciler) Start() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(r.run),
		gocron.WithName(tallyJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", tallyJobName, err)
	}

	scheduler.Start()
	r.scheduler = scheduler
	zap.L().Info("Tally reconciler started", zap.Duration("interval", r.interval))
	return nil
}

// Stop waits for a running reconcile to finish and shuts the scheduler down
func (r *TallyReconciler) Stop() error {
	if r.scheduler == nil {
		return nil
	}
	zap.L().Info("Stopping tally reconciler")
	return r.scheduler.Shutdown()
}

func (r *TallyReconciler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	_ = r.RunOnce(ctx)
}

// RunOnce reconciles the tally now and records the run
func (r *TallyReconciler) RunOnce(ctx context.Context) error {
	start := time.Now()
	updated, err := r.tally.Reconcile(ctx)
	metrics.RecordJobRun(tallyJobName, time.Since(start), err == nil)

	if err != nil {
		zap.L().Error("Tally reconcile failed", zap.Int("members", updated), zap.Error(err))
		return err
	}
	return nil
}
