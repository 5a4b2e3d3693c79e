package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/changerequest"
	"github.com/velora-hq/velora-hcm/pkg/composables"
)

type ApplyDecision string

const (
	DecisionImmediate ApplyDecision = "immediate"
	DecisionDeferred  ApplyDecision = "deferred"
)

type SweepStats struct {
	Due            int
	Applied        int
	AlreadyApplied int
	Failed         int
}

// SchedulerService owns the immediate-vs-deferred decision for decided
// requests and the recurring sweep that picks up deferred ones once
// their effective date arrives. Both paths funnel into the same
// idempotent apply, so racing them is safe.
type SchedulerService struct {
	requests  changerequest.Repository
	applier   *ApplierService
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewSchedulerService(
	requests changerequest.Repository,
	applier *ApplierService,
	interval time.Duration,
	batchSize int,
) *SchedulerService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	return &SchedulerService{
		requests:  requests,
		applier:   applier,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Decide applies the request now when its effective date is today or in
// the past; otherwise it leaves the request for the sweep. The date
// comparison is date-only in UTC.
func (s *SchedulerService) Decide(ctx context.Context, req *changerequest.ChangeRequest) (ApplyDecision, error) {
	if dayUTC(req.EffectiveDate).After(dayUTC(s.now())) {
		return DecisionDeferred, nil
	}
	if _, err := s.applier.Apply(ctx, req); err != nil {
		return DecisionImmediate, err
	}
	return DecisionImmediate, nil
}

// RunSweep finds due-but-unapplied requests across all tenants and
// applies each under its own tenant scope. A failed apply is logged and
// counted; the sweep moves on and the request stays due for the next
// pass. Cancellation is honored between requests, never mid-apply.
func (s *SchedulerService) RunSweep(ctx context.Context) (SweepStats, error) {
	log := composables.UseLogger(ctx)
	var stats SweepStats

	due, err := s.requests.ListDue(ctx, dayUTC(s.now()), s.batchSize)
	if err != nil {
		return stats, err
	}
	stats.Due = len(due)
	lifecycleSweepDue.Observe(float64(len(due)))

	for _, req := range due {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		reqCtx := composables.WithTenantID(ctx, req.TenantID)
		result, err := s.applier.Apply(reqCtx, req)
		switch {
		case err != nil:
			stats.Failed++
			log.WithFields(logrus.Fields{
				"request_id": req.ID,
				"tenant_id":  req.TenantID,
				"kind":       req.Kind,
			}).WithError(err).Error("sweep failed to apply change request")
		case result == ResultAlreadyApplied:
			stats.AlreadyApplied++
		default:
			stats.Applied++
		}
	}

	lifecycleSweepRuns.Inc()
	log.WithFields(logrus.Fields{
		"due":             stats.Due,
		"applied":         stats.Applied,
		"already_applied": stats.AlreadyApplied,
		"failed":          stats.Failed,
	}).Info("lifecycle sweep finished")
	return stats, nil
}

// Start runs one sweep immediately, then once per interval until the
// context is cancelled.
func (s *SchedulerService) Start(ctx context.Context) {
	log := composables.UseLogger(ctx)
	if _, err := s.RunSweep(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Error("initial lifecycle sweep failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunSweep(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("lifecycle sweep failed")
			}
		}
	}
}
