package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/velora-hq/velora-hcm/modules/hrm/domain/aggregates/employee"
	"github.com/velora-hq/velora-hcm/modules/hrm/domain/entities/rehireflag"
	"github.com/velora-hq/velora-hcm/modules/hrm/domain/entities/termination"
	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/changerequest"
	"github.com/velora-hq/velora-hcm/pkg/composables"
)

// dayUTC truncates to a date-only value in UTC. All effective-date and
// cool-off comparisons happen on these values so wall-clock time never
// shifts a verdict.
func dayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EligibilityService computes rehire verdicts. It only reads; absence
// of data is a verdict, never an error. The rules run in a fixed
// priority order and the first match wins.
type EligibilityService struct {
	employees    employee.Repository
	flags        rehireflag.Repository
	terminations termination.Repository
	coolOffDays  int
	now          func() time.Time
}

func NewEligibilityService(
	employees employee.Repository,
	flags rehireflag.Repository,
	terminations termination.Repository,
	coolOffDays int,
) *EligibilityService {
	if coolOffDays <= 0 {
		coolOffDays = 90
	}
	return &EligibilityService{
		employees:    employees,
		flags:        flags,
		terminations: terminations,
		coolOffDays:  coolOffDays,
		now:          time.Now,
	}
}

func (s *EligibilityService) Evaluate(ctx context.Context, subjectID uuid.UUID) (*changerequest.Verdict, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*changerequest.Verdict, error) {
		return s.evaluate(txCtx, subjectID)
	})
}

func (s *EligibilityService) evaluate(ctx context.Context, subjectID uuid.UUID) (*changerequest.Verdict, error) {
	now := s.now().UTC()
	today := dayUTC(now)

	if _, err := s.employees.GetByID(ctx, subjectID); err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			return verdict(changerequest.VerdictNeedsReview, changerequest.ReasonUnknownSubject, now), nil
		}
		return nil, err
	}

	flagged, err := s.flags.ActiveExists(ctx, subjectID, today)
	if err != nil {
		return nil, err
	}
	if flagged {
		return verdict(changerequest.VerdictIneligible, changerequest.ReasonDoNotRehireFlag, now), nil
	}

	latest, err := s.terminations.Latest(ctx, subjectID)
	if err != nil {
		if errors.Is(err, termination.ErrNoRecord) {
			return verdict(changerequest.VerdictNeedsReview, changerequest.ReasonNoTerminationRecord, now), nil
		}
		return nil, err
	}

	// A record without a last working day cannot prove the cool-off
	// has elapsed, so it never passes this rule.
	if latest.LastWorkingDay == nil {
		return verdict(changerequest.VerdictNeedsReview, changerequest.ReasonCoolOff, now), nil
	}
	elapsed := int(today.Sub(dayUTC(*latest.LastWorkingDay)).Hours() / 24)
	if elapsed < s.coolOffDays {
		return verdict(changerequest.VerdictNeedsReview, changerequest.ReasonCoolOff, now), nil
	}

	if latest.Type == termination.TypeCause {
		return verdict(changerequest.VerdictIneligible, changerequest.ReasonTerminatedForCause, now), nil
	}

	return verdict(changerequest.VerdictEligible, "", now), nil
}

func verdict(status changerequest.VerdictStatus, reason string, at time.Time) *changerequest.Verdict {
	return &changerequest.Verdict{Status: status, ReasonCode: reason, EvaluatedAt: at}
}
