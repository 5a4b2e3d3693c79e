package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/velora-hq/velora-hcm/modules/hrm/domain/aggregates/employee"
	"github.com/velora-hq/velora-hcm/modules/hrm/domain/entities/rehireflag"
	"github.com/velora-hq/velora-hcm/modules/hrm/domain/entities/termination"
	"github.com/velora-hq/velora-hcm/pkg/composables"
	"github.com/velora-hq/velora-hcm/pkg/serrors"
)

// TerminateInput captures an offboarding action for a single employee.
type TerminateInput struct {
	SubjectID        uuid.UUID
	Type             termination.Type
	Reason           string
	LastWorkingDay   *time.Time
	RaiseDoNotRehire bool
	FlagReason       string
	FlagExpiresAt    *time.Time
}

// OffboardingService records terminations and the rehire flags derived
// from them. All writes for one termination happen in one transaction.
type OffboardingService struct {
	employees    employee.Repository
	terminations termination.Repository
	flags        rehireflag.Repository
}

func NewOffboardingService(
	employees employee.Repository,
	terminations termination.Repository,
	flags rehireflag.Repository,
) *OffboardingService {
	return &OffboardingService{
		employees:    employees,
		terminations: terminations,
		flags:        flags,
	}
}

func (s *OffboardingService) Terminate(ctx context.Context, input TerminateInput) (*termination.Record, error) {
	if input.Type != termination.TypeCause && input.Type != termination.TypeOther {
		return nil, serrors.NewInvalidFieldError("Type", "must be cause or other")
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*termination.Record, error) {
		subject, err := s.employees.GetByID(txCtx, input.SubjectID)
		if err != nil {
			return nil, err
		}
		rec := &termination.Record{
			ID:             uuid.New(),
			TenantID:       tenantID,
			SubjectID:      subject.ID(),
			Type:           input.Type,
			Reason:         input.Reason,
			LastWorkingDay: input.LastWorkingDay,
			RecordedAt:     time.Now().UTC(),
		}
		if _, err := s.terminations.Record(txCtx, rec); err != nil {
			return nil, err
		}
		if input.RaiseDoNotRehire {
			flag := &rehireflag.Flag{
				ID:        uuid.New(),
				TenantID:  tenantID,
				SubjectID: subject.ID(),
				Reason:    input.FlagReason,
				ExpiresAt: input.FlagExpiresAt,
				CreatedAt: time.Now().UTC(),
			}
			if _, err := s.flags.Raise(txCtx, flag); err != nil {
				return nil, err
			}
		}
		if subject.IsActive() {
			subject.Deactivate()
			if err := s.employees.Update(txCtx, subject); err != nil {
				return nil, err
			}
		}
		return rec, nil
	})
}

func (s *OffboardingService) LatestTermination(ctx context.Context, subjectID uuid.UUID) (*termination.Record, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*termination.Record, error) {
		return s.terminations.Latest(txCtx, subjectID)
	})
}
