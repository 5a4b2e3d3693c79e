package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/velora-hq/velora-hcm/modules/hrm/domain/aggregates/employee"
	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/changerequest"
	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/entities/notification"
	"github.com/velora-hq/velora-hcm/pkg/composables"
)

type ApplyResult string

const (
	ResultApplied        ApplyResult = "applied"
	ResultAlreadyApplied ApplyResult = "already_applied"
	ResultFailed         ApplyResult = "failed"
)

// ApplierService mutates the authoritative employee record to reflect a
// decided change request, exactly once. The applied marker and the
// profile mutation commit in one transaction: the sweep and an
// interactive approval can race on the same request and the CAS on
// applied decides the single winner.
type ApplierService struct {
	requests  changerequest.Repository
	employees employee.Repository
	notifier  NotificationEmitter
	audit     AuditRecorder
	now       func() time.Time
}

func NewApplierService(
	requests changerequest.Repository,
	employees employee.Repository,
	notifier NotificationEmitter,
	audit AuditRecorder,
) *ApplierService {
	return &ApplierService{
		requests:  requests,
		employees: employees,
		notifier:  notifier,
		audit:     audit,
		now:       time.Now,
	}
}

func (s *ApplierService) Apply(ctx context.Context, req *changerequest.ChangeRequest) (ApplyResult, error) {
	if req.Applied {
		recordApply(string(req.Kind), string(ResultAlreadyApplied))
		return ResultAlreadyApplied, nil
	}

	appliedAt := s.now().UTC()
	err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
		// The CAS on (status, applied=false) is taken first; losing it
		// aborts before any profile write happens.
		if err := s.requests.MarkApplied(txCtx, req.ID, changerequest.ApplicableStatus(req.Kind), appliedAt); err != nil {
			return err
		}
		return s.mutateSubject(txCtx, req)
	})

	switch {
	case err == nil:
	case errors.Is(err, changerequest.ErrAlreadyApplied):
		recordApply(string(req.Kind), string(ResultAlreadyApplied))
		return ResultAlreadyApplied, nil
	case errors.Is(err, changerequest.ErrStatusConflict):
		// The request was decided away from its applicable status
		// after being picked up; nothing was applied.
		recordApply(string(req.Kind), string(ResultFailed))
		return ResultFailed, conflictError("request status changed before apply", err)
	default:
		recordApply(string(req.Kind), string(ResultFailed))
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			return ResultFailed, err
		}
		return ResultFailed, applyFailedError("failed to apply change request", err)
	}

	req.Applied = true
	req.AppliedAt = &appliedAt

	recordApply(string(req.Kind), string(ResultApplied))
	s.audit.Record(ctx, AuditRecord{
		ActorID:    req.RequesterID,
		Action:     string(changerequest.ActionApply),
		EntityType: "change_request",
		EntityID:   req.ID,
		Details:    map[string]string{"kind": string(req.Kind), "subject_id": req.SubjectID.String()},
	})
	s.notifier.Notify(ctx, req.SubjectID,
		"Change applied",
		fmt.Sprintf("Your %s request is now in effect as of %s.", req.Kind, req.EffectiveDate.Format("2006-01-02")),
		notification.CategoryApplication,
	)
	return ResultApplied, nil
}

func (s *ApplierService) mutateSubject(ctx context.Context, req *changerequest.ChangeRequest) error {
	subject, err := s.employees.GetByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			return applyFailedError("subject record missing", err)
		}
		return err
	}

	switch req.Kind {
	case changerequest.KindPromotion:
		payload, err := req.PromotionPayload()
		if err != nil {
			return applyFailedError("malformed promotion payload", err)
		}
		subject.ApplyPromotion(payload.Designation, payload.Grade, payload.Department, payload.Compensation)
	case changerequest.KindRehire:
		payload, err := req.RehirePayload()
		if err != nil {
			return applyFailedError("malformed rehire payload", err)
		}
		subject.Reactivate()
		if payload.ProposedDesignation != "" || payload.ProposedDepartment != "" {
			subject.ApplyPromotion(payload.ProposedDesignation, "", payload.ProposedDepartment, decimal.Zero)
		}
	default:
		return applyFailedError(fmt.Sprintf("unknown request kind %q", req.Kind), nil)
	}

	return s.employees.Update(ctx, subject)
}
