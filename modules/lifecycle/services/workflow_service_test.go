package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/velora-hq/velora-hcm/modules/core/domain/aggregates/user"
	"github.com/velora-hq/velora-hcm/modules/hrm/domain/aggregates/employee"
	"github.com/velora-hq/velora-hcm/modules/hrm/domain/entities/rehireflag"
	"github.com/velora-hq/velora-hcm/modules/hrm/domain/entities/termination"
	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/changerequest"
	"github.com/velora-hq/velora-hcm/pkg/configuration"
)

type workflowFixture struct {
	svc          *WorkflowService
	requests     *mockRequestRepo
	employees    *mockEmployeeRepo
	flags        *mockRehireFlagRepo
	terminations *mockTerminationRepo
	audit        *spyAudit
	notifier     *spyNotifier
	eligibility  *EligibilityService
	scheduler    *SchedulerService
	roles        *stubRoles
	gates        RoleGates
	tenantID     uuid.UUID

	manager   uuid.UUID
	hr        uuid.UUID
	recruiter uuid.UUID
	worker    uuid.UUID
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	f := &workflowFixture{
		requests:     newMockRequestRepo(),
		employees:    newMockEmployeeRepo(),
		flags:        newMockRehireFlagRepo(),
		terminations: newMockTerminationRepo(),
		audit:        &spyAudit{},
		notifier:     &spyNotifier{},
		tenantID:     uuid.New(),
		manager:      uuid.New(),
		hr:           uuid.New(),
		recruiter:    uuid.New(),
		worker:       uuid.New(),
	}

	roles := &stubRoles{roles: map[uuid.UUID][]user.Role{
		f.manager:   {user.RoleManager},
		f.hr:        {user.RoleHR},
		f.recruiter: {user.RoleRecruiter},
		f.worker:    {user.RoleEmployee},
	}}
	gates := RoleGatesFromOptions(&configuration.LifecycleOptions{
		PromotionAuthorRoles:   []string{"manager", "hr"},
		PromotionApproverRoles: []string{"hr", "admin"},
		RehireAuthorRoles:      []string{"hr", "recruiter"},
		RehireDeciderRoles:     []string{"hr", "admin"},
	})

	f.roles = roles
	f.gates = gates
	f.eligibility = NewEligibilityService(f.employees, f.flags, f.terminations, 90)
	applier := NewApplierService(f.requests, f.employees, f.notifier, f.audit)
	f.scheduler = NewSchedulerService(f.requests, applier, time.Hour, 50)
	f.svc = NewWorkflowService(f.requests, f.employees, f.eligibility, f.scheduler, f.roles, f.gates, f.audit, f.notifier)
	return f
}

func (f *workflowFixture) subject(t *testing.T, pernr string) *employee.Employee {
	t.Helper()
	e := employee.New(f.tenantID, pernr, "Dana", "Reyes", pernr+"@example.com")
	e.SetProfile("Engineer", "L3", "Platform", decimal.NewFromInt(80000), nil)
	f.employees.add(e)
	return e
}

func (f *workflowFixture) promotionDTO(subjectID uuid.UUID, effectiveDate time.Time) *CreatePromotionDTO {
	return &CreatePromotionDTO{
		SubjectID:     subjectID,
		EffectiveDate: effectiveDate,
		Designation:   "Senior Engineer",
		Grade:         "L4",
		Compensation:  decimal.NewFromInt(110000),
		Reason:        "strong cycle",
	}
}

func requireServiceCode(t *testing.T, err error, code string) {
	t.Helper()
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, code, svcErr.Code)
}

func TestWorkflow_CreatePromotion(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t, "80001")

	req, err := f.svc.CreatePromotion(ctx, f.manager, f.promotionDTO(subject.ID(), time.Now().UTC().AddDate(0, 0, 10)))
	require.NoError(t, err)
	require.Equal(t, changerequest.StatusDraft, req.Status)
	require.Equal(t, changerequest.KindPromotion, req.Kind)
	require.False(t, req.Applied)

	trail := f.requests.decisionsFor(req.ID)
	require.Len(t, trail, 1)
	require.Equal(t, changerequest.ActionCreate, trail[0].Action)
}

func TestWorkflow_CreatePromotion_Unauthorized(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t, "80002")

	_, err := f.svc.CreatePromotion(ctx, f.worker, f.promotionDTO(subject.ID(), time.Now().UTC()))
	requireServiceCode(t, err, CodeUnauthorized)
}

func TestWorkflow_CreatePromotion_UnknownSubject(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)

	_, err := f.svc.CreatePromotion(ctx, f.hr, f.promotionDTO(uuid.New(), time.Now().UTC()))
	requireServiceCode(t, err, CodeNotFound)
}

func TestWorkflow_CreatePromotion_MissingEffectiveDate(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t, "80003")
	dto := f.promotionDTO(subject.ID(), time.Time{})

	_, err := f.svc.CreatePromotion(ctx, f.hr, dto)
	requireServiceCode(t, err, CodeInvalidBody)
}

func TestWorkflow_ApproveDueRequestAppliesSynchronously(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t, "80004")

	req, err := f.svc.CreatePromotion(ctx, f.manager, f.promotionDTO(subject.ID(), time.Now().UTC().AddDate(0, 0, -1)))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.manager, req.ID, "")
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, f.hr, req.ID, "looks right")
	require.NoError(t, err)
	require.Equal(t, changerequest.StatusApproved, approved.Status)
	require.True(t, approved.Applied)

	got, err := f.employees.GetByID(ctx, subject.ID())
	require.NoError(t, err)
	require.Equal(t, "Senior Engineer", got.Designation())
}

func TestWorkflow_ApproveFutureRequestDefers(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t, "80005")

	req, err := f.svc.CreatePromotion(ctx, f.manager, f.promotionDTO(subject.ID(), time.Now().UTC().AddDate(0, 0, 30)))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.manager, req.ID, "")
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, f.hr, req.ID, "")
	require.NoError(t, err)
	require.Equal(t, changerequest.StatusApproved, approved.Status)
	require.False(t, approved.Applied)
	require.Empty(t, f.employees.updated)
}

func TestWorkflow_AuthoringRoleCannotApprove(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t, "80006")

	req, err := f.svc.CreatePromotion(ctx, f.manager, f.promotionDTO(subject.ID(), time.Now().UTC()))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.manager, req.ID, "")
	require.NoError(t, err)

	// Manager may author but the approver set excludes the manager role.
	_, err = f.svc.Approve(ctx, f.manager, req.ID, "")
	requireServiceCode(t, err, CodeUnauthorized)

	// The refused attempt still lands in the audit log.
	require.Contains(t, f.audit.actions(), "approve_refused")
}

func TestWorkflow_UnauthorizedBeatsIllegalState(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t, "80007")

	// Still in draft: approve would be illegal, but the actor has no
	// approving role, so authorization wins.
	req, err := f.svc.CreatePromotion(ctx, f.manager, f.promotionDTO(subject.ID(), time.Now().UTC()))
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.worker, req.ID, "")
	requireServiceCode(t, err, CodeUnauthorized)
}

func TestWorkflow_ApproveFromDraftIsIllegal(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t, "80008")

	req, err := f.svc.CreatePromotion(ctx, f.manager, f.promotionDTO(subject.ID(), time.Now().UTC()))
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.hr, req.ID, "")
	requireServiceCode(t, err, CodeInvalidTransition)
}

func TestWorkflow_RejectRequiresReason(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t, "80009")

	req, err := f.svc.CreatePromotion(ctx, f.manager, f.promotionDTO(subject.ID(), time.Now().UTC()))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.manager, req.ID, "")
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, f.hr, req.ID, "  ")
	requireServiceCode(t, err, CodeInvalidBody)

	rejected, err := f.svc.Reject(ctx, f.hr, req.ID, "budget freeze")
	require.NoError(t, err)
	require.Equal(t, changerequest.StatusRejected, rejected.Status)

	// Rejection is terminal but the request survives.
	kept, err := f.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, changerequest.StatusRejected, kept.Status)
}

func TestWorkflow_PayloadFreezesAfterDecision(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t, "80010")

	req, err := f.svc.CreatePromotion(ctx, f.manager, f.promotionDTO(subject.ID(), time.Now().UTC().AddDate(0, 0, 30)))
	require.NoError(t, err)

	// Editable while pending approval.
	payload, err := json.Marshal(changerequest.PromotionPayload{Designation: "Staff Engineer"})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.manager, req.ID, "")
	require.NoError(t, err)
	_, err = f.svc.UpdatePayload(ctx, f.manager, req.ID, payload, time.Now().UTC().AddDate(0, 0, 45))
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.hr, req.ID, "")
	require.NoError(t, err)

	_, err = f.svc.UpdatePayload(ctx, f.manager, req.ID, payload, time.Now().UTC())
	requireServiceCode(t, err, CodeInvalidTransition)
}

func TestWorkflow_CreateRehireSnapshotsVerdict(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t, "80011")
	_, err := f.flags.Raise(ctx, &rehireflag.Flag{
		ID:        uuid.New(),
		TenantID:  f.tenantID,
		SubjectID: subject.ID(),
		Reason:    "misconduct",
	})
	require.NoError(t, err)

	req, err := f.svc.CreateRehire(ctx, f.recruiter, &CreateRehireDTO{
		SubjectID:          subject.ID(),
		RequestedStartDate: time.Now().UTC().AddDate(0, 0, 20),
	})
	require.NoError(t, err)
	require.Equal(t, changerequest.StatusDraft, req.Status)
	require.NotNil(t, req.Eligibility)
	require.Equal(t, changerequest.VerdictIneligible, req.Eligibility.Status)
	require.Equal(t, changerequest.ReasonDoNotRehireFlag, req.Eligibility.ReasonCode)
}

func TestWorkflow_RehireChainAndRejectAlwaysWins(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t, "80012")
	subject.Deactivate()
	lwd := time.Now().UTC().AddDate(0, 0, -200)
	_, err := f.terminations.Record(ctx, &termination.Record{
		ID:             uuid.New(),
		TenantID:       f.tenantID,
		SubjectID:      subject.ID(),
		Type:           termination.TypeOther,
		LastWorkingDay: &lwd,
		RecordedAt:     lwd,
	})
	require.NoError(t, err)

	req, err := f.svc.CreateRehire(ctx, f.recruiter, &CreateRehireDTO{
		SubjectID:          subject.ID(),
		RequestedStartDate: time.Now().UTC().AddDate(0, 0, -1),
	})
	require.NoError(t, err)
	require.Equal(t, changerequest.VerdictEligible, req.Eligibility.Status)

	_, err = f.svc.Submit(ctx, f.recruiter, req.ID, "")
	require.NoError(t, err)
	for _, want := range []changerequest.Status{
		changerequest.StatusOffer,
		changerequest.StatusOnboarding,
		changerequest.StatusCompleted,
	} {
		stepped, err := f.svc.Advance(ctx, f.hr, req.ID, "")
		require.NoError(t, err)
		require.Equal(t, want, stepped.Status)
	}

	// Completion with a past start date reactivates the subject.
	completed, err := f.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.True(t, completed.Applied)
	got, err := f.employees.GetByID(ctx, subject.ID())
	require.NoError(t, err)
	require.True(t, got.IsActive())

	// Reject still wins from completed.
	rejected, err := f.svc.Reject(ctx, f.hr, req.ID, "offer rescinded")
	require.NoError(t, err)
	require.Equal(t, changerequest.StatusRejected, rejected.Status)

	trail := f.requests.decisionsFor(req.ID)
	last := trail[len(trail)-1]
	require.Equal(t, changerequest.ActionReject, last.Action)
	require.Equal(t, changerequest.StatusCompleted, last.FromStatus)
	require.Equal(t, changerequest.StatusRejected, last.ToStatus)
}

func TestWorkflow_RehireTerminalNoOpIsRecordedSuccess(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t, "80013")

	req, err := f.svc.CreateRehire(ctx, f.hr, &CreateRehireDTO{
		SubjectID:          subject.ID(),
		RequestedStartDate: time.Now().UTC().AddDate(0, 0, 5),
	})
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, f.hr, req.ID, "position closed")
	require.NoError(t, err)
	before := len(f.requests.decisionsFor(req.ID))

	// Advancing a rejected rehire: no status change, success, and one
	// more trail entry with the unchanged status.
	stepped, err := f.svc.Advance(ctx, f.hr, req.ID, "late click")
	require.NoError(t, err)
	require.Equal(t, changerequest.StatusRejected, stepped.Status)

	trail := f.requests.decisionsFor(req.ID)
	require.Len(t, trail, before+1)
	last := trail[len(trail)-1]
	require.Equal(t, changerequest.StatusRejected, last.FromStatus)
	require.Equal(t, changerequest.StatusRejected, last.ToStatus)

	// Rejecting twice is the same kind of no-op.
	again, err := f.svc.Reject(ctx, f.hr, req.ID, "still closed")
	require.NoError(t, err)
	require.Equal(t, changerequest.StatusRejected, again.Status)
	require.Len(t, f.requests.decisionsFor(req.ID), before+2)
}

func TestWorkflow_RecruiterCannotDecideRehire(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t, "80014")

	req, err := f.svc.CreateRehire(ctx, f.recruiter, &CreateRehireDTO{
		SubjectID:          subject.ID(),
		RequestedStartDate: time.Now().UTC().AddDate(0, 0, 5),
	})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.recruiter, req.ID, "")
	require.NoError(t, err)

	_, err = f.svc.Advance(ctx, f.recruiter, req.ID, "")
	requireServiceCode(t, err, CodeUnauthorized)
}

func TestWorkflow_ReevaluateDoesNotTouchSnapshot(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t, "80015")

	req, err := f.svc.CreateRehire(ctx, f.hr, &CreateRehireDTO{
		SubjectID:          subject.ID(),
		RequestedStartDate: time.Now().UTC().AddDate(0, 0, 5),
	})
	require.NoError(t, err)
	require.Equal(t, changerequest.ReasonNoTerminationRecord, req.Eligibility.ReasonCode)

	// History changes after creation.
	lwd := time.Now().UTC().AddDate(0, 0, -200)
	_, err = f.terminations.Record(ctx, &termination.Record{
		ID:             uuid.New(),
		TenantID:       f.tenantID,
		SubjectID:      subject.ID(),
		Type:           termination.TypeOther,
		LastWorkingDay: &lwd,
		RecordedAt:     lwd,
	})
	require.NoError(t, err)

	fresh, err := f.svc.ReevaluateEligibility(ctx, f.hr, req.ID)
	require.NoError(t, err)
	require.Equal(t, changerequest.VerdictEligible, fresh.Status)

	stored, err := f.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, changerequest.ReasonNoTerminationRecord, stored.Eligibility.ReasonCode)
}

func TestWorkflow_UnknownRequest(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)

	_, err := f.svc.Approve(ctx, f.hr, uuid.New(), "")
	requireServiceCode(t, err, CodeNotFound)
}

// staleReadRepo reports a fixed status from GetByID while writes go to
// the real store, so the optimistic status check fires at CAS time.
type staleReadRepo struct {
	*mockRequestRepo
	staleStatus changerequest.Status
}

func (r *staleReadRepo) GetByID(ctx context.Context, id uuid.UUID) (*changerequest.ChangeRequest, error) {
	req, err := r.mockRequestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Status = r.staleStatus
	return req, nil
}

func TestWorkflow_ConcurrentStatusChangeIsConflict(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t, "80009")

	req, err := f.svc.CreatePromotion(ctx, f.manager, f.promotionDTO(subject.ID(), time.Now().UTC().AddDate(0, 0, 10)))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.manager, req.ID, "")
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, f.hr, req.ID, "role closed")
	require.NoError(t, err)

	// This approver read pending_approval before the rejection landed;
	// its status CAS must lose, not double-decide the request.
	stale := &staleReadRepo{mockRequestRepo: f.requests, staleStatus: changerequest.StatusPendingApproval}
	raced := NewWorkflowService(stale, f.employees, f.eligibility, f.scheduler, f.roles, f.gates, f.audit, f.notifier)

	_, err = raced.Approve(ctx, f.hr, req.ID, "")
	requireServiceCode(t, err, CodeConflict)

	stored, err := f.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, changerequest.StatusRejected, stored.Status)
}
