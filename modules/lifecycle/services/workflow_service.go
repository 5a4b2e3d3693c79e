package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/velora-hq/velora-hcm/modules/core/domain/aggregates/user"
	"github.com/velora-hq/velora-hcm/modules/hrm/domain/aggregates/employee"
	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/changerequest"
	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/entities/notification"
	"github.com/velora-hq/velora-hcm/pkg/composables"
	"github.com/velora-hq/velora-hcm/pkg/configuration"
)

// RoleResolver supplies the actor's roles; backed by the core
// directory service in production.
type RoleResolver interface {
	ResolveRoles(ctx context.Context, actorID uuid.UUID) ([]user.Role, error)
}

type roleSet map[user.Role]struct{}

func newRoleSet(roles []string) roleSet {
	set := make(roleSet, len(roles))
	for _, r := range roles {
		if r = strings.TrimSpace(r); r != "" {
			set[user.Role(r)] = struct{}{}
		}
	}
	return set
}

func (s roleSet) containsAny(roles []user.Role) bool {
	for _, r := range roles {
		if _, ok := s[r]; ok {
			return true
		}
	}
	return false
}

// RoleGates holds the configured role sets per kind. Authoring and
// deciding sets are independent: an approver set may well exclude a
// role that is allowed to author.
type RoleGates struct {
	promotionAuthors   roleSet
	promotionApprovers roleSet
	rehireAuthors      roleSet
	rehireDeciders     roleSet
}

func RoleGatesFromOptions(opts *configuration.LifecycleOptions) RoleGates {
	return RoleGates{
		promotionAuthors:   newRoleSet(opts.PromotionAuthorRoles),
		promotionApprovers: newRoleSet(opts.PromotionApproverRoles),
		rehireAuthors:      newRoleSet(opts.RehireAuthorRoles),
		rehireDeciders:     newRoleSet(opts.RehireDeciderRoles),
	}
}

func (g RoleGates) gateFor(kind changerequest.Kind, action changerequest.Action) roleSet {
	if kind == changerequest.KindRehire {
		if action == changerequest.ActionSubmit || action == changerequest.ActionCreate {
			return g.rehireAuthors
		}
		return g.rehireDeciders
	}
	if action == changerequest.ActionSubmit || action == changerequest.ActionCreate {
		return g.promotionAuthors
	}
	return g.promotionApprovers
}

type CreatePromotionDTO struct {
	SubjectID     uuid.UUID
	EffectiveDate time.Time
	Designation   string
	Grade         string
	Department    string
	Compensation  decimal.Decimal
	Reason        string
}

type CreateRehireDTO struct {
	SubjectID           uuid.UUID
	RequestedStartDate  time.Time
	PriorTerminationID  *uuid.UUID
	ProposedDesignation string
	ProposedDepartment  string
}

// WorkflowService runs the role-gated approval state machines. Every
// attempt, legal or not, lands in the audit log; only legal transitions
// mutate status, and each one appends a decision-trail entry in the
// same transaction.
type WorkflowService struct {
	requests    changerequest.Repository
	employees   employee.Repository
	eligibility *EligibilityService
	scheduler   *SchedulerService
	roles       RoleResolver
	gates       RoleGates
	audit       AuditRecorder
	notifier    NotificationEmitter
	now         func() time.Time
}

func NewWorkflowService(
	requests changerequest.Repository,
	employees employee.Repository,
	eligibility *EligibilityService,
	scheduler *SchedulerService,
	roles RoleResolver,
	gates RoleGates,
	audit AuditRecorder,
	notifier NotificationEmitter,
) *WorkflowService {
	return &WorkflowService{
		requests:    requests,
		employees:   employees,
		eligibility: eligibility,
		scheduler:   scheduler,
		roles:       roles,
		gates:       gates,
		audit:       audit,
		notifier:    notifier,
		now:         time.Now,
	}
}

func (s *WorkflowService) CreatePromotion(ctx context.Context, actorID uuid.UUID, dto *CreatePromotionDTO) (*changerequest.ChangeRequest, error) {
	if err := s.authorize(ctx, actorID, changerequest.KindPromotion, changerequest.ActionCreate); err != nil {
		return nil, err
	}
	if dto.SubjectID == uuid.Nil {
		return nil, invalidBodyError("subject_id is required", nil)
	}
	if dto.EffectiveDate.IsZero() {
		return nil, invalidBodyError("effective_date is required", nil)
	}
	if dto.Designation == "" && dto.Grade == "" && dto.Department == "" && !dto.Compensation.IsPositive() {
		return nil, invalidBodyError("at least one change field is required", nil)
	}

	payload, err := json.Marshal(changerequest.PromotionPayload{
		Designation:  dto.Designation,
		Grade:        dto.Grade,
		Department:   dto.Department,
		Compensation: dto.Compensation,
		Reason:       dto.Reason,
	})
	if err != nil {
		return nil, invalidBodyError("failed to encode payload", err)
	}

	return s.create(ctx, actorID, changerequest.KindPromotion, dto.SubjectID, payload, dayUTC(dto.EffectiveDate), nil)
}

func (s *WorkflowService) CreateRehire(ctx context.Context, actorID uuid.UUID, dto *CreateRehireDTO) (*changerequest.ChangeRequest, error) {
	if err := s.authorize(ctx, actorID, changerequest.KindRehire, changerequest.ActionCreate); err != nil {
		return nil, err
	}
	if dto.SubjectID == uuid.Nil {
		return nil, invalidBodyError("subject_id is required", nil)
	}
	if dto.RequestedStartDate.IsZero() {
		return nil, invalidBodyError("requested_start_date is required", nil)
	}

	payload, err := json.Marshal(changerequest.RehirePayload{
		RequestedStartDate:  dayUTC(dto.RequestedStartDate),
		PriorTerminationID:  dto.PriorTerminationID,
		ProposedDesignation: dto.ProposedDesignation,
		ProposedDepartment:  dto.ProposedDepartment,
	})
	if err != nil {
		return nil, invalidBodyError("failed to encode payload", err)
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*changerequest.ChangeRequest, error) {
		// The verdict is frozen onto the request at creation; later
		// re-checks never overwrite it.
		v, err := s.eligibility.evaluate(txCtx, dto.SubjectID)
		if err != nil {
			return nil, err
		}
		return s.createInTx(txCtx, actorID, changerequest.KindRehire, dto.SubjectID, payload, dayUTC(dto.RequestedStartDate), v)
	})
}

func (s *WorkflowService) create(ctx context.Context, actorID uuid.UUID, kind changerequest.Kind, subjectID uuid.UUID, payload json.RawMessage, effectiveDate time.Time, verdict *changerequest.Verdict) (*changerequest.ChangeRequest, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*changerequest.ChangeRequest, error) {
		return s.createInTx(txCtx, actorID, kind, subjectID, payload, effectiveDate, verdict)
	})
}

func (s *WorkflowService) createInTx(ctx context.Context, actorID uuid.UUID, kind changerequest.Kind, subjectID uuid.UUID, payload json.RawMessage, effectiveDate time.Time, verdict *changerequest.Verdict) (*changerequest.ChangeRequest, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	if kind == changerequest.KindPromotion {
		if _, err := s.employees.GetByID(ctx, subjectID); err != nil {
			if errors.Is(err, employee.ErrNotFound) {
				return nil, notFoundError("subject not found", err)
			}
			return nil, err
		}
	}

	req := &changerequest.ChangeRequest{
		ID:            uuid.New(),
		TenantID:      tenantID,
		Kind:          kind,
		SubjectID:     subjectID,
		RequesterID:   actorID,
		Status:        changerequest.StatusDraft,
		SchemaVersion: changerequest.PayloadSchemaVersion,
		Payload:       payload,
		EffectiveDate: effectiveDate,
		Eligibility:   verdict,
	}
	created, err := s.requests.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.requests.AppendDecision(ctx, &changerequest.DecisionEntry{
		ID:         uuid.New(),
		TenantID:   tenantID,
		RequestID:  created.ID,
		ActorID:    actorID,
		Action:     changerequest.ActionCreate,
		FromStatus: "",
		ToStatus:   changerequest.StatusDraft,
		CreatedAt:  s.now().UTC(),
	}); err != nil {
		return nil, err
	}

	recordTransition(string(kind), string(changerequest.ActionCreate), "ok")
	s.audit.Record(ctx, AuditRecord{
		ActorID:    actorID,
		Action:     string(changerequest.ActionCreate),
		EntityType: "change_request",
		EntityID:   created.ID,
		Details:    map[string]string{"kind": string(kind), "subject_id": subjectID.String()},
	})
	return created, nil
}

// UpdatePayload edits the proposed change on a request still in an
// editable status. The payload freezes after that.
func (s *WorkflowService) UpdatePayload(ctx context.Context, actorID uuid.UUID, requestID uuid.UUID, payload json.RawMessage, effectiveDate time.Time) (*changerequest.ChangeRequest, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*changerequest.ChangeRequest, error) {
		req, err := s.requests.GetByID(txCtx, requestID)
		if err != nil {
			return nil, translateRepoError(err)
		}
		if err := s.authorize(txCtx, actorID, req.Kind, changerequest.ActionCreate); err != nil {
			return nil, err
		}
		if !changerequest.PayloadEditable(req.Kind, req.Status) {
			return nil, invalidTransitionError(
				fmt.Sprintf("payload is frozen in status %s", req.Status), nil)
		}
		if effectiveDate.IsZero() {
			return nil, invalidBodyError("effective_date is required", nil)
		}
		if err := validatePayload(req.Kind, payload); err != nil {
			return nil, invalidBodyError("malformed payload", err)
		}
		if err := s.requests.UpdatePayload(txCtx, req.ID, req.Status, payload, dayUTC(effectiveDate)); err != nil {
			return nil, translateRepoError(err)
		}
		return s.requests.GetByID(txCtx, requestID)
	})
}

func validatePayload(kind changerequest.Kind, payload json.RawMessage) error {
	switch kind {
	case changerequest.KindPromotion:
		var p changerequest.PromotionPayload
		return json.Unmarshal(payload, &p)
	case changerequest.KindRehire:
		var p changerequest.RehirePayload
		return json.Unmarshal(payload, &p)
	}
	return fmt.Errorf("unknown kind %q", kind)
}

// Submit moves a draft into review: promotions to pending approval,
// rehires into background checks.
func (s *WorkflowService) Submit(ctx context.Context, actorID, requestID uuid.UUID, note string) (*changerequest.ChangeRequest, error) {
	return s.transition(ctx, actorID, requestID, changerequest.ActionSubmit, note)
}

func (s *WorkflowService) Approve(ctx context.Context, actorID, requestID uuid.UUID, note string) (*changerequest.ChangeRequest, error) {
	return s.transition(ctx, actorID, requestID, changerequest.ActionApprove, note)
}

func (s *WorkflowService) Reject(ctx context.Context, actorID, requestID uuid.UUID, reason string) (*changerequest.ChangeRequest, error) {
	return s.transition(ctx, actorID, requestID, changerequest.ActionReject, reason)
}

// Advance issues the single-step rehire decision. Callers should use it
// instead of relying on any implicit advance semantics.
func (s *WorkflowService) Advance(ctx context.Context, actorID, requestID uuid.UUID, note string) (*changerequest.ChangeRequest, error) {
	return s.transition(ctx, actorID, requestID, changerequest.ActionAdvance, note)
}

func (s *WorkflowService) transition(ctx context.Context, actorID, requestID uuid.UUID, action changerequest.Action, note string) (*changerequest.ChangeRequest, error) {
	req, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*changerequest.ChangeRequest, error) {
		return s.transitionInTx(txCtx, actorID, requestID, action, note)
	})
	if err != nil {
		// Refused attempts are audited here, outside the rolled-back
		// transaction, so the record survives.
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			s.auditAttempt(ctx, actorID, requestID, action, note, svcErr.Code)
		}
		return nil, err
	}

	switch {
	case req.Kind == changerequest.KindPromotion && req.Status == changerequest.StatusApproved:
		s.notifier.Notify(ctx, req.SubjectID, "Promotion approved",
			"Your promotion request has been approved.", notification.CategoryApproval)
	case req.Status == changerequest.StatusRejected && action == changerequest.ActionReject:
		s.notifier.Notify(ctx, req.SubjectID, "Request rejected",
			fmt.Sprintf("Your %s request has been rejected: %s", req.Kind, note), notification.CategoryRejection)
	case req.Kind == changerequest.KindRehire && req.Status == changerequest.StatusCompleted:
		s.notifier.Notify(ctx, req.SubjectID, "Rehire completed",
			"Your rehire has completed onboarding.", notification.CategoryApproval)
	}

	// A decided request may be due right away; the scheduler applies it
	// now or leaves it to the sweep.
	if !req.Applied && req.Status == changerequest.ApplicableStatus(req.Kind) {
		if _, err := s.scheduler.Decide(ctx, req); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func (s *WorkflowService) transitionInTx(ctx context.Context, actorID, requestID uuid.UUID, action changerequest.Action, note string) (*changerequest.ChangeRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	// Authorization comes before any state validity check: an actor
	// without the gate role is refused even for an illegal transition.
	if err := s.authorize(ctx, actorID, req.Kind, action); err != nil {
		recordTransition(string(req.Kind), string(action), "unauthorized")
		return nil, err
	}

	if req.Kind == changerequest.KindPromotion && action == changerequest.ActionReject && strings.TrimSpace(note) == "" {
		return nil, invalidBodyError("a rejection reason is required", nil)
	}

	tr, err := changerequest.Resolve(req.Kind, req.Status, action)
	if err != nil {
		recordTransition(string(req.Kind), string(action), "illegal")
		return nil, invalidTransitionError(
			fmt.Sprintf("%s is not legal from status %s", action, req.Status), err)
	}

	if tr.Changed {
		if err := s.requests.TransitionStatus(ctx, req.ID, tr.From, tr.To); err != nil {
			recordTransition(string(req.Kind), string(action), "conflict")
			return nil, translateRepoError(err)
		}
		req.Status = tr.To
	}

	// No-op decisions on terminal rehire statuses still leave a trail
	// entry with the unchanged status and report success.
	if err := s.requests.AppendDecision(ctx, &changerequest.DecisionEntry{
		ID:         uuid.New(),
		TenantID:   req.TenantID,
		RequestID:  req.ID,
		ActorID:    actorID,
		Action:     action,
		Note:       note,
		FromStatus: tr.From,
		ToStatus:   tr.To,
		CreatedAt:  s.now().UTC(),
	}); err != nil {
		return nil, err
	}

	outcome := "ok"
	if !tr.Changed {
		outcome = "noop"
	}
	recordTransition(string(req.Kind), string(action), outcome)
	s.audit.Record(ctx, AuditRecord{
		ActorID:    actorID,
		Action:     string(action),
		EntityType: "change_request",
		EntityID:   req.ID,
		Details: map[string]string{
			"kind": string(req.Kind),
			"from": string(tr.From),
			"to":   string(tr.To),
		},
		Reason: note,
	})
	return req, nil
}

// ReevaluateEligibility is the explicit re-check: it computes a fresh
// verdict and records the action, but never touches the snapshot frozen
// at creation.
func (s *WorkflowService) ReevaluateEligibility(ctx context.Context, actorID, requestID uuid.UUID) (*changerequest.Verdict, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*changerequest.Verdict, error) {
		req, err := s.requests.GetByID(txCtx, requestID)
		if err != nil {
			return nil, translateRepoError(err)
		}
		if req.Kind != changerequest.KindRehire {
			return nil, invalidBodyError("eligibility applies to rehire requests only", nil)
		}
		if err := s.authorize(txCtx, actorID, req.Kind, changerequest.ActionAdvance); err != nil {
			return nil, err
		}

		v, err := s.eligibility.evaluate(txCtx, req.SubjectID)
		if err != nil {
			return nil, err
		}
		s.audit.Record(txCtx, AuditRecord{
			ActorID:    actorID,
			Action:     "reevaluate_eligibility",
			EntityType: "change_request",
			EntityID:   req.ID,
			Details:    v,
		})
		return v, nil
	})
}

func (s *WorkflowService) GetRequest(ctx context.Context, requestID uuid.UUID) (*changerequest.ChangeRequest, error) {
	req, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*changerequest.ChangeRequest, error) {
		return s.requests.GetByID(txCtx, requestID)
	})
	return req, translateRepoError(err)
}

func (s *WorkflowService) ListRequests(ctx context.Context, params *changerequest.FindParams) ([]*changerequest.ChangeRequest, int64, error) {
	type page struct {
		items []*changerequest.ChangeRequest
		total int64
	}
	out, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (page, error) {
		items, total, err := s.requests.GetPaginated(txCtx, params)
		return page{items: items, total: total}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return out.items, out.total, nil
}

func (s *WorkflowService) ListDecisions(ctx context.Context, requestID uuid.UUID) ([]*changerequest.DecisionEntry, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*changerequest.DecisionEntry, error) {
		if _, err := s.requests.GetByID(txCtx, requestID); err != nil {
			return nil, translateRepoError(err)
		}
		return s.requests.ListDecisions(txCtx, requestID)
	})
}

func (s *WorkflowService) authorize(ctx context.Context, actorID uuid.UUID, kind changerequest.Kind, action changerequest.Action) error {
	roles, err := s.roles.ResolveRoles(ctx, actorID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return unauthorizedError("unknown actor")
		}
		return err
	}
	if !s.gates.gateFor(kind, action).containsAny(roles) {
		return unauthorizedError(fmt.Sprintf("actor may not %s %s requests", action, kind))
	}
	return nil
}

func (s *WorkflowService) auditAttempt(ctx context.Context, actorID, entityID uuid.UUID, action changerequest.Action, note, code string) {
	s.audit.Record(ctx, AuditRecord{
		ActorID:    actorID,
		Action:     string(action) + "_refused",
		EntityType: "change_request",
		EntityID:   entityID,
		Details:    map[string]string{"note": note},
		Reason:     code,
	})
}
