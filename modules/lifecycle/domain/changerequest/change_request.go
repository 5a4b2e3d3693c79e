package changerequest

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindPromotion Kind = "promotion"
	KindRehire    Kind = "rehire"
)

type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"

	StatusAwaitingChecks Status = "awaiting_checks"
	StatusOffer          Status = "offer"
	StatusOnboarding     Status = "onboarding"
	StatusCompleted      Status = "completed"
)

type Action string

const (
	ActionCreate  Action = "create"
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionAdvance Action = "advance"
	ActionApply   Action = "apply"
)

// PayloadSchemaVersion is stored with every request so old payloads stay
// readable if the payload shape ever changes.
const PayloadSchemaVersion = 1

// PromotionPayload holds the proposed profile change. Empty fields mean
// "keep the current value".
type PromotionPayload struct {
	Designation  string          `json:"designation"`
	Grade        string          `json:"grade"`
	Department   string          `json:"department"`
	Compensation decimal.Decimal `json:"compensation"`
	Reason       string          `json:"reason"`
}

type RehirePayload struct {
	RequestedStartDate  time.Time  `json:"requested_start_date"`
	PriorTerminationID  *uuid.UUID `json:"prior_termination_id,omitempty"`
	ProposedDesignation string     `json:"proposed_designation,omitempty"`
	ProposedDepartment  string     `json:"proposed_department,omitempty"`
}

type VerdictStatus string

const (
	VerdictEligible    VerdictStatus = "eligible"
	VerdictIneligible  VerdictStatus = "ineligible"
	VerdictNeedsReview VerdictStatus = "needs_review"
)

const (
	ReasonUnknownSubject      = "UNKNOWN_SUBJECT"
	ReasonDoNotRehireFlag     = "DO_NOT_REHIRE_FLAG"
	ReasonNoTerminationRecord = "NO_TERMINATION_RECORD"
	ReasonCoolOff             = "COOL_OFF"
	ReasonTerminatedForCause  = "TERMINATED_FOR_CAUSE"
)

// Verdict is the rehire eligibility outcome. It is computed once at
// request creation and frozen onto the request; a later re-check is a
// separate, explicitly recorded action.
type Verdict struct {
	Status      VerdictStatus `json:"status"`
	ReasonCode  string        `json:"reason_code,omitempty"`
	EvaluatedAt time.Time     `json:"evaluated_at"`
}

// ChangeRequest is a proposed personnel change moving through a
// role-gated workflow. Status is mutated only through the workflow
// service; the payload freezes once the request leaves its editable
// states.
type ChangeRequest struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	Kind          Kind
	SubjectID     uuid.UUID
	RequesterID   uuid.UUID
	Status        Status
	SchemaVersion int
	Payload       json.RawMessage
	EffectiveDate time.Time
	Applied       bool
	AppliedAt     *time.Time
	Eligibility   *Verdict
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *ChangeRequest) PromotionPayload() (*PromotionPayload, error) {
	var p PromotionPayload
	if err := json.Unmarshal(r.Payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ChangeRequest) RehirePayload() (*RehirePayload, error) {
	var p RehirePayload
	if err := json.Unmarshal(r.Payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DecisionEntry is one row of the append-only decision trail. Entries
// are only ever inserted, in the same transaction as the status change
// they describe.
type DecisionEntry struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	RequestID  uuid.UUID
	ActorID    uuid.UUID
	Action     Action
	Note       string
	FromStatus Status
	ToStatus   Status
	CreatedAt  time.Time
}
