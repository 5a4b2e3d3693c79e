package changerequest

import (
	"context"
	"encoding/json"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrNotFound       = gerrors.New("change request not found")
	ErrStatusConflict = gerrors.New("request status changed concurrently")
	ErrAlreadyApplied = gerrors.New("change request already applied")
)

type FindParams struct {
	Kind      Kind
	Status    Status
	SubjectID uuid.UUID
	Limit     int
	Offset    int
}

type Repository interface {
	Create(ctx context.Context, req *ChangeRequest) (*ChangeRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ChangeRequest, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*ChangeRequest, int64, error)

	// UpdatePayload replaces payload and effective date of a request
	// still in an editable status. The caller checks editability; the
	// query re-checks the status to stay safe under races.
	UpdatePayload(ctx context.Context, id uuid.UUID, status Status, payload json.RawMessage, effectiveDate time.Time) error

	// TransitionStatus moves the request from one status to another
	// with an optimistic check on the source status. It returns
	// ErrStatusConflict when the row no longer matches.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status) error

	// MarkApplied sets applied=true once, guarded by the request being
	// in its applicable status with applied=false. The second call for
	// the same request returns ErrAlreadyApplied; a row whose status
	// moved on returns ErrStatusConflict, a missing row ErrNotFound.
	MarkApplied(ctx context.Context, id uuid.UUID, status Status, appliedAt time.Time) error

	AppendDecision(ctx context.Context, entry *DecisionEntry) error
	ListDecisions(ctx context.Context, requestID uuid.UUID) ([]*DecisionEntry, error)

	// ListDue returns requests across all tenants that are in their
	// applicable status, unapplied, and effective on or before asOf.
	ListDue(ctx context.Context, asOf time.Time, limit int) ([]*ChangeRequest, error)
}
