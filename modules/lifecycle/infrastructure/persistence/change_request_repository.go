package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/changerequest"
	"github.com/velora-hq/velora-hcm/pkg/composables"
	"github.com/velora-hq/velora-hcm/pkg/repo"
)

const changeRequestFindQuery = `
	SELECT id, tenant_id, kind, subject_id, requester_id, status,
	       schema_version, payload, effective_date, applied, applied_at,
	       eligibility_status, eligibility_reason, eligibility_evaluated_at,
	       created_at, updated_at
	FROM change_requests`

type ChangeRequestRepository struct{}

func NewChangeRequestRepository() changerequest.Repository {
	return &ChangeRequestRepository{}
}

func (r *ChangeRequestRepository) Create(ctx context.Context, req *changerequest.ChangeRequest) (*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var eligStatus, eligReason *string
	var eligAt *time.Time
	if req.Eligibility != nil {
		s := string(req.Eligibility.Status)
		eligStatus = &s
		if req.Eligibility.ReasonCode != "" {
			reason := req.Eligibility.ReasonCode
			eligReason = &reason
		}
		at := req.Eligibility.EvaluatedAt
		eligAt = &at
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO change_requests (
			id, tenant_id, kind, subject_id, requester_id, status,
			schema_version, payload, effective_date, applied,
			eligibility_status, eligibility_reason, eligibility_evaluated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10, $11, $12)
	`,
		req.ID, req.TenantID, string(req.Kind), req.SubjectID, req.RequesterID,
		string(req.Status), req.SchemaVersion, req.Payload, req.EffectiveDate,
		eligStatus, eligReason, eligAt,
	)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, req.ID)
}

func (r *ChangeRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, changeRequestFindQuery+" WHERE tenant_id = $1 AND id = $2", tenantID, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, changerequest.ErrNotFound
	}
	return scanChangeRequest(rows)
}

func (r *ChangeRequestRepository) GetPaginated(ctx context.Context, params *changerequest.FindParams) ([]*changerequest.ChangeRequest, int64, error) {
	if params == nil {
		params = &changerequest.FindParams{}
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, 0, err
	}

	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if params.Kind != "" {
		args = append(args, string(params.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if params.Status != "" {
		args = append(args, string(params.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.SubjectID != uuid.Nil {
		args = append(args, params.SubjectID)
		where = append(where, fmt.Sprintf("subject_id = $%d", len(args)))
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	query := changeRequestFindQuery +
		" WHERE " + strings.Join(where, " AND ") +
		" ORDER BY created_at DESC " + repo.FormatLimitOffset(limit, offset)
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*changerequest.ChangeRequest, 0, limit)
	for rows.Next() {
		req, err := scanChangeRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := tx.QueryRow(ctx,
		"SELECT COUNT(*) FROM change_requests WHERE "+strings.Join(where, " AND "), args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *ChangeRequestRepository) UpdatePayload(ctx context.Context, id uuid.UUID, status changerequest.Status, payload json.RawMessage, effectiveDate time.Time) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE change_requests
		SET payload = $4, effective_date = $5, updated_at = now()
		WHERE tenant_id = $1 AND id = $2 AND status = $3
	`, tenantID, id, string(status), payload, effectiveDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return changerequest.ErrStatusConflict
	}
	return nil
}

// TransitionStatus is the optimistic concurrency point: the WHERE clause
// re-checks the source status so two racing actions cannot both win.
func (r *ChangeRequestRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to changerequest.Status) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE change_requests
		SET status = $4, updated_at = now()
		WHERE tenant_id = $1 AND id = $2 AND status = $3
	`, tenantID, id, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return changerequest.ErrStatusConflict
	}
	return nil
}

func (r *ChangeRequestRepository) MarkApplied(ctx context.Context, id uuid.UUID, status changerequest.Status, appliedAt time.Time) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE change_requests
		SET applied = TRUE, applied_at = $4, updated_at = now()
		WHERE tenant_id = $1 AND id = $2 AND status = $3 AND applied = FALSE
	`, tenantID, id, string(status), appliedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Zero rows is ambiguous: tell a lost race on applied apart
		// from a vanished row or a concurrent status change.
		var applied bool
		err := tx.QueryRow(ctx, `
			SELECT applied FROM change_requests WHERE tenant_id = $1 AND id = $2
		`, tenantID, id).Scan(&applied)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return changerequest.ErrNotFound
		case err != nil:
			return err
		case applied:
			return changerequest.ErrAlreadyApplied
		}
		return changerequest.ErrStatusConflict
	}
	return nil
}

func (r *ChangeRequestRepository) AppendDecision(ctx context.Context, entry *changerequest.DecisionEntry) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO decision_trail (
			id, tenant_id, request_id, actor_id, action, note,
			from_status, to_status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		entry.ID, entry.TenantID, entry.RequestID, entry.ActorID,
		string(entry.Action), entry.Note,
		string(entry.FromStatus), string(entry.ToStatus), entry.CreatedAt,
	)
	return err
}

func (r *ChangeRequestRepository) ListDecisions(ctx context.Context, requestID uuid.UUID) ([]*changerequest.DecisionEntry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, tenant_id, request_id, actor_id, action, note,
		       from_status, to_status, created_at
		FROM decision_trail
		WHERE tenant_id = $1 AND request_id = $2
		ORDER BY created_at, id
	`, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*changerequest.DecisionEntry
	for rows.Next() {
		var (
			entry            changerequest.DecisionEntry
			action, from, to string
			createdAt        pgtype.Timestamptz
		)
		if err := rows.Scan(
			&entry.ID, &entry.TenantID, &entry.RequestID, &entry.ActorID,
			&action, &entry.Note, &from, &to, &createdAt,
		); err != nil {
			return nil, err
		}
		entry.Action = changerequest.Action(action)
		entry.FromStatus = changerequest.Status(from)
		entry.ToStatus = changerequest.Status(to)
		entry.CreatedAt = createdAt.Time
		out = append(out, &entry)
	}
	return out, rows.Err()
}

// ListDue is cross-tenant on purpose: the sweep serves every tenant in
// one pass. Each due request is then applied under its own tenant scope.
func (r *ChangeRequestRepository) ListDue(ctx context.Context, asOf time.Time, limit int) ([]*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := tx.Query(ctx, changeRequestFindQuery+`
		WHERE applied = FALSE
		  AND effective_date <= $1
		  AND ((kind = 'promotion' AND status = 'approved')
		    OR (kind = 'rehire' AND status = 'completed'))
		ORDER BY effective_date, created_at
		LIMIT $2
	`, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*changerequest.ChangeRequest
	for rows.Next() {
		req, err := scanChangeRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanChangeRequest(row pgx.Row) (*changerequest.ChangeRequest, error) {
	var (
		req                    changerequest.ChangeRequest
		kind, status           string
		effectiveDate          pgtype.Date
		appliedAt              pgtype.Timestamptz
		eligStatus, eligReason pgtype.Text
		eligAt                 pgtype.Timestamptz
		createdAt, updatedAt   pgtype.Timestamptz
	)
	if err := row.Scan(
		&req.ID, &req.TenantID, &kind, &req.SubjectID, &req.RequesterID, &status,
		&req.SchemaVersion, &req.Payload, &effectiveDate, &req.Applied, &appliedAt,
		&eligStatus, &eligReason, &eligAt,
		&createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, changerequest.ErrNotFound
		}
		return nil, err
	}
	req.Kind = changerequest.Kind(kind)
	req.Status = changerequest.Status(status)
	req.EffectiveDate = effectiveDate.Time
	req.AppliedAt = asTimePtr(appliedAt)
	req.CreatedAt = createdAt.Time
	req.UpdatedAt = updatedAt.Time
	if eligStatus.Valid {
		req.Eligibility = &changerequest.Verdict{
			Status:      changerequest.VerdictStatus(eligStatus.String),
			ReasonCode:  eligReason.String,
			EvaluatedAt: eligAt.Time,
		}
	}
	return &req, nil
}
