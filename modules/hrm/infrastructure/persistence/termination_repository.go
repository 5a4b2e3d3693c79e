package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/velora-hq/velora-hcm/modules/hrm/domain/entities/termination"
	"github.com/velora-hq/velora-hcm/pkg/composables"
)

type TerminationRepository struct{}

func NewTerminationRepository() termination.Repository {
	return &TerminationRepository{}
}

func (r *TerminationRepository) Latest(ctx context.Context, subjectID uuid.UUID) (*termination.Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	var (
		id             uuid.UUID
		termType       string
		reason         string
		lastWorkingDay pgtype.Date
		recordedAt     pgtype.Timestamptz
	)
	err = tx.QueryRow(ctx, `
		SELECT id, termination_type, reason, last_working_day, recorded_at
		FROM terminations
		WHERE tenant_id = $1 AND subject_id = $2
		ORDER BY recorded_at DESC
		LIMIT 1
	`, tenantID, subjectID).Scan(&id, &termType, &reason, &lastWorkingDay, &recordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, termination.ErrNoRecord
		}
		return nil, err
	}

	return &termination.Record{
		ID:             id,
		TenantID:       tenantID,
		SubjectID:      subjectID,
		Type:           termination.Type(termType),
		Reason:         reason,
		LastWorkingDay: asDatePtr(lastWorkingDay),
		RecordedAt:     recordedAt.Time,
	}, nil
}

func (r *TerminationRepository) Record(ctx context.Context, rec *termination.Record) (*termination.Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	id := rec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO terminations (id, tenant_id, subject_id, termination_type, reason, last_working_day)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, tenantID, rec.SubjectID, string(rec.Type), rec.Reason, rec.LastWorkingDay)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to record termination")
	}
	return r.Latest(ctx, rec.SubjectID)
}
