package persistence

import (
	"context"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/velora-hq/velora-hcm/modules/hrm/domain/entities/rehireflag"
	"github.com/velora-hq/velora-hcm/pkg/composables"
)

type RehireFlagRepository struct{}

func NewRehireFlagRepository() rehireflag.Repository {
	return &RehireFlagRepository{}
}

func (r *RehireFlagRepository) ActiveExists(ctx context.Context, subjectID uuid.UUID, asOf time.Time) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM do_not_rehire_flags
			WHERE tenant_id = $1
			  AND subject_id = $2
			  AND (expires_at IS NULL OR expires_at >= $3)
		)
	`, tenantID, subjectID, asOf).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *RehireFlagRepository) Raise(ctx context.Context, flag *rehireflag.Flag) (*rehireflag.Flag, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	id := flag.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO do_not_rehire_flags (id, tenant_id, subject_id, reason, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, tenantID, flag.SubjectID, flag.Reason, flag.ExpiresAt)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to raise do-not-rehire flag")
	}

	out := *flag
	out.ID = id
	out.TenantID = tenantID
	return &out, nil
}

func (r *RehireFlagRepository) Expire(ctx context.Context, id uuid.UUID, at time.Time) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE do_not_rehire_flags
		SET expires_at = $3
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id, at)
	return err
}
