package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/entities/auditlog"
	"github.com/velora-hq/velora-hcm/pkg/composables"
	"github.com/velora-hq/velora-hcm/pkg/repo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type AuditLogRepository struct{}

func NewAuditLogRepository() auditlog.Repository {
	return &AuditLogRepository{}
}

func (r *AuditLogRepository) Insert(ctx context.Context, entry *auditlog.Entry) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO audit_logs (
			id, tenant_id, actor_id, action, entity_type, entity_id,
			details, reason, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		entry.ID, entry.TenantID, entry.ActorID, entry.Action,
		entry.EntityType, entry.EntityID, entry.Details, entry.Reason,
		entry.CreatedAt,
	)
	return err
}

func (r *AuditLogRepository) GetPaginated(ctx context.Context, params *auditlog.FindParams) ([]*auditlog.Entry, int64, error) {
	if params == nil {
		params = &auditlog.FindParams{}
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
	if params.EntityType != "" {
		args = append(args, params.EntityType)
		where = append(where, fmt.Sprintf("entity_type = $%d", len(args)))
	}
	if params.EntityID != uuid.Nil {
		args = append(args, params.EntityID)
		where = append(where, fmt.Sprintf("entity_id = $%d", len(args)))
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, tenant_id, actor_id, action, entity_type, entity_id,
		       details, reason, created_at
		FROM audit_logs
		WHERE ` + strings.Join(where, " AND ") +
		" ORDER BY created_at DESC " + repo.FormatLimitOffset(limit, offset)
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*auditlog.Entry, 0, limit)
	for rows.Next() {
		var (
			entry     auditlog.Entry
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(
			&entry.ID, &entry.TenantID, &entry.ActorID, &entry.Action,
			&entry.EntityType, &entry.EntityID, &entry.Details, &entry.Reason,
			&createdAt,
		); err != nil {
			return nil, 0, err
		}
		entry.CreatedAt = createdAt.Time
		out = append(out, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := tx.QueryRow(ctx,
		"SELECT COUNT(*) FROM audit_logs WHERE "+strings.Join(where, " AND "), args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
