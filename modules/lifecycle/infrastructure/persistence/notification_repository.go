package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/entities/notification"
	"github.com/velora-hq/velora-hcm/pkg/composables"
	"github.com/velora-hq/velora-hcm/pkg/repo"
)

type NotificationRepository struct{}

func NewNotificationRepository() notification.Repository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *notification.Notification) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO notifications (
			id, tenant_id, subject_id, title, message, category, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		n.ID, n.TenantID, n.SubjectID, n.Title, n.Message, string(n.Category), n.CreatedAt,
	)
	return err
}

func (r *NotificationRepository) ListForSubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*notification.Notification, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := tx.Query(ctx, `
		SELECT id, tenant_id, subject_id, title, message, category, created_at, read_at
		FROM notifications
		WHERE tenant_id = $1 AND subject_id = $2
		ORDER BY created_at DESC `+repo.FormatLimitOffset(limit, offset),
		tenantID, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*notification.Notification
	for rows.Next() {
		var (
			n                 notification.Notification
			category          string
			createdAt, readAt pgtype.Timestamptz
		)
		if err := rows.Scan(
			&n.ID, &n.TenantID, &n.SubjectID, &n.Title, &n.Message,
			&category, &createdAt, &readAt,
		); err != nil {
			return nil, err
		}
		n.Category = notification.Category(category)
		n.CreatedAt = createdAt.Time
		n.ReadAt = asTimePtr(readAt)
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE notifications SET read_at = $3
		WHERE tenant_id = $1 AND id = $2 AND read_at IS NULL
	`, tenantID, id, at)
	return err
}
