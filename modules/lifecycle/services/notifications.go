package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/entities/notification"
	"github.com/velora-hq/velora-hcm/pkg/composables"
	"github.com/velora-hq/velora-hcm/pkg/eventbus"
)

// NotificationEmitter delivers a message to the subject of a request.
// Delivery failures must not fail the transition that triggered them.
type NotificationEmitter interface {
	Notify(ctx context.Context, subjectID uuid.UUID, title, message string, category notification.Category)
}

type pgNotificationEmitter struct {
	repo      notification.Repository
	publisher eventbus.EventBus
}

func NewNotificationEmitter(repo notification.Repository, publisher eventbus.EventBus) NotificationEmitter {
	return &pgNotificationEmitter{repo: repo, publisher: publisher}
}

func (e *pgNotificationEmitter) Notify(ctx context.Context, subjectID uuid.UUID, title, message string, category notification.Category) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		composables.UseLogger(ctx).WithError(err).Warn("notification dropped: no tenant in context")
		return
	}
	n := &notification.Notification{
		ID:        uuid.New(),
		TenantID:  tenantID,
		SubjectID: subjectID,
		Title:     title,
		Message:   message,
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.repo.Insert(ctx, n); err != nil {
		composables.UseLogger(ctx).WithError(err).Error("failed to store notification")
		return
	}
	e.publisher.Publish(notification.NewCreatedEvent(n))
}

// NotificationService is the read/ack side of the notification feed.
type NotificationService struct {
	repo notification.Repository
	now  func() time.Time
}

func NewNotificationService(repo notification.Repository) *NotificationService {
	return &NotificationService{repo: repo, now: time.Now}
}

func (s *NotificationService) ListForSubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*notification.Notification, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*notification.Notification, error) {
		return s.repo.ListForSubject(txCtx, subjectID, limit, offset)
	})
}

func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		return s.repo.MarkRead(txCtx, id, s.now().UTC())
	})
}
