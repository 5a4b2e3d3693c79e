package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/entities/auditlog"
	"github.com/velora-hq/velora-hcm/pkg/composables"
)

// AuditRecord describes one auditable action, successful or refused.
type AuditRecord struct {
	ActorID    uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Details    any
	Reason     string
}

// AuditRecorder receives a record after every workflow attempt and
// every apply. Implementations must not fail the business operation:
// a write error is logged, not propagated.
type AuditRecorder interface {
	Record(ctx context.Context, rec AuditRecord)
}

type pgAuditRecorder struct {
	repo auditlog.Repository
}

func NewAuditRecorder(repo auditlog.Repository) AuditRecorder {
	return &pgAuditRecorder{repo: repo}
}

func (a *pgAuditRecorder) Record(ctx context.Context, rec AuditRecord) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		composables.UseLogger(ctx).WithError(err).Warn("audit record dropped: no tenant in context")
		return
	}

	var details json.RawMessage
	if rec.Details != nil {
		if raw, err := json.Marshal(rec.Details); err == nil {
			details = raw
		}
	}

	entry := &auditlog.Entry{
		ID:         uuid.New(),
		TenantID:   tenantID,
		ActorID:    rec.ActorID,
		Action:     rec.Action,
		EntityType: rec.EntityType,
		EntityID:   rec.EntityID,
		Details:    details,
		Reason:     rec.Reason,
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.repo.Insert(ctx, entry); err != nil {
		composables.UseLogger(ctx).WithFields(logrus.Fields{
			"action":    rec.Action,
			"entity_id": rec.EntityID,
		}).WithError(err).Error("failed to write audit log entry")
	}
}

// AuditLogService is the read side of the audit log, for compliance
// review queues.
type AuditLogService struct {
	repo auditlog.Repository
}

func NewAuditLogService(repo auditlog.Repository) *AuditLogService {
	return &AuditLogService{repo: repo}
}

func (s *AuditLogService) GetPaginated(ctx context.Context, params *auditlog.FindParams) ([]*auditlog.Entry, int64, error) {
	type page struct {
		items []*auditlog.Entry
		total int64
	}
	result, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (page, error) {
		items, total, err := s.repo.GetPaginated(txCtx, params)
		return page{items: items, total: total}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return result.items, result.total, nil
}
