package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryApproval    Category = "approval"
	CategoryRejection   Category = "rejection"
	CategoryApplication Category = "application"
)

type Notification struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	SubjectID uuid.UUID
	Title     string
	Message   string
	Category  Category
	CreatedAt time.Time
	ReadAt    *time.Time
}

type Repository interface {
	Insert(ctx context.Context, n *Notification) error
	ListForSubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error
}
