package auditlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one audit record. Every workflow attempt is written here,
// including ones that were rejected for authorization or state reasons.
type Entry struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ActorID    uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Details    json.RawMessage
	Reason     string
	CreatedAt  time.Time
}

type FindParams struct {
	EntityType string
	EntityID   uuid.UUID
	Limit      int
	Offset     int
}

type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	GetPaginated(ctx context.Context, params *FindParams) ([]*Entry, int64, error)
}
