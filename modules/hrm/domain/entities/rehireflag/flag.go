package rehireflag

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Flag is a do-not-rehire marker. A flag with a nil expiry never expires.
type Flag struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	SubjectID uuid.UUID
	Reason    string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

func (f *Flag) ActiveAt(day time.Time) bool {
	if f.ExpiresAt == nil {
		return true
	}
	return !f.ExpiresAt.Before(day)
}

type Repository interface {
	// ActiveExists reports whether any non-expired flag exists for the
	// subject as of the given day.
	ActiveExists(ctx context.Context, subjectID uuid.UUID, asOf time.Time) (bool, error)
	Raise(ctx context.Context, flag *Flag) (*Flag, error)
	Expire(ctx context.Context, id uuid.UUID, at time.Time) error
}
