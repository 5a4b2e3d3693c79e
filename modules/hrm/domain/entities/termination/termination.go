package termination

import (
	"context"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
)

var ErrNoRecord = gerrors.New("no termination record")

type Type string

const (
	// TypeCause marks a termination for cause; it makes the subject
	// ineligible for rehire.
	TypeCause Type = "cause"
	TypeOther Type = "other"
)

// Record is the most recent termination of a subject. The lifecycle core
// only reads it; writes happen when an employee is offboarded.
type Record struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	SubjectID      uuid.UUID
	Type           Type
	Reason         string
	LastWorkingDay *time.Time
	RecordedAt     time.Time
}

type Repository interface {
	// Latest returns the most recent termination record for the subject,
	// or ErrNoRecord when none exists.
	Latest(ctx context.Context, subjectID uuid.UUID) (*Record, error)
	Record(ctx context.Context, rec *Record) (*Record, error)
}
