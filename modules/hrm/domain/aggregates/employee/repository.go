package employee

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrNotFound   = gerrors.New("employee not found")
	ErrPernrTaken = gerrors.New("pernr already taken")
)

type FindParams struct {
	Q          string
	Department string
	Active     *bool
	Limit      int
	Offset     int
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]*Employee, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	GetByPernr(ctx context.Context, pernr string) (*Employee, error)
	Create(ctx context.Context, e *Employee) (*Employee, error)
	Update(ctx context.Context, e *Employee) error
}
