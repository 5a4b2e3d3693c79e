package persistence

import (
	"context"
	"errors"
	"strings"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/velora-hq/velora-hcm/modules/core/domain/aggregates/user"
	"github.com/velora-hq/velora-hcm/pkg/composables"
)

var ErrEmailTaken = gerrors.New("email already taken")

const userFindQuery = `
	SELECT id, tenant_id, email, display_name, roles, is_active, created_at, updated_at
	FROM users`

type UserRepository struct{}

func NewUserRepository() user.Repository {
	return &UserRepository{}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.queryUser(ctx, userFindQuery+" WHERE id = $1", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.queryUser(ctx, userFindQuery+" WHERE email = $1", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	roles := make([]string, 0, len(u.Roles()))
	for _, role := range u.Roles() {
		roles = append(roles, string(role))
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, tenant_id, email, display_name, roles, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID(), u.TenantID(), u.Email(), u.DisplayName(), roles, u.IsActive())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, gerrors.Wrap(err, "failed to create user")
	}
	return r.GetByID(ctx, u.ID())
}

func (r *UserRepository) queryUser(ctx context.Context, query string, args ...any) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var (
		id, tenantID         uuid.UUID
		email, displayName   string
		roles                []string
		isActive             bool
		createdAt, updatedAt pgtype.Timestamptz
	)
	if err := tx.QueryRow(ctx, query, args...).Scan(
		&id, &tenantID, &email, &displayName, &roles, &isActive, &createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}

	domainRoles := make([]user.Role, 0, len(roles))
	for _, role := range roles {
		domainRoles = append(domainRoles, user.Role(role))
	}
	return user.Hydrate(id, tenantID, email, displayName, domainRoles, isActive, createdAt.Time, updatedAt.Time), nil
}
