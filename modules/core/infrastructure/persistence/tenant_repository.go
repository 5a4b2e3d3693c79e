package persistence

import (
	"context"
	"errors"
	"strings"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/velora-hq/velora-hcm/modules/core/domain/entities/tenant"
	"github.com/velora-hq/velora-hcm/pkg/composables"
)

var ErrTenantNotFound = gerrors.New("tenant not found")

const tenantFindQuery = `
	SELECT id, name, domain, is_active, created_at, updated_at
	FROM tenants`

type TenantRepository struct{}

func NewTenantRepository() tenant.Repository {
	return &TenantRepository{}
}

func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return r.queryTenant(ctx, tenantFindQuery+" WHERE id = $1", id)
}

func (r *TenantRepository) GetByDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	return r.queryTenant(ctx, tenantFindQuery+" WHERE domain = $1", strings.ToLower(strings.TrimSpace(domain)))
}

func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO tenants (id, name, domain, is_active)
		VALUES ($1, $2, $3, $4)
	`, t.ID(), t.Name(), t.Domain(), t.IsActive())
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to create tenant")
	}
	return r.GetByID(ctx, t.ID())
}

func (r *TenantRepository) queryTenant(ctx context.Context, query string, args ...any) (*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var (
		id                   uuid.UUID
		name                 string
		domain               string
		isActive             bool
		createdAt, updatedAt pgtype.Timestamptz
	)
	if err := tx.QueryRow(ctx, query, args...).Scan(&id, &name, &domain, &isActive, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return tenant.Hydrate(id, name, domain, isActive, createdAt.Time, updatedAt.Time), nil
}
