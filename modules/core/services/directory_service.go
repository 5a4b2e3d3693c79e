package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/velora-hq/velora-hcm/modules/core/domain/aggregates/user"
	"github.com/velora-hq/velora-hcm/modules/core/domain/entities/tenant"
)

// DirectoryService resolves actors to their tenant and role set. It is the
// tenant/role resolution collaborator consumed by the lifecycle workflow.
type DirectoryService struct {
	users   user.Repository
	tenants tenant.Repository
}

func NewDirectoryService(users user.Repository, tenants tenant.Repository) *DirectoryService {
	return &DirectoryService{users: users, tenants: tenants}
}

func (s *DirectoryService) ResolveTenant(ctx context.Context, actorID uuid.UUID) (uuid.UUID, error) {
	u, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return uuid.Nil, err
	}
	return u.TenantID(), nil
}

func (s *DirectoryService) ResolveRoles(ctx context.Context, actorID uuid.UUID) ([]user.Role, error) {
	u, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return u.Roles(), nil
}

func (s *DirectoryService) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *DirectoryService) GetTenant(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return s.tenants.GetByID(ctx, id)
}

func (s *DirectoryService) CreateTenant(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	return s.tenants.Create(ctx, t)
}

func (s *DirectoryService) CreateUser(ctx context.Context, u *user.User) (*user.User, error) {
	return s.users.Create(ctx, u)
}
