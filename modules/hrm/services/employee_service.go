package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/velora-hq/velora-hcm/modules/hrm/domain/aggregates/employee"
	"github.com/velora-hq/velora-hcm/pkg/composables"
	"github.com/velora-hq/velora-hcm/pkg/eventbus"
)

type EmployeeService struct {
	repo      employee.Repository
	publisher eventbus.EventBus
}

func NewEmployeeService(repo employee.Repository, publisher eventbus.EventBus) *EmployeeService {
	return &EmployeeService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *EmployeeService) GetPaginated(ctx context.Context, params *employee.FindParams) ([]*employee.Employee, int64, error) {
	type page struct {
		items []*employee.Employee
		total int64
	}
	out, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (page, error) {
		items, total, err := s.repo.GetPaginated(txCtx, params)
		return page{items: items, total: total}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return out.items, out.total, nil
}

func (s *EmployeeService) GetByID(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*employee.Employee, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *EmployeeService) GetByPernr(ctx context.Context, pernr string) (*employee.Employee, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*employee.Employee, error) {
		return s.repo.GetByPernr(txCtx, pernr)
	})
}

func (s *EmployeeService) Create(ctx context.Context, dto *employee.CreateDTO) (*employee.Employee, error) {
	if fieldErrs, ok := dto.Ok(); !ok {
		return nil, fieldErrs
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	created, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*employee.Employee, error) {
		return s.repo.Create(txCtx, dto.ToEntity(tenantID))
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(employee.NewCreatedEvent(created))
	return created, nil
}

func (s *EmployeeService) Update(ctx context.Context, e *employee.Employee) error {
	if err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
		return s.repo.Update(txCtx, e)
	}); err != nil {
		return err
	}
	s.publisher.Publish(employee.NewUpdatedEvent(e))
	return nil
}
