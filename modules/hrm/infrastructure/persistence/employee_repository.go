package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/velora-hq/velora-hcm/modules/hrm/domain/aggregates/employee"
	"github.com/velora-hq/velora-hcm/pkg/composables"
	"github.com/velora-hq/velora-hcm/pkg/repo"
)

const employeeFindQuery = `
	SELECT id, tenant_id, pernr, first_name, last_name, email,
	       designation, grade, department, compensation,
	       reporting_manager_id, is_active, created_at, updated_at
	FROM employees`

type EmployeeRepository struct{}

func NewEmployeeRepository() employee.Repository {
	return &EmployeeRepository{}
}

func (r *EmployeeRepository) GetPaginated(ctx context.Context, params *employee.FindParams) ([]*employee.Employee, int64, error) {
	if params == nil {
		params = &employee.FindParams{}
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, 0, err
	}

	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if q := strings.TrimSpace(params.Q); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR pernr ILIKE $%d)", len(args), len(args), len(args)))
	}
	if d := strings.TrimSpace(params.Department); d != "" {
		args = append(args, d)
		where = append(where, fmt.Sprintf("department = $%d", len(args)))
	}
	if params.Active != nil {
		args = append(args, *params.Active)
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)))
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	query := employeeFindQuery +
		" WHERE " + strings.Join(where, " AND ") +
		" ORDER BY pernr " + repo.FormatLimitOffset(limit, offset)
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := tx.QueryRow(ctx,
		"SELECT COUNT(*) FROM employees WHERE "+strings.Join(where, " AND "), args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
	return r.queryOne(ctx, employeeFindQuery+" WHERE tenant_id = $1 AND id = $2", id)
}

func (r *EmployeeRepository) GetByPernr(ctx context.Context, pernr string) (*employee.Employee, error) {
	return r.queryOne(ctx, employeeFindQuery+" WHERE tenant_id = $1 AND pernr = $2", strings.TrimSpace(pernr))
}

func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO employees (
			id, tenant_id, pernr, first_name, last_name, email,
			designation, grade, department, compensation,
			reporting_manager_id, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		e.ID(), tenantID, e.Pernr(), e.FirstName(), e.LastName(), e.Email(),
		e.Designation(), e.Grade(), e.Department(), e.Compensation(),
		e.ReportingManagerID(), e.IsActive(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, employee.ErrPernrTaken
		}
		return nil, gerrors.Wrap(err, "failed to create employee")
	}
	return r.GetByID(ctx, e.ID())
}

func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE employees
		SET first_name = $3,
		    last_name = $4,
		    email = $5,
		    designation = $6,
		    grade = $7,
		    department = $8,
		    compensation = $9,
		    reporting_manager_id = $10,
		    is_active = $11,
		    updated_at = now()
		WHERE tenant_id = $1 AND id = $2
	`,
		tenantID, e.ID(), e.FirstName(), e.LastName(), e.Email(),
		e.Designation(), e.Grade(), e.Department(), e.Compensation(),
		e.ReportingManagerID(), e.IsActive(),
	)
	if err != nil {
		return gerrors.Wrap(err, "failed to update employee")
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrNotFound
	}
	return nil
}

func (r *EmployeeRepository) queryOne(ctx context.Context, query string, arg any) (*employee.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, tenantID, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, employee.ErrNotFound
	}
	return scanEmployee(rows)
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		id, tenantID               uuid.UUID
		pernr, firstName, lastName string
		email                      string
		designation, grade, dept   string
		compensation               decimal.Decimal
		reportingManagerID         *uuid.UUID
		isActive                   bool
		createdAt, updatedAt       pgtype.Timestamptz
	)
	if err := row.Scan(
		&id, &tenantID, &pernr, &firstName, &lastName, &email,
		&designation, &grade, &dept, &compensation,
		&reportingManagerID, &isActive, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	return employee.Hydrate(
		tenantID, id, pernr, firstName, lastName, email,
		designation, grade, dept, compensation,
		reportingManagerID, isActive, createdAt.Time, updatedAt.Time,
	), nil
}
