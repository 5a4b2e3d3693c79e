package employee

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/velora-hq/velora-hcm/pkg/constants"
	"github.com/velora-hq/velora-hcm/pkg/serrors"
)

type CreateDTO struct {
	Pernr        string          `json:"pernr" validate:"required"`
	FirstName    string          `json:"first_name" validate:"required"`
	LastName     string          `json:"last_name" validate:"required"`
	Email        string          `json:"email" validate:"required,email"`
	Designation  string          `json:"designation"`
	Grade        string          `json:"grade"`
	Department   string          `json:"department"`
	Compensation decimal.Decimal `json:"compensation"`
}

func (d *CreateDTO) Normalize() {
	d.Pernr = strings.TrimSpace(d.Pernr)
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
}

// Ok validates the DTO, returning per-field failures.
func (d *CreateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()
	errs := constants.Validate.Struct(d)
	if errs == nil {
		return serrors.ValidationErrors{}, true
	}
	return serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors)), false
}

func (d *CreateDTO) ToEntity(tenantID uuid.UUID) *Employee {
	e := New(tenantID, d.Pernr, d.FirstName, d.LastName, d.Email)
	e.SetProfile(d.Designation, d.Grade, d.Department, d.Compensation, nil)
	return e
}
