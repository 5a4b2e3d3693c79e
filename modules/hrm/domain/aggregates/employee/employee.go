package employee

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Employee is the authoritative personnel record. Approved lifecycle changes
// are applied onto it exactly once by the change applier.
type Employee struct {
	tenantID           uuid.UUID
	id                 uuid.UUID
	pernr              string
	firstName          string
	lastName           string
	email              string
	designation        string
	grade              string
	department         string
	compensation       decimal.Decimal
	reportingManagerID *uuid.UUID
	active             bool
	createdAt          time.Time
	updatedAt          time.Time
}

func New(tenantID uuid.UUID, pernr, firstName, lastName, email string) *Employee {
	return &Employee{
		tenantID:  tenantID,
		id:        uuid.New(),
		pernr:     strings.TrimSpace(pernr),
		firstName: strings.TrimSpace(firstName),
		lastName:  strings.TrimSpace(lastName),
		email:     strings.ToLower(strings.TrimSpace(email)),
		active:    true,
	}
}

func Hydrate(
	tenantID uuid.UUID,
	id uuid.UUID,
	pernr string,
	firstName string,
	lastName string,
	email string,
	designation string,
	grade string,
	department string,
	compensation decimal.Decimal,
	reportingManagerID *uuid.UUID,
	active bool,
	createdAt time.Time,
	updatedAt time.Time,
) *Employee {
	return &Employee{
		tenantID:           tenantID,
		id:                 id,
		pernr:              pernr,
		firstName:          firstName,
		lastName:           lastName,
		email:              email,
		designation:        designation,
		grade:              grade,
		department:         department,
		compensation:       compensation,
		reportingManagerID: reportingManagerID,
		active:             active,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

func (e *Employee) TenantID() uuid.UUID            { return e.tenantID }
func (e *Employee) ID() uuid.UUID                  { return e.id }
func (e *Employee) Pernr() string                  { return e.pernr }
func (e *Employee) FirstName() string              { return e.firstName }
func (e *Employee) LastName() string               { return e.lastName }
func (e *Employee) Email() string                  { return e.email }
func (e *Employee) Designation() string            { return e.designation }
func (e *Employee) Grade() string                  { return e.grade }
func (e *Employee) Department() string             { return e.department }
func (e *Employee) Compensation() decimal.Decimal  { return e.compensation }
func (e *Employee) ReportingManagerID() *uuid.UUID { return e.reportingManagerID }
func (e *Employee) IsActive() bool                 { return e.active }
func (e *Employee) CreatedAt() time.Time           { return e.createdAt }
func (e *Employee) UpdatedAt() time.Time           { return e.updatedAt }

func (e *Employee) DisplayName() string {
	return strings.TrimSpace(e.firstName + " " + e.lastName)
}

// SetProfile replaces the mutable profile fields during a regular update.
func (e *Employee) SetProfile(designation, grade, department string, compensation decimal.Decimal, reportingManagerID *uuid.UUID) {
	e.designation = strings.TrimSpace(designation)
	e.grade = strings.TrimSpace(grade)
	e.department = strings.TrimSpace(department)
	e.compensation = compensation
	e.reportingManagerID = reportingManagerID
}

// ApplyPromotion writes an approved promotion onto the profile. Empty fields
// in the proposal leave the current value untouched.
func (e *Employee) ApplyPromotion(designation, grade, department string, compensation decimal.Decimal) {
	if v := strings.TrimSpace(designation); v != "" {
		e.designation = v
	}
	if v := strings.TrimSpace(grade); v != "" {
		e.grade = v
	}
	if v := strings.TrimSpace(department); v != "" {
		e.department = v
	}
	if compensation.IsPositive() {
		e.compensation = compensation
	}
}

func (e *Employee) Deactivate() { e.active = false }
func (e *Employee) Reactivate() { e.active = true }
