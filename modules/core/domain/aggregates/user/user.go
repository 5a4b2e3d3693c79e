package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role names are reused by the lifecycle role-set configuration; transitions
// are gated on membership in configured sets, not on hardcoded roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleHR        Role = "hr"
	RoleManager   Role = "manager"
	RoleRecruiter Role = "recruiter"
	RoleEmployee  Role = "employee"
)

type User struct {
	id          uuid.UUID
	tenantID    uuid.UUID
	email       string
	displayName string
	roles       []Role
	active      bool
	createdAt   time.Time
	updatedAt   time.Time
}

func New(tenantID uuid.UUID, email, displayName string, roles []Role) *User {
	return &User{
		id:          uuid.New(),
		tenantID:    tenantID,
		email:       strings.ToLower(strings.TrimSpace(email)),
		displayName: strings.TrimSpace(displayName),
		roles:       roles,
		active:      true,
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	email string,
	displayName string,
	roles []Role,
	active bool,
	createdAt time.Time,
	updatedAt time.Time,
) *User {
	return &User{
		id:          id,
		tenantID:    tenantID,
		email:       email,
		displayName: displayName,
		roles:       roles,
		active:      active,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) TenantID() uuid.UUID  { return u.tenantID }
func (u *User) Email() string        { return u.email }
func (u *User) DisplayName() string  { return u.displayName }
func (u *User) Roles() []Role        { return u.roles }
func (u *User) IsActive() bool       { return u.active }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

func (u *User) HasRole(role Role) bool {
	for _, r := range u.roles {
		if r == role {
			return true
		}
	}
	return false
}
