package tenant

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	id        uuid.UUID
	name      string
	domain    string
	isActive  bool
	createdAt time.Time
	updatedAt time.Time
}

func New(name, domain string) *Tenant {
	return &Tenant{
		id:       uuid.New(),
		name:     strings.TrimSpace(name),
		domain:   strings.ToLower(strings.TrimSpace(domain)),
		isActive: true,
	}
}

func Hydrate(
	id uuid.UUID,
	name string,
	domain string,
	isActive bool,
	createdAt time.Time,
	updatedAt time.Time,
) *Tenant {
	return &Tenant{
		id:        id,
		name:      name,
		domain:    domain,
		isActive:  isActive,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (t *Tenant) ID() uuid.UUID        { return t.id }
func (t *Tenant) Name() string         { return t.name }
func (t *Tenant) Domain() string       { return t.domain }
func (t *Tenant) IsActive() bool       { return t.isActive }
func (t *Tenant) CreatedAt() time.Time { return t.createdAt }
func (t *Tenant) UpdatedAt() time.Time { return t.updatedAt }
