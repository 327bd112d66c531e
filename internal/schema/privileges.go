package schema

import (
	"context"
	"time"

	"github.com/qbloq/dbgraphql/internal/apperr"
	"github.com/qbloq/dbgraphql/internal/cache"
	"github.com/qbloq/dbgraphql/internal/sdata"
)

// PrivilegeService is spec.md's Role Privilege Service (C5): reads and
// caches per-role table/column privileges and RLS policy visibility,
// created on first use of a role and cached with TTL per role (spec.md
// §3.3 "Role privileges").
type PrivilegeService struct {
	db         sdata.Querier
	schemaName string
	cache      *cache.TTLCache
}

// NewPrivilegeService builds a PrivilegeService reading from db, caching
// per-role results for ttl.
func NewPrivilegeService(db sdata.Querier, schemaName string, ttl time.Duration) (*PrivilegeService, error) {
	c, err := cache.New(ttl)
	if err != nil {
		return nil, err
	}
	return &PrivilegeService{db: db, schemaName: schemaName, cache: c}, nil
}

// Get returns the cached RolePrivileges for role, reading from the
// catalog on first use (spec.md §4.4).
func (p *PrivilegeService) Get(ctx context.Context, role string) (*sdata.RolePrivileges, error) {
	v, err := p.cache.ComputeIfAbsent(role, func() (interface{}, error) {
		rp, err := sdata.ReadRolePrivileges(ctx, p.db, p.schemaName, role)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, "read privileges for role %q", role)
		}
		return rp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sdata.RolePrivileges), nil
}

// Refresh forces the next Get for role to re-read the catalog.
func (p *PrivilegeService) Refresh(role string) {
	p.cache.Remove(role)
}

// Clear evicts every cached role's privileges.
func (p *PrivilegeService) Clear() {
	p.cache.Clear()
}
