// Package schema implements the Full-Schema Service (C4), Role Privilege
// Service (C5) and Schema Filter (C6) of spec.md §4.4–§4.6: caching the
// privileged superuser reflection as the "golden" model, caching
// per-role privileges, and deriving a role-scoped model by intersecting
// the two. Grounded in core/watcher.go's TTL-refresh-loop shape and
// core/schema_diff.go's model-comparison idioms, reworked from graphjin's
// single always-privileged connection into this spec's explicit
// Root+Filter discipline (spec.md §1 item 3).
package schema

import (
	"context"
	"time"

	"github.com/qbloq/dbgraphql/internal/apperr"
	"github.com/qbloq/dbgraphql/internal/cache"
	"github.com/qbloq/dbgraphql/internal/sdata"
)

// GoldenService is spec.md's Full-Schema Service (C4): it performs the
// privileged reflection once per TTL and exposes the result as the single
// source of truth for role-scoped derivations (the "golden schema" of the
// GLOSSARY).
type GoldenService struct {
	reflector  *sdata.Reflector
	schemaName string
	ttl        time.Duration
	cache      *cache.TTLCache
}

const goldenKey = "golden"

// NewGoldenService builds a GoldenService over reflector for schemaName,
// caching the result for ttl (spec.md §3.3 "Golden schema").
func NewGoldenService(reflector *sdata.Reflector, schemaName string, ttl time.Duration) (*GoldenService, error) {
	c, err := cache.New(ttl)
	if err != nil {
		return nil, err
	}
	return &GoldenService{reflector: reflector, schemaName: schemaName, ttl: ttl, cache: c}, nil
}

// GetFull returns the golden model, reflecting on first access and
// serving from cache thereafter until TTL expiry or an explicit Refresh.
func (g *GoldenService) GetFull(ctx context.Context) (sdata.Model, error) {
	v, err := g.cache.ComputeIfAbsent(goldenKey, func() (interface{}, error) {
		m, err := g.reflector.Reflect(ctx, g.schemaName)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, "reflect golden schema")
		}
		return m, nil
	})
	if err != nil {
		return sdata.Model{}, err
	}
	return v.(sdata.Model), nil
}

// Refresh forces the next GetFull to re-reflect the database, evicting
// both this cache and the underlying Reflector's cache for the schema.
func (g *GoldenService) Refresh() {
	g.cache.Remove(goldenKey)
	g.reflector.Invalidate(g.schemaName)
}

// Clear drops the cached golden model without forcing a re-reflect of the
// underlying Reflector cache — used when only this layer's view needs to
// be invalidated (e.g. in tests).
func (g *GoldenService) Clear() {
	g.cache.Remove(goldenKey)
}
