package main

import (
	"context"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/qbloq/dbgraphql/internal/apperr"
	"github.com/qbloq/dbgraphql/internal/cache"
	"github.com/qbloq/dbgraphql/internal/fetch"
	"github.com/qbloq/dbgraphql/internal/gqlgen"
	"github.com/qbloq/dbgraphql/internal/mutate"
	"github.com/qbloq/dbgraphql/internal/schema"
	"github.com/qbloq/dbgraphql/internal/sdata"
	"github.com/qbloq/dbgraphql/internal/subs"
)

// roleSchemas is the wiring spec.md §3.3 describes but no single
// component owns: Request -> role extracted -> C4+C5 -> C6 -> C7
// (cached per-role compiled schema). Built here, in cmd/server, rather
// than inside internal/schema or internal/gqlgen, since it is glue
// between those two packages and the fetcher/mutator/subscriber
// boundary, not a component of its own.
//
// Each cached entry's Fetcher/Mutator/Poller are built against that
// role's FilteredModel, not the golden model — a role's SET ROLE
// connection only has grants on the columns schema.Filter kept for it,
// so a query that reached past those (e.g. by sharing one golden-model
// fetcher across every role) would be rejected by Postgres itself rather
// than cleanly hidden at the GraphQL layer.
type roleSchemas struct {
	golden       *schema.GoldenService
	privileges   *schema.PrivilegeService
	schemaName   string
	roleBased    bool
	pollInterval time.Duration
	cache        *cache.TTLCache
}

func newRoleSchemas(
	golden *schema.GoldenService,
	privileges *schema.PrivilegeService,
	schemaName string,
	roleBased bool,
	ttl time.Duration,
	pollInterval time.Duration,
) (*roleSchemas, error) {
	c, err := cache.New(ttl)
	if err != nil {
		return nil, err
	}
	return &roleSchemas{
		golden:       golden,
		privileges:   privileges,
		schemaName:   schemaName,
		roleBased:    roleBased,
		pollInterval: pollInterval,
		cache:        c,
	}, nil
}

// Get returns the compiled schema for role, building and caching it on
// first use. A cached schema lives until its own TTL expires or
// Invalidate is called; a golden-model or privilege entry expiring or
// being refreshed on its own does not drop the schemas built from it.
// When security.role_based_schema is false, every role maps to the
// golden (full) model (spec.md §9 Open Question decision, see
// DESIGN.md).
func (r *roleSchemas) Get(ctx context.Context, role string) (*graphql.Schema, error) {
	key := role
	if !r.roleBased {
		key = "__golden__"
	}

	v, err := r.cache.ComputeIfAbsent(key, func() (interface{}, error) {
		full, err := r.golden.GetFull(ctx)
		if err != nil {
			return nil, err
		}

		priv := &sdata.RolePrivileges{IsSuperuser: true}
		if r.roleBased {
			priv, err = r.privileges.Get(ctx, role)
			if err != nil {
				return nil, err
			}
		}
		filtered := schema.Filter(full, priv)

		db := sdata.ContextQuerier{}
		fetcher := fetch.New(db, r.schemaName, filtered.Model)
		mutator := mutate.New(db, r.schemaName, filtered.Model)
		poller := subs.NewPoller(fetcher, filtered.Model, r.pollInterval)

		s, err := gqlgen.New(filtered, fetcher, mutator, poller).Build()
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, "build schema for role %q", role)
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*graphql.Schema), nil
}

// Invalidate drops every cached per-role schema and the golden/privilege
// caches behind them, used by the admin refresh endpoint.
func (r *roleSchemas) Invalidate() {
	r.cache.Clear()
	r.golden.Refresh()
	r.privileges.Clear()
}
