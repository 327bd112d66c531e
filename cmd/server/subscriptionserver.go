package main

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/qbloq/dbgraphql/internal/loader"
	"github.com/qbloq/dbgraphql/internal/sdata"
	"github.com/qbloq/dbgraphql/internal/subs"
)

// subscriptionServer resolves the requesting role's compiled schema and
// hands the upgrade off to a subs.Multiplexer built against it, attaching
// a role-scoped database connection that lives for the whole socket's
// lifetime rather than per poll (component C12, spec.md §4.11). A
// Multiplexer is cheap to construct (one schema reference, one upgrader),
// so building one per upgrade keeps this handler stateless between
// requests while still serving the right role's schema.
type subscriptionServer struct {
	pool    *pgxpool.Pool
	schemas *roleSchemas
	log     *zap.SugaredLogger
}

func newSubscriptionServer(pool *pgxpool.Pool, schemas *roleSchemas, log *zap.SugaredLogger) *subscriptionServer {
	return &subscriptionServer{pool: pool, schemas: schemas, log: log}
}

func (s *subscriptionServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role := roleFromRequest(r)

	schema, err := s.schemas.Get(ctx, role)
	if err != nil {
		s.log.Errorw("resolving schema for subscription upgrade", "role", role, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	mux := subs.NewWithContext(*schema, s.sessionContext(role))
	mux.ServeHTTP(w, r)
}

// sessionContext acquires one role-scoped connection per upgraded socket
// and attaches it, and a fresh batch loader, to the context every
// subscription on that socket resolves under. The release func resets the
// role and returns the connection to the pool once the socket closes.
func (s *subscriptionServer) sessionContext(role string) subs.ContextFactory {
	return func(r *http.Request) (context.Context, func(), error) {
		roleConn, err := sdata.AcquireRole(r.Context(), s.pool, role)
		if err != nil {
			return nil, nil, err
		}

		ctx := sdata.WithConn(context.Background(), roleConn)
		ctx = loader.WithLoader(ctx, loader.New())

		release := func() {
			roleConn.Release(context.Background())
		}
		return ctx, release, nil
	}
}
