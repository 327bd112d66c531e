package sdata

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qbloq/dbgraphql/internal/apperr"
)

// RoleConn is one pooled connection with a database role applied for the
// lifetime of a request (spec.md §3.3: "a per-request role is applied via
// the database's role-set facility on the connection for the duration of
// the request, then reset"). It satisfies both Querier and Beginner so
// fetch.Fetcher and mutate.Mutator need no changes to run role-scoped.
type RoleConn struct {
	conn *pgxpool.Conn
	role string
}

// AcquireRole checks out a connection from pool and applies role with
// SET ROLE, identifier-sanitized the way wayli-app-fluxbase's SQL
// executor sanitizes caller-supplied schema names (pgx.Identifier.Sanitize),
// since SET ROLE accepts no bound parameter. An empty role leaves the
// connection's default role in place.
func AcquireRole(ctx context.Context, pool *pgxpool.Pool, role string) (*RoleConn, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "acquire connection for role %q", role)
	}
	if role != "" {
		stmt := fmt.Sprintf("SET ROLE %s", pgx.Identifier{role}.Sanitize())
		if _, err := conn.Exec(ctx, stmt); err != nil {
			conn.Release()
			return nil, apperr.Wrap(apperr.Internal, err, "set role %q", role)
		}
	}
	return &RoleConn{conn: conn, role: role}, nil
}

// Query implements Querier against the checked-out connection.
func (r *RoleConn) Query(ctx context.Context, sql string, args ...interface{}) (Rows, error) {
	return r.conn.Query(ctx, sql, args...)
}

// Begin implements Beginner against the checked-out connection, so
// create_with_relationships (spec.md §4.10) runs its whole transaction
// under the request's role.
func (r *RoleConn) Begin(ctx context.Context) (Tx, error) {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgxTx{tx: tx}, nil
}

// Release resets the connection's role and returns it to the pool. Callers
// defer Release immediately after a successful AcquireRole.
func (r *RoleConn) Release(ctx context.Context) {
	if r.role != "" {
		_, _ = r.conn.Exec(ctx, "RESET ROLE")
	}
	r.conn.Release()
}

// contextKey namespaces this package's context values.
type contextKey string

const connContextKey contextKey = "sdata.conn"

// WithConn attaches q — typically a *RoleConn — to ctx for ContextQuerier
// to recover later in the same request.
func WithConn(ctx context.Context, q interface {
	Querier
	Beginner
}) context.Context {
	return context.WithValue(ctx, connContextKey, q)
}

// ContextQuerier is a Querier+Beginner that defers to whatever connection
// WithConn attached to the request's context. Generators built once and
// cached per role (spec.md §3.3 "per-role GraphQL schema") close over one
// ContextQuerier instance; the actual connection, and the role applied to
// it, varies per request without rebuilding the schema.
type ContextQuerier struct{}

func (ContextQuerier) Query(ctx context.Context, sql string, args ...interface{}) (Rows, error) {
	q, ok := connFromContext(ctx)
	if !ok {
		return nil, apperr.New(apperr.Internal, "no database connection attached to request context")
	}
	return q.Query(ctx, sql, args...)
}

func (ContextQuerier) Begin(ctx context.Context) (Tx, error) {
	q, ok := connFromContext(ctx)
	if !ok {
		return nil, apperr.New(apperr.Internal, "no database connection attached to request context")
	}
	return q.Begin(ctx)
}

func connFromContext(ctx context.Context) (interface {
	Querier
	Beginner
}, bool) {
	q, ok := ctx.Value(connContextKey).(interface {
		Querier
		Beginner
	})
	return q, ok
}
