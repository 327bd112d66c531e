// Package sdata: Postgres Schema Reflector (spec.md §4.3, component C3).
// Grounded in the batched, N+1-avoiding introspection style of
// wayli-app-fluxbase's internal/database/schema_inspector.go (one query
// per concern across every table, never one query per table) and in the
// teacher's embed-the-catalog-SQL pattern (core/internal/sdata/sql.go).
package sdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qbloq/dbgraphql/internal/apperr"
	"github.com/qbloq/dbgraphql/internal/cache"
)

// Rows is the narrow row-iteration surface this package needs from a
// query result. *pgxpool.Pool.Query's pgx.Rows satisfies it directly
// (pgx.Rows carries every method here plus more), so production callers
// need no adapter beyond PoolQuerier; tests supply a plain fake instead
// of standing up a real connection pool.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close()
}

// Querier is the subset of *pgxpool.Pool this package needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (Rows, error)
}

// PoolQuerier adapts a *pgxpool.Pool to Querier.
type PoolQuerier struct {
	Pool *pgxpool.Pool
}

func (p PoolQuerier) Query(ctx context.Context, sql string, args ...interface{}) (Rows, error) {
	return p.Pool.Query(ctx, sql, args...)
}

// Tx is a Querier scoped to one database transaction, needed by C11's
// create_with_relationships (spec.md §4.10): several statements that must
// all commit or all roll back together.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Beginner starts a transaction. PoolQuerier satisfies it directly; tests
// supply a fake instead of a real connection pool.
type Beginner interface {
	Begin(ctx context.Context) (Tx, error)
}

// pgxTx adapts a pgx.Tx to Tx.
type pgxTx struct {
	tx pgx.Tx
}

func (t pgxTx) Query(ctx context.Context, sql string, args ...interface{}) (Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}

func (t pgxTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t pgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// Begin starts a transaction on the pool, satisfying Beginner.
func (p PoolQuerier) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgxTx{tx: tx}, nil
}

// Reflector reads the Postgres catalog for a target schema and produces a
// Model, per spec.md §4.3's seven-step contract. Every catalog predicate
// is passed as a bound parameter, never interpolated (spec.md §4.3
// "Quoting").
type Reflector struct {
	db    Querier
	cache *cache.TTLCache
}

// NewReflector builds a Reflector backed by db, caching reflected models
// for ttl (spec.md §4.3 step 7, §3.3 "Golden schema").
func NewReflector(db Querier, ttl time.Duration) (*Reflector, error) {
	c, err := cache.New(ttl)
	if err != nil {
		return nil, err
	}
	return &Reflector{db: db, cache: c}, nil
}

// NewReflectorFromPool is a convenience constructor over a live pgxpool.
func NewReflectorFromPool(pool *pgxpool.Pool, ttl time.Duration) (*Reflector, error) {
	return NewReflector(PoolQuerier{Pool: pool}, ttl)
}

// Reflect returns the full Model for schemaName, serving from cache when
// warm and single-flighting concurrent callers for the same schema
// (spec.md §4.1, §4.3).
func (r *Reflector) Reflect(ctx context.Context, schemaName string) (Model, error) {
	v, err := r.cache.ComputeIfAbsent(schemaName, func() (interface{}, error) {
		return r.reflectUncached(ctx, schemaName)
	})
	if err != nil {
		return Model{}, err
	}
	return v.(Model), nil
}

// Invalidate drops the cached model for schemaName, forcing the next
// Reflect to re-query the catalog.
func (r *Reflector) Invalidate(schemaName string) {
	r.cache.Remove(schemaName)
}

func (r *Reflector) reflectUncached(ctx context.Context, schemaName string) (Model, error) {
	m := Model{SchemaName: schemaName}

	tables, err := r.reflectTables(ctx, schemaName)
	if err != nil {
		return Model{}, apperr.Wrap(apperr.Internal, err, "reflect tables")
	}
	byName := make(map[string]*Table, len(tables))
	order := make([]string, 0, len(tables))
	for _, t := range tables {
		tt := t
		byName[tt.Name] = &tt
		order = append(order, tt.Name)
	}

	if err := r.reflectColumns(ctx, schemaName, byName); err != nil {
		return Model{}, apperr.Wrap(apperr.Internal, err, "reflect columns")
	}
	if err := r.reflectPrimaryKeys(ctx, schemaName, byName); err != nil {
		return Model{}, apperr.Wrap(apperr.Internal, err, "reflect primary keys")
	}
	if err := r.reflectForeignKeys(ctx, schemaName, byName); err != nil {
		return Model{}, apperr.Wrap(apperr.Internal, err, "reflect foreign keys")
	}

	for _, name := range order {
		m.Tables = append(m.Tables, *byName[name])
	}

	if m.Enums, err = r.reflectEnums(ctx, schemaName); err != nil {
		return Model{}, apperr.Wrap(apperr.Internal, err, "reflect enums")
	}
	if m.Composites, err = r.reflectComposites(ctx, schemaName); err != nil {
		return Model{}, apperr.Wrap(apperr.Internal, err, "reflect composites")
	}

	return m, nil
}

// reflectTables lists tables and views of the target schema in one
// catalog query (spec.md §4.3 step 1). Views carry IsView=true and an
// empty ForeignKeys/PrimaryKeys set (step enforced later by construction:
// the foreign-key and primary-key reflectors only ever populate rows that
// exist, and views never appear in pg_constraint as FK/PK owners).
func (r *Reflector) reflectTables(ctx context.Context, schema string) ([]Table, error) {
	rows, err := r.db.Query(ctx, tablesStmt, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Name, &t.IsView); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// reflectColumns reads all columns for every relation in the schema in
// one bulk query (spec.md §4.3 step 2, avoiding N+1 over tables).
func (r *Reflector) reflectColumns(ctx context.Context, schema string, byName map[string]*Table) error {
	rows, err := r.db.Query(ctx, columnsStmt, schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			table, column, dataType, udtName string
			nullable                         bool
			maxLen, precision, scale         *int
			ordinal                          int
		)
		if err := rows.Scan(&table, &column, &dataType, &udtName, &nullable, &maxLen, &precision, &scale, &ordinal); err != nil {
			return err
		}
		t, ok := byName[table]
		if !ok {
			continue
		}
		t.Columns = append(t.Columns, Column{
			Name:       column,
			Type:       parseTypeDescriptor(dataType, udtName, maxLen, precision, scale),
			IsNullable: nullable,
		})
	}
	return rows.Err()
}

// reflectPrimaryKeys reads all primary keys in one bulk query (spec.md
// §4.3 step 3). Invariant: is_primary_key implies is_nullable=false
// (spec.md §3.1) — enforced here by forcing IsNullable false on the
// matching column.
func (r *Reflector) reflectPrimaryKeys(ctx context.Context, schema string, byName map[string]*Table) error {
	rows, err := r.db.Query(ctx, primaryKeysStmt, schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return err
		}
		t, ok := byName[table]
		if !ok {
			continue
		}
		for i := range t.Columns {
			if t.Columns[i].Name == column {
				t.Columns[i].IsPrimaryKey = true
				t.Columns[i].IsNullable = false
			}
		}
	}
	return rows.Err()
}

// reflectForeignKeys reads all foreign keys in one bulk query (spec.md
// §4.3 step 4).
func (r *Reflector) reflectForeignKeys(ctx context.Context, schema string, byName map[string]*Table) error {
	rows, err := r.db.Query(ctx, foreignKeysStmt, schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var table string
		var fk ForeignKey
		if err := rows.Scan(&table, &fk.Column, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return err
		}
		t, ok := byName[table]
		if !ok {
			continue
		}
		t.ForeignKeys = append(t.ForeignKeys, fk)
	}
	return rows.Err()
}

// reflectEnums reads custom enum types — name and ordered values — per
// schema (spec.md §4.3 step 5).
func (r *Reflector) reflectEnums(ctx context.Context, schema string) ([]Enum, error) {
	rows, err := r.db.Query(ctx, enumsStmt, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := make(map[string]*Enum)
	var order []string
	for rows.Next() {
		var name, enumSchema, value string
		if err := rows.Scan(&name, &enumSchema, &value); err != nil {
			return nil, err
		}
		e, ok := byName[name]
		if !ok {
			e = &Enum{Name: name, Schema: enumSchema}
			byName[name] = e
			order = append(order, name)
		}
		e.Values = append(e.Values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Enum, 0, len(order))
	for _, n := range order {
		out = append(out, *byName[n])
	}
	return out, nil
}

// reflectComposites reads custom composite types — name and attributes in
// ordinal order (spec.md §4.3 step 6).
func (r *Reflector) reflectComposites(ctx context.Context, schema string) ([]Composite, error) {
	rows, err := r.db.Query(ctx, compositesStmt, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := make(map[string]*Composite)
	var order []string
	for rows.Next() {
		var name, compSchema, attrName, attrType string
		var nullable bool
		var ordinal int
		if err := rows.Scan(&name, &compSchema, &attrName, &attrType, &nullable, &ordinal); err != nil {
			return nil, err
		}
		c, ok := byName[name]
		if !ok {
			c = &Composite{Name: name, Schema: compSchema}
			byName[name] = c
			order = append(order, name)
		}
		c.Attributes = append(c.Attributes, CompositeAttribute{
			Name:     attrName,
			Type:     parseTypeDescriptor(attrType, attrType, nil, nil, nil),
			Order:    ordinal,
			Nullable: nullable,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Composite, 0, len(order))
	for _, n := range order {
		out = append(out, *byName[n])
	}
	return out, nil
}

// parseTypeDescriptor maps a Postgres data_type/udt_name pair to a
// TypeDescriptor, including the Array(element) and Domain cases spec.md
// §3.1 names. Arrays are reported by information_schema.columns as
// data_type="ARRAY" with the element type's internal name in udt_name
// prefixed by an underscore (e.g. "_int4" for int4[]).
func parseTypeDescriptor(dataType, udtName string, maxLen, precision, scale *int) TypeDescriptor {
	if strings.EqualFold(dataType, "ARRAY") {
		elemUDT := strings.TrimPrefix(udtName, "_")
		elem := parseTypeDescriptor(elemUDT, elemUDT, nil, nil, nil)
		return TypeDescriptor{Tag: TagArray, Element: &elem}
	}

	p, s := 0, 0
	if precision != nil {
		p = *precision
	}
	if scale != nil {
		s = *scale
	}
	if maxLen != nil {
		p = *maxLen
	}

	kind, ok := scalarKindFor(dataType)
	if !ok {
		return TypeDescriptor{Tag: TagUnknown, Raw: dataType}
	}
	return TypeDescriptor{Tag: TagScalar, Kind: kind, Precision: p, Scale: s}
}

func scalarKindFor(dataType string) (ScalarKind, bool) {
	switch strings.ToLower(dataType) {
	case "integer", "int4", "serial":
		return KindInt32, true
	case "bigint", "int8", "bigserial":
		return KindInt64, true
	case "smallint", "int2", "smallserial":
		return KindSmallInt, true
	case "real", "float4":
		return KindFloat32, true
	case "double precision", "float8":
		return KindFloat64, true
	case "numeric", "decimal":
		return KindNumeric, true
	case "boolean", "bool":
		return KindBool, true
	case "text":
		return KindText, true
	case "character varying", "varchar":
		return KindVarchar, true
	case "character", "char", "bpchar":
		return KindChar, true
	case "uuid":
		return KindUUID, true
	case "date":
		return KindDate, true
	case "timestamp without time zone", "timestamp":
		return KindTimestamp, true
	case "timestamp with time zone", "timestamptz":
		return KindTimestampTZ, true
	case "time without time zone", "time":
		return KindTime, true
	case "time with time zone", "timetz":
		return KindTimeTZ, true
	case "interval":
		return KindInterval, true
	case "json":
		return KindJSON, true
	case "jsonb":
		return KindJSONB, true
	case "bytea":
		return KindBytea, true
	case "inet":
		return KindInet, true
	case "cidr":
		return KindCidr, true
	case "macaddr", "macaddr8":
		return KindMacaddr, true
	case "bit":
		return KindBit, true
	case "bit varying", "varbit":
		return KindVarbit, true
	case "xml":
		return KindXML, true
	default:
		return KindUnknown, false
	}
}

// QuoteIdentifier wraps an identifier in double quotes with embedded
// quotes doubled, per spec.md §4.7 and core/internal/dialect/postgres.go.
func QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// QualifiedName renders "schema"."table".
func QualifiedName(schema, name string) string {
	return fmt.Sprintf("%s.%s", QuoteIdentifier(schema), QuoteIdentifier(name))
}
