// Package fetch implements the Data Fetcher (C10, spec.md §4.9): the
// component the generated schema's query and relationship fields resolve
// through. Grounded in core/internal/psql/query.go's plural-select
// rendering and core/database_join.go's join/preload strategy, reworked
// from the teacher's single-pass SQL compiler into an explicit
// fetch-then-preload pipeline that composes internal/sqlbuilder,
// internal/loader and internal/convert.
package fetch

import (
	"context"
	"strconv"

	"github.com/qbloq/dbgraphql/internal/apperr"
	"github.com/qbloq/dbgraphql/internal/convert"
	"github.com/qbloq/dbgraphql/internal/gqlgen"
	"github.com/qbloq/dbgraphql/internal/loader"
	"github.com/qbloq/dbgraphql/internal/sdata"
	"github.com/qbloq/dbgraphql/internal/sqlbuilder"
)

const defaultConnectionLimit = 10

// Fetcher implements gqlgen.Fetcher against a live Postgres connection.
type Fetcher struct {
	db         sdata.Querier
	schemaName string
	model      sdata.Model
}

// New builds a Fetcher reading model's tables out of schemaName on db.
func New(db sdata.Querier, schemaName string, model sdata.Model) *Fetcher {
	return &Fetcher{db: db, schemaName: schemaName, model: model}
}

// FetchList implements resolve_table (spec.md §4.9): a where/orderBy/
// limit/offset select returning at most args.Limit rows, in the order
// given when args.OrderBy is non-empty.
func (f *Fetcher) FetchList(ctx context.Context, table string, args gqlgen.QueryArgs) ([]map[string]interface{}, error) {
	t, ok := f.model.Table(table)
	if !ok {
		return nil, apperr.New(apperr.Validation, "unknown table %q", table)
	}

	records, err := f.selectRows(ctx, t, whereOf(args.Where), orderOf(args.OrderBy), args.Limit, args.Offset)
	if err != nil {
		return nil, err
	}

	f.preload(ctx, t, records)
	return records, nil
}

// FetchConnection implements resolve_connection (spec.md §4.9): cursor
// pagination when any of first/last/after/before is present, else offset
// pagination when offset is set, else a default-limited plain page.
func (f *Fetcher) FetchConnection(ctx context.Context, table string, args gqlgen.ConnectionArgs) (*gqlgen.ConnectionResult, error) {
	t, ok := f.model.Table(table)
	if !ok {
		return nil, apperr.New(apperr.Validation, "unknown table %q", table)
	}

	order := orderOf(args.OrderBy)
	if len(order) == 0 {
		var err error
		order, err = defaultOrder(t)
		if err != nil {
			return nil, err
		}
	}
	where := whereOf(args.Where)

	cursorMode := args.First != nil || args.Last != nil || args.After != nil || args.Before != nil
	var (
		rows    []map[string]interface{}
		forward = true
		err     error
	)

	switch {
	case cursorMode:
		forward = args.Last == nil
		limit := defaultConnectionLimit
		switch {
		case args.First != nil:
			limit = *args.First
		case args.Last != nil:
			limit = *args.Last
		}
		cursor := args.After
		if !forward {
			cursor = args.Before
		}
		rows, err = f.selectCursorPage(ctx, t, where, order, cursor, forward, limit)
	case args.Offset > 0:
		rows, err = f.selectRows(ctx, t, where, order, defaultConnectionLimit, args.Offset)
	default:
		rows, err = f.selectRows(ctx, t, where, order, defaultConnectionLimit, 0)
	}
	if err != nil {
		return nil, err
	}

	total, err := f.count(ctx, t, where)
	if err != nil {
		return nil, err
	}

	result := &gqlgen.ConnectionResult{TotalCount: total}
	result.Edges = make([]gqlgen.Edge, len(rows))
	for i, r := range rows {
		result.Edges[i] = gqlgen.Edge{Cursor: sqlbuilder.EncodeCursor(order, r), Node: r}
	}
	if !forward {
		for i, j := 0, len(result.Edges)-1; i < j; i, j = i+1, j-1 {
			result.Edges[i], result.Edges[j] = result.Edges[j], result.Edges[i]
		}
	}

	result.PageInfo, err = f.pageInfo(ctx, t, where, order, result.Edges, cursorMode, total, args)
	if err != nil {
		return nil, err
	}

	f.preload(ctx, t, rowsOf(result.Edges))
	return result, nil
}

// FetchRelated implements resolve_forward_relationship and
// resolve_reverse_relationship (spec.md §4.9): it first consults the
// request-scoped batch loader populated by preload, and falls back to a
// one-off query when no batch was prepared (no request loader in ctx, or
// this particular relation was never expanded by a FetchList/
// FetchConnection call in this request).
func (f *Fetcher) FetchRelated(ctx context.Context, table, fkColumn, referencedTable, referencedColumn string, parentValue interface{}, forward bool) (interface{}, error) {
	if parentValue == nil {
		if forward {
			return nil, nil
		}
		return []map[string]interface{}{}, nil
	}

	if ld, ok := loader.FromContext(ctx); ok {
		if forward {
			if r, found := ld.Lookup(referencedTable, referencedColumn, parentValue); found {
				return map[string]interface{}(r), nil
			}
		} else {
			if rs, found := ld.LookupMany(table, fkColumn, parentValue); found {
				return toRecordMaps(rs), nil
			}
		}
	}

	if forward {
		t, ok := f.model.Table(referencedTable)
		if !ok {
			return nil, apperr.New(apperr.Validation, "unknown table %q", referencedTable)
		}
		rows, err := f.selectRows(ctx, t, sqlbuilder.Where{Filter: sqlbuilder.Filter{
			referencedColumn: {sqlbuilder.OpEq: parentValue},
		}}, nil, 1, 0)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return rows[0], nil
	}

	t, ok := f.model.Table(table)
	if !ok {
		return nil, apperr.New(apperr.Validation, "unknown table %q", table)
	}
	rows, err := f.selectRows(ctx, t, sqlbuilder.Where{Filter: sqlbuilder.Filter{
		fkColumn: {sqlbuilder.OpEq: parentValue},
	}}, nil, 0, 0)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func toRecordMaps(rs []loader.Record) []map[string]interface{} {
	out := make([]map[string]interface{}, len(rs))
	for i, r := range rs {
		out[i] = map[string]interface{}(r)
	}
	return out
}

func rowsOf(edges []gqlgen.Edge) []map[string]interface{} {
	out := make([]map[string]interface{}, len(edges))
	for i, e := range edges {
		out[i] = e.Node
	}
	return out
}

// defaultOrder implements spec.md §4.9's default cursor order: all
// primary-key columns ascending, else "id" if the table has one, else
// OrderRequired.
func defaultOrder(t sdata.Table) ([]sqlbuilder.OrderField, error) {
	pks := t.PrimaryKeys()
	if len(pks) > 0 {
		order := make([]sqlbuilder.OrderField, len(pks))
		for i, c := range pks {
			order[i] = sqlbuilder.OrderField{Column: c.Name}
		}
		return order, nil
	}
	if _, ok := t.Column("id"); ok {
		return []sqlbuilder.OrderField{{Column: "id"}}, nil
	}
	return nil, apperr.New(apperr.OrderRequired, "table %q has no primary key and no id column to default-order by", t.Name)
}

func orderOf(args []gqlgen.OrderArg) []sqlbuilder.OrderField {
	if len(args) == 0 {
		return nil
	}
	out := make([]sqlbuilder.OrderField, len(args))
	for i, a := range args {
		out[i] = sqlbuilder.OrderField{Column: a.Column, Desc: a.Direction == "DESC"}
	}
	return out
}

func whereOf(w map[string]interface{}) sqlbuilder.Where {
	if w == nil {
		return sqlbuilder.Where{}
	}
	return decodeWhere(w)
}

// decodeWhere turns a GraphQL TFilter-shaped map (column -> {op: value},
// plus an "or" key holding a list of such maps) into a sqlbuilder.Where.
func decodeWhere(w map[string]interface{}) sqlbuilder.Where {
	out := sqlbuilder.Where{Filter: sqlbuilder.Filter{}}
	for col, raw := range w {
		if col == "or" {
			continue
		}
		ops, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		fops := make(map[sqlbuilder.Op]interface{}, len(ops))
		for op, v := range ops {
			fops[sqlbuilder.Op(op)] = v
		}
		out.Filter[col] = fops
	}
	if rawOr, ok := w["or"].([]interface{}); ok {
		for _, b := range rawOr {
			if bm, ok := b.(map[string]interface{}); ok {
				out.Or = append(out.Or, decodeWhere(bm))
			}
		}
	}
	return out
}

func (f *Fetcher) selectRows(ctx context.Context, t sdata.Table, where sqlbuilder.Where, order []sqlbuilder.OrderField, limit, offset int) ([]map[string]interface{}, error) {
	spec := sqlbuilder.SelectSpec{
		Schema: f.schemaName,
		Table:  t,
		Where:  where,
		Order:  order,
		Limit:  limit,
		Offset: offset,
	}
	sql, params, err := sqlbuilder.BuildSelect(spec)
	if err != nil {
		return nil, err
	}
	return f.query(ctx, t, sql, params)
}

// selectCursorPage renders a cursor-bounded select by hand, since
// sqlbuilder.BuildSelect allocates its own private Params and so cannot
// share parameter numbering with a cursor predicate appended after the
// WHERE clause.
func (f *Fetcher) selectCursorPage(ctx context.Context, t sdata.Table, where sqlbuilder.Where, order []sqlbuilder.OrderField, cursor *string, forward bool, limit int) ([]map[string]interface{}, error) {
	params := &sqlbuilder.Params{}

	whereSQL, err := sqlbuilder.BuildWhere(t, where, params)
	if err != nil {
		return nil, err
	}

	if cursor != nil {
		fields, err := sqlbuilder.DecodeCursor(*cursor)
		if err != nil {
			return nil, err
		}
		pred, err := sqlbuilder.BuildCursorPredicate(order, fields, forward, params)
		if err != nil {
			return nil, err
		}
		whereSQL = "(" + whereSQL + ") AND (" + pred + ")"
	}

	// Cursor pages are always walked in the "next N rows after/before the
	// cursor" direction; the caller reverses a backward page back into
	// display order once rows are returned.
	pageOrder := order
	if !forward {
		pageOrder = reverseOrder(order)
	}

	sql := "SELECT " + joinColumns(sqlbuilder.ColumnList(t, nil)) +
		" FROM " + sqlbuilder.QuoteQualified(f.schemaName, t.Name) +
		" WHERE " + whereSQL +
		" " + sqlbuilder.RenderOrderBy(pageOrder) +
		" LIMIT " + itoa(limit)

	rows, err := f.query(ctx, t, sql, params.Values())
	if err != nil {
		return nil, err
	}
	if !forward {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	return rows, nil
}

func reverseOrder(order []sqlbuilder.OrderField) []sqlbuilder.OrderField {
	out := make([]sqlbuilder.OrderField, len(order))
	for i, o := range order {
		out[i] = sqlbuilder.OrderField{Column: o.Column, Desc: !o.Desc}
	}
	return out
}

func (f *Fetcher) count(ctx context.Context, t sdata.Table, where sqlbuilder.Where) (int, error) {
	sql, params, err := sqlbuilder.BuildCount(f.schemaName, t, where)
	if err != nil {
		return 0, err
	}
	rows, err := f.db.Query(ctx, sql, params...)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, err, "count query failed on %q", t.Name)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, apperr.Wrap(apperr.Internal, err, "scanning count result for %q", t.Name)
		}
	}
	return n, rows.Err()
}

// pageInfo computes hasNextPage/hasPreviousPage. In cursor mode it runs a
// follow-up exact count scoped by the after/before predicate of the
// last/first returned row (spec.md §4.9), rather than overfetching N+1
// rows; in offset mode it derives both flags from the offset, the page
// length and total, with no further query.
func (f *Fetcher) pageInfo(ctx context.Context, t sdata.Table, where sqlbuilder.Where, order []sqlbuilder.OrderField, edges []gqlgen.Edge, cursorMode bool, total int, args gqlgen.ConnectionArgs) (gqlgen.PageInfoResult, error) {
	var pi gqlgen.PageInfoResult
	if len(edges) == 0 {
		return pi, nil
	}
	start := edges[0].Cursor
	end := edges[len(edges)-1].Cursor
	pi.StartCursor = &start
	pi.EndCursor = &end

	if !cursorMode {
		pi.HasPreviousPage = args.Offset > 0
		pi.HasNextPage = args.Offset+len(edges) < total
		return pi, nil
	}

	hasAfter, err := f.hasCursorNeighbor(ctx, t, where, order, end, true)
	if err != nil {
		return pi, err
	}
	hasBefore, err := f.hasCursorNeighbor(ctx, t, where, order, start, false)
	if err != nil {
		return pi, err
	}
	pi.HasNextPage = hasAfter
	pi.HasPreviousPage = hasBefore
	return pi, nil
}

func (f *Fetcher) hasCursorNeighbor(ctx context.Context, t sdata.Table, where sqlbuilder.Where, order []sqlbuilder.OrderField, cursor string, forward bool) (bool, error) {
	params := &sqlbuilder.Params{}
	whereSQL, err := sqlbuilder.BuildWhere(t, where, params)
	if err != nil {
		return false, err
	}
	fields, err := sqlbuilder.DecodeCursor(cursor)
	if err != nil {
		return false, err
	}
	pred, err := sqlbuilder.BuildCursorPredicate(order, fields, forward, params)
	if err != nil {
		return false, err
	}
	sql := "SELECT COUNT(*) FROM " + sqlbuilder.QuoteQualified(f.schemaName, t.Name) +
		" WHERE (" + whereSQL + ") AND (" + pred + ")"

	rows, err := f.db.Query(ctx, sql, params.Values()...)
	if err != nil {
		return false, apperr.Wrap(apperr.Internal, err, "neighbor count query failed on %q", t.Name)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return false, apperr.Wrap(apperr.Internal, err, "scanning neighbor count for %q", t.Name)
		}
	}
	return n > 0, rows.Err()
}

// query runs sql against the database and converts every returned row
// into a GraphQL-facing map, in t.Columns order (the order
// sqlbuilder.ColumnList renders when asked for every column).
func (f *Fetcher) query(ctx context.Context, t sdata.Table, sql string, params []interface{}) ([]map[string]interface{}, error) {
	rows, err := f.db.Query(ctx, sql, params...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "select query failed on %q", t.Name)
	}
	defer rows.Close()

	var out []map[string]interface{}
	dest := make([]interface{}, len(t.Columns))
	for rows.Next() {
		raw := make([]interface{}, len(t.Columns))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, "scanning row for %q", t.Name)
		}

		rec := make(map[string]interface{}, len(t.Columns))
		for i, c := range t.Columns {
			v, err := convert.ToGraphQL(c.Type, raw[i])
			if err != nil {
				return nil, err
			}
			rec[c.Name] = v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// preload batches every forward and reverse relationship of t for
// records into the request-scoped loader, so the per-row resolvers
// FetchRelated serves hit the cache instead of issuing one query per
// row. A no-op when ctx carries no loader (e.g. direct unit-test calls).
func (f *Fetcher) preload(ctx context.Context, t sdata.Table, records []map[string]interface{}) {
	if len(records) == 0 {
		return
	}
	ld, ok := loader.FromContext(ctx)
	if !ok {
		return
	}

	for _, fk := range t.ForeignKeys {
		f.preloadForward(ctx, ld, t, fk, records)
	}
	for _, other := range f.model.Tables {
		for _, fk := range other.ForeignKeys {
			if fk.ReferencedTable != t.Name {
				continue
			}
			f.preloadReverse(ctx, ld, other, fk, records)
		}
	}
}

func (f *Fetcher) preloadForward(ctx context.Context, ld *loader.Loader, t sdata.Table, fk sdata.ForeignKey, records []map[string]interface{}) {
	if !ld.MarkListProcessed(t.Name, fk.Column) {
		return
	}
	refTable, ok := f.model.Table(fk.ReferencedTable)
	if !ok {
		return
	}
	values := distinctValues(records, fk.Column)
	if len(values) == 0 {
		return
	}
	rows, err := f.selectRows(ctx, refTable, sqlbuilder.Where{Filter: sqlbuilder.Filter{
		fk.ReferencedColumn: {sqlbuilder.OpIn: values},
	}}, nil, 0, 0)
	if err != nil {
		return
	}
	ld.Cache(fk.ReferencedTable, fk.ReferencedColumn, toRecords(rows))
}

func (f *Fetcher) preloadReverse(ctx context.Context, ld *loader.Loader, child sdata.Table, fk sdata.ForeignKey, parentRecords []map[string]interface{}) {
	if !ld.MarkListProcessed(child.Name, fk.Column) {
		return
	}
	values := distinctValues(parentRecords, fk.ReferencedColumn)
	if len(values) == 0 {
		return
	}
	rows, err := f.selectRows(ctx, child, sqlbuilder.Where{Filter: sqlbuilder.Filter{
		fk.Column: {sqlbuilder.OpIn: values},
	}}, nil, 0, 0)
	if err != nil {
		return
	}
	ld.CacheMany(child.Name, fk.Column, toRecords(rows))
}

func toRecords(rows []map[string]interface{}) []loader.Record {
	out := make([]loader.Record, len(rows))
	for i, r := range rows {
		out[i] = loader.Record(r)
	}
	return out
}

func distinctValues(records []map[string]interface{}, column string) []interface{} {
	seen := map[interface{}]struct{}{}
	var out []interface{}
	for _, r := range records {
		v, ok := r[column]
		if !ok || v == nil {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func joinColumns(cols []string) string {
	if len(cols) == 0 {
		return "*"
	}
	out := cols[0]
	for _, c := range cols[1:] {
		out += ", " + c
	}
	return out
}

func itoa(n int) string {
	if n <= 0 {
		n = defaultConnectionLimit
	}
	return strconv.Itoa(n)
}
