package sqlbuilder

import (
	"strconv"
	"strings"

	"github.com/qbloq/dbgraphql/internal/sdata"
)

// SelectSpec is the fully-resolved input to BuildSelect: column list,
// predicate, ordering and paging, all already validated against the
// table by the caller (C10 Data Fetcher).
type SelectSpec struct {
	Schema  string
	Table   sdata.Table
	Columns []string
	Where   Where
	Order   []OrderField
	Limit   int
	Offset  int
}

// BuildSelect renders `SELECT cols FROM "schema"."table" WHERE … ORDER
// BY … LIMIT … OFFSET …`, returning the SQL text and its bound
// parameters in placeholder order.
func BuildSelect(spec SelectSpec) (string, []interface{}, error) {
	params := &Params{}

	where, err := BuildWhere(spec.Table, spec.Where, params)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(ColumnList(spec.Table, spec.Columns), ", "))
	b.WriteString(" FROM ")
	b.WriteString(QuoteQualified(spec.Schema, spec.Table.Name))
	b.WriteString(" WHERE ")
	b.WriteString(where)

	if ob := RenderOrderBy(spec.Order); ob != "" {
		b.WriteString(" ")
		b.WriteString(ob)
	}
	if spec.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(spec.Limit))
	}
	if spec.Offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(spec.Offset))
	}

	return b.String(), params.Values(), nil
}

// BuildCount renders `SELECT COUNT(*) FROM "schema"."table" WHERE …`,
// used for both totalCount and the hasNextPage/hasPreviousPage
// follow-up counts (spec.md §4.9).
func BuildCount(schema string, table sdata.Table, where Where) (string, []interface{}, error) {
	params := &Params{}
	w, err := BuildWhere(table, where, params)
	if err != nil {
		return "", nil, err
	}
	sql := "SELECT COUNT(*) FROM " + QuoteQualified(schema, table.Name) + " WHERE " + w
	return sql, params.Values(), nil
}
