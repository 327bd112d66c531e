package sqlbuilder

import "github.com/qbloq/dbgraphql/internal/sdata"

// ColumnList returns the quoted, ordered column list for table. An empty
// requested set is replaced by the full set of columns known for the
// table (spec.md §4.7 "Column list building").
func ColumnList(table sdata.Table, requested []string) []string {
	if len(requested) == 0 {
		out := make([]string, len(table.Columns))
		for i, c := range table.Columns {
			out[i] = QuoteIdent(c.Name)
		}
		return out
	}
	out := make([]string, len(requested))
	for i, c := range requested {
		out[i] = QuoteIdent(c)
	}
	return out
}
