package sqlbuilder

import (
	"strings"

	"github.com/qbloq/dbgraphql/internal/apperr"
	"github.com/qbloq/dbgraphql/internal/sdata"
)

// BuildInsert renders `INSERT INTO "schema"."table" (cols) VALUES (…)
// RETURNING "table".*` for a single row (spec.md §4.10 "create"), grounded in
// core/internal/dialect/postgres.go's RenderInsert/RenderReturning.
func BuildInsert(schema string, table sdata.Table, values map[string]interface{}) (string, []interface{}, error) {
	sql, params, _, err := buildInsertMany(schema, table, []map[string]interface{}{values})
	return sql, params, err
}

// BuildInsertMany renders a single multi-row INSERT for bulk_create
// (spec.md §4.10): one statement with the union of input fields; rows
// missing a field bind SQL NULL for it, preserving input order.
func BuildInsertMany(schema string, table sdata.Table, rows []map[string]interface{}) (string, []interface{}, error) {
	sql, params, _, err := buildInsertMany(schema, table, rows)
	return sql, params, err
}

func buildInsertMany(schema string, table sdata.Table, rows []map[string]interface{}) (string, []interface{}, []string, error) {
	cols := unionColumns(rows)
	params := &Params{}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(QuoteQualified(schema, table.Name))
	b.WriteString(" (")
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = QuoteIdent(c)
	}
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString(") VALUES ")

	for i, row := range rows {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		placeholders := make([]string, len(cols))
		for j, c := range cols {
			v, ok := row[c]
			if !ok {
				v = nil
			}
			placeholders[j] = params.Bind(v)
		}
		b.WriteString(strings.Join(placeholders, ", "))
		b.WriteString(")")
	}

	b.WriteString(" RETURNING ")
	b.WriteString(QuoteIdent(table.Name))
	b.WriteString(".*")

	return b.String(), params.Values(), cols, nil
}

func unionColumns(rows []map[string]interface{}) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, row := range rows {
		for c := range row {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	return cols
}

// BuildUpdate renders `UPDATE "schema"."table" SET … WHERE pk1 = $n AND
// pk2 = $m … RETURNING "table".*`, requiring every primary-key column present in
// pk (spec.md §4.10 "update": "requires all primary-key columns present
// with non-null values").
func BuildUpdate(schema string, table sdata.Table, set map[string]interface{}, pk map[string]interface{}) (string, []interface{}, error) {
	params := &Params{}

	var assigns []string
	for col, val := range set {
		assigns = append(assigns, QuoteIdent(col)+" = "+params.Bind(val))
	}

	var conds []string
	for _, pkCol := range table.PrimaryKeys() {
		v, ok := pk[pkCol.Name]
		if !ok || v == nil {
			return "", nil, missingPKError(table.Name, pkCol.Name)
		}
		conds = append(conds, QuoteIdent(pkCol.Name)+" = "+params.Bind(v))
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(QuoteQualified(schema, table.Name))
	b.WriteString(" SET ")
	b.WriteString(strings.Join(assigns, ", "))
	b.WriteString(" WHERE ")
	b.WriteString(strings.Join(conds, " AND "))
	b.WriteString(" RETURNING ")
	b.WriteString(QuoteIdent(table.Name))
	b.WriteString(".*")

	return b.String(), params.Values(), nil
}

// BuildDelete renders `DELETE FROM "schema"."table" WHERE pk = $1
// RETURNING pk` for a single-PK table (spec.md §4.10 "delete"). The
// RETURNING clause is the only way to learn whether any row matched
// through the same Querier.Query surface every other statement here
// uses, without a separate Exec/rows-affected abstraction.
func BuildDelete(schema string, table sdata.Table, pkValue interface{}) (string, []interface{}, error) {
	pks := table.PrimaryKeys()
	if len(pks) != 1 {
		return "", nil, missingPKError(table.Name, "<single primary key>")
	}
	params := &Params{}
	sql := "DELETE FROM " + QuoteQualified(schema, table.Name) +
		" WHERE " + QuoteIdent(pks[0].Name) + " = " + params.Bind(pkValue) +
		" RETURNING " + QuoteIdent(pks[0].Name)
	return sql, params.Values(), nil
}

func missingPKError(table, col string) error {
	return apperr.New(apperr.Validation, "table %q is missing required primary key column %q", table, col)
}
