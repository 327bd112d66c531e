// Package sqlbuilder implements the SQL Builder (C8): deterministic,
// parameterized SQL fragment composition for WHERE, ORDER BY, cursor
// predicates, column lists and qualified names. Grounded in
// core/internal/psql/{query,mutate,update,insert,columns,exp,util}.go and
// core/internal/dialect/postgres.go's quoting/limit/cursor rendering,
// reduced from the teacher's pluggable multi-dialect interface to the
// single Postgres dialect spec.md §6 names.
package sqlbuilder

import "strings"

// QuoteIdent double-quotes a SQL identifier, doubling any embedded quote
// (spec.md §4.7 "Identifier quoting").
func QuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// QuoteQualified renders `"schema"."table"`.
func QuoteQualified(schema, name string) string {
	if schema == "" {
		return QuoteIdent(name)
	}
	return QuoteIdent(schema) + "." + QuoteIdent(name)
}
