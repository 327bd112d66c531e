package sqlbuilder

import "strings"

// OrderField is one column of an ORDER BY list, paired with its
// direction (spec.md §3.2 `OrderDirection = { ASC, DESC }`).
type OrderField struct {
	Column string
	Desc   bool
}

// RenderOrderBy renders "ORDER BY ..." for order, or "" when order is
// empty (callers append it verbatim to the query).
func RenderOrderBy(order []OrderField) string {
	if len(order) == 0 {
		return ""
	}
	parts := make([]string, len(order))
	for i, o := range order {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts[i] = QuoteIdent(o.Column) + " " + dir
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}
