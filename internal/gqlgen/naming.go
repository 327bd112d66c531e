package gqlgen

import (
	"strings"

	"github.com/gobuffalo/flect"
)

// TypeName PascalCases a table name for use as a GraphQL object type name
// (spec.md §3.2 "Naming rules"). gobuffalo/flect's Pascalize handles the
// snake_case -> PascalCase conversion; pluralization below is deliberately
// NOT flect's, since spec.md defines its own non-linguistic rule.
func TypeName(table string) string {
	return flect.Pascalize(table)
}

// FieldName lower-cases the root query field name for a table.
func FieldName(table string) string {
	return strings.ToLower(table)
}

// BulkName forms spec.md's plural by literal suffix append: "s" unless
// the name already ends in "s". This is intentionally not linguistic
// pluralization (flect.Pluralize would turn "bus" into "buses" and
// "person" into "people"); spec.md §3.2 defines the simpler rule and
// every bulk/reverse-relationship name must follow it exactly.
func BulkName(name string) string {
	if strings.HasSuffix(name, "s") {
		return name
	}
	return name + "s"
}

// ColumnFieldName camelCases a column name for use as an object field.
func ColumnFieldName(column string) string {
	return flect.Camelize(column)
}

// RelationName is the singular relationship field emitted on T for a
// foreign key referencing U: "u" (spec.md §3.2).
func RelationName(referencedTable string) string {
	return flect.Camelize(referencedTable)
}

// ReverseRelationName is the plural reverse relationship field emitted on
// U for every T that references it: "ts".
func ReverseRelationName(table string) string {
	return BulkName(flect.Camelize(table))
}
