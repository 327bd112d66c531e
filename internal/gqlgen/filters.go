package gqlgen

import "github.com/graphql-go/graphql"

// Filters holds the scalar-category filter input types shared across
// every generated TFilter (spec.md §3.2): one IntFilter/StringFilter/…
// is built once and reused by every table's filter, rather than
// per-table duplicates.
type Filters struct {
	Int      *graphql.InputObject
	Float    *graphql.InputObject
	Boolean  *graphql.InputObject
	String   *graphql.InputObject
	JSON     *graphql.InputObject
	DateTime *graphql.InputObject
	arrays   map[string]*graphql.InputObject // keyed by element category name, built lazily
}

// NewFilters builds the shared scalar filter input types once.
func NewFilters() *Filters {
	f := &Filters{arrays: make(map[string]*graphql.InputObject)}

	f.Int = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "IntFilter",
		Fields: graphql.InputObjectConfigFieldMap{
			"eq":   &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"neq":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"gt":   &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"gte":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"lt":   &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"lte":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"in":   &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.Int)},
			"notIn": &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.Int)},
			"isNull":    &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
			"isNotNull": &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		},
	})

	f.Float = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "FloatFilter",
		Fields: graphql.InputObjectConfigFieldMap{
			"eq":        &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"neq":       &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"gt":        &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"gte":       &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"lt":        &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"lte":       &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"in":        &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.Float)},
			"notIn":     &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.Float)},
			"isNull":    &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
			"isNotNull": &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		},
	})

	f.Boolean = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "BooleanFilter",
		Fields: graphql.InputObjectConfigFieldMap{
			"eq":        &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
			"neq":       &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
			"isNull":    &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
			"isNotNull": &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		},
	})

	f.String = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "StringFilter",
		Fields: graphql.InputObjectConfigFieldMap{
			"eq":         &graphql.InputObjectFieldConfig{Type: graphql.String},
			"neq":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"gt":         &graphql.InputObjectFieldConfig{Type: graphql.String},
			"gte":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"lt":         &graphql.InputObjectFieldConfig{Type: graphql.String},
			"lte":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"contains":   &graphql.InputObjectFieldConfig{Type: graphql.String},
			"startsWith": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"endsWith":   &graphql.InputObjectFieldConfig{Type: graphql.String},
			"like":       &graphql.InputObjectFieldConfig{Type: graphql.String},
			"ilike":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"in":         &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.String)},
			"notIn":      &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.String)},
			"isNull":     &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
			"isNotNull":  &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		},
	})

	f.JSON = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "JsonFilter",
		Fields: graphql.InputObjectConfigFieldMap{
			"eq":        &graphql.InputObjectFieldConfig{Type: JSONScalar},
			"contains":  &graphql.InputObjectFieldConfig{Type: JSONScalar},
			"hasKey":    &graphql.InputObjectFieldConfig{Type: graphql.String},
			"path":      &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.String)},
			"isNull":    &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
			"isNotNull": &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		},
	})

	f.DateTime = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "DateTimeFilter",
		Fields: graphql.InputObjectConfigFieldMap{
			"eq":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"neq":       &graphql.InputObjectFieldConfig{Type: graphql.String},
			"gt":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"gte":       &graphql.InputObjectFieldConfig{Type: graphql.String},
			"lt":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"lte":       &graphql.InputObjectFieldConfig{Type: graphql.String},
			"isNull":    &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
			"isNotNull": &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		},
	})

	return f
}

// ArrayFilter returns the shared `ArrayFilter[T]` input for the given
// element category, building it on first use. spec.md §3.2 names
// ArrayFilter[T] as generic; graphql-go has no generics, so one concrete
// input type is built per element category encountered (IntArrayFilter,
// StringArrayFilter, …).
func (f *Filters) ArrayFilter(elementName string, elementInput graphql.Input) *graphql.InputObject {
	if existing, ok := f.arrays[elementName]; ok {
		return existing
	}
	in := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: elementName + "ArrayFilter",
		Fields: graphql.InputObjectConfigFieldMap{
			"hasAny":    &graphql.InputObjectFieldConfig{Type: graphql.NewList(elementInput)},
			"length":    &graphql.InputObjectFieldConfig{Type: f.Int},
			"isNull":    &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
			"isNotNull": &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		},
	})
	f.arrays[elementName] = in
	return in
}

// ForCategory returns the shared filter input matching category.
func (f *Filters) ForCategory(c filterCategory) *graphql.InputObject {
	switch c {
	case categoryInt:
		return f.Int
	case categoryFloat:
		return f.Float
	case categoryBoolean:
		return f.Boolean
	case categoryJSON:
		return f.JSON
	case categoryDateTime:
		return f.DateTime
	default:
		return f.String
	}
}
