package sqlbuilder

import "strconv"

// Params accumulates bound query parameters and renders Postgres-style
// positional placeholders ($1, $2, …), grounded in the teacher's
// dialect.BindVar (core/internal/dialect/postgres.go). Every value that
// reaches SQL text through Params is bound, never interpolated.
type Params struct {
	values []interface{}
}

// Bind appends v and returns its placeholder.
func (p *Params) Bind(v interface{}) string {
	p.values = append(p.values, v)
	return "$" + strconv.Itoa(len(p.values))
}

// Values returns the accumulated parameter slice in bind order.
func (p *Params) Values() []interface{} {
	return p.values
}
