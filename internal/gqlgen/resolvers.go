package gqlgen

import "context"

// OrderArg is one element of an order-by list resolved from a
// TOrderByInput argument.
type OrderArg struct {
	Column    string
	Direction string // "ASC" | "DESC"
}

// QueryArgs carries the resolved arguments of a `t(where, orderBy, limit,
// offset)` root field (spec.md §3.2) down to C10.
type QueryArgs struct {
	Where   map[string]interface{}
	OrderBy []OrderArg
	Limit   int
	Offset  int
}

// ConnectionArgs carries the resolved arguments of a `tConnection(...)`
// root field.
type ConnectionArgs struct {
	Where   map[string]interface{}
	OrderBy []OrderArg
	First   *int
	After   *string
	Last    *int
	Before  *string
	Offset  int
}

// Edge is one `TEdge = { cursor, node }` pair.
type Edge struct {
	Cursor string
	Node   map[string]interface{}
}

// PageInfoResult is the resolved `PageInfo` object.
type PageInfoResult struct {
	StartCursor     *string
	EndCursor       *string
	HasNextPage     bool
	HasPreviousPage bool
}

// ConnectionResult is the resolved `TConnection` object.
type ConnectionResult struct {
	Edges      []Edge
	PageInfo   PageInfoResult
	TotalCount int
}

// Fetcher is the C10 Data Fetcher boundary the generated query and
// relationship fields resolve through.
type Fetcher interface {
	FetchList(ctx context.Context, table string, args QueryArgs) ([]map[string]interface{}, error)
	FetchConnection(ctx context.Context, table string, args ConnectionArgs) (*ConnectionResult, error)
	// FetchRelated resolves one foreign-key hop for one parent row's key
	// value. forward is true for T -> U (many-to-one via fkColumn on
	// table), false for the reverse U -> [T] (one-to-many).
	FetchRelated(ctx context.Context, table, fkColumn, referencedTable, referencedColumn string, parentValue interface{}, forward bool) (interface{}, error)
}

// Mutator is the C11 Mutator boundary the generated mutation fields
// resolve through.
type Mutator interface {
	Create(ctx context.Context, table string, data map[string]interface{}) (map[string]interface{}, error)
	CreateMany(ctx context.Context, table string, rows []map[string]interface{}) ([]map[string]interface{}, error)
	Update(ctx context.Context, table string, pk, set map[string]interface{}) (map[string]interface{}, error)
	Delete(ctx context.Context, table string, pk map[string]interface{}) (map[string]interface{}, error)
	CreateWithRelations(ctx context.Context, table string, data map[string]interface{}) (map[string]interface{}, error)
}

// ChangeEvent is one emitted row-change notification (spec.md §3.2
// TChangeEvent).
type ChangeEvent struct {
	Operation string // INSERT | UPDATE | DELETE | ERROR
	Table     string
	Timestamp string
	Old       map[string]interface{}
	New       map[string]interface{}
}

// Subscriber is the C12 Subscription Multiplexer boundary the generated
// `t_changes` field resolves through.
type Subscriber interface {
	Subscribe(ctx context.Context, table string) (<-chan ChangeEvent, error)
}
