package mutate

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbloq/dbgraphql/internal/sdata"
)

// fakeRows adapts a slice of pre-built rows (already in a table's column
// order) to sdata.Rows.
type fakeRows struct {
	rows [][]interface{}
	idx  int
}

func (f *fakeRows) Next() bool {
	if f.idx >= len(f.rows) {
		return false
	}
	f.idx++
	return true
}

func (f *fakeRows) Scan(dest ...interface{}) error {
	row := f.rows[f.idx-1]
	for i, d := range dest {
		*(d.(*interface{})) = row[i]
	}
	return nil
}

func (f *fakeRows) Err() error { return nil }
func (f *fakeRows) Close()     {}

var insertRe = regexp.MustCompile(`^INSERT INTO "[^"]+"\."([a-z_]+)" \(([^)]*)\) VALUES \(([^)]*)\)`)

// fakeDB is an in-memory stand-in for Postgres that understands exactly
// the INSERT…RETURNING shape sqlbuilder.BuildInsert produces, enough to
// exercise CreateWithRelations' transactional fan-out without a real
// connection.
type fakeDB struct {
	model    sdata.Model
	rows     map[string][]map[string]interface{}
	nextID   map[string]int64
	inserted []string // table names, in insert order

	began      bool
	committed  bool
	rolledBack bool
	failCommit bool
}

func newFakeDB(model sdata.Model) *fakeDB {
	return &fakeDB{
		model:  model,
		rows:   map[string][]map[string]interface{}{},
		nextID: map[string]int64{},
	}
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...interface{}) (sdata.Rows, error) {
	mm := insertRe.FindStringSubmatch(sql)
	if mm == nil {
		return nil, fmt.Errorf("fakeDB: unsupported statement: %s", sql)
	}
	table := mm[1]
	cols := splitIdents(mm[2])
	placeholders := strings.Split(mm[3], ", ")

	row := map[string]interface{}{}
	for i, c := range cols {
		idx, _ := strconv.Atoi(strings.TrimPrefix(placeholders[i], "$"))
		row[c] = args[idx-1]
	}

	t, ok := db.model.Table(table)
	if !ok {
		return nil, fmt.Errorf("fakeDB: unknown table %q", table)
	}
	for _, pk := range t.PrimaryKeys() {
		if _, present := row[pk.Name]; !present {
			db.nextID[table]++
			row[pk.Name] = int32(db.nextID[table])
		}
	}

	db.rows[table] = append(db.rows[table], row)
	db.inserted = append(db.inserted, table)

	out := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = row[c.Name]
	}
	return &fakeRows{rows: [][]interface{}{out}}, nil
}

func splitIdents(s string) []string {
	parts := strings.Split(s, ", ")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.Trim(p, `"`)
	}
	return out
}

func (db *fakeDB) Begin(ctx context.Context) (sdata.Tx, error) {
	db.began = true
	return &fakeTx{db: db}, nil
}

type fakeTx struct {
	db *fakeDB
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...interface{}) (sdata.Rows, error) {
	return t.db.Query(ctx, sql, args...)
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.db.failCommit {
		return fmt.Errorf("commit failed")
	}
	t.db.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.db.rolledBack = true
	return nil
}

func testModel() sdata.Model {
	customer := sdata.Table{
		Name: "customer",
		Columns: []sdata.Column{
			{Name: "customer_id", Type: sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindInt32}, IsPrimaryKey: true},
			{Name: "name", Type: sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindText}},
		},
	}
	order := sdata.Table{
		Name: "order",
		Columns: []sdata.Column{
			{Name: "order_id", Type: sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindInt32}, IsPrimaryKey: true},
			{Name: "customer_id", Type: sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindInt32}},
			{Name: "total", Type: sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindText}},
		},
		ForeignKeys: []sdata.ForeignKey{
			{Column: "customer_id", ReferencedTable: "customer", ReferencedColumn: "customer_id"},
		},
	}
	orderItem := sdata.Table{
		Name: "order_item",
		Columns: []sdata.Column{
			{Name: "item_id", Type: sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindInt32}, IsPrimaryKey: true},
			{Name: "order_id", Type: sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindInt32}},
			{Name: "sku", Type: sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindText}},
		},
		ForeignKeys: []sdata.ForeignKey{
			{Column: "order_id", ReferencedTable: "order", ReferencedColumn: "order_id"},
		},
	}
	return sdata.Model{SchemaName: "public", Tables: []sdata.Table{customer, order, orderItem}}
}

func TestCreateWithRelationsConnectCreateAndCreateMany(t *testing.T) {
	model := testModel()
	db := newFakeDB(model)
	m := New(db, "public", model)

	input := map[string]interface{}{
		"total": "41.00",
		"customer_create": map[string]interface{}{
			"name": "Ada",
		},
		"orderItems_createMany": []interface{}{
			map[string]interface{}{"sku": "WIDGET-1"},
			map[string]interface{}{"sku": "WIDGET-2"},
		},
	}

	result, err := m.CreateWithRelations(context.Background(), "order", input)
	require.NoError(t, err)

	assert.True(t, db.began)
	assert.True(t, db.committed)
	assert.False(t, db.rolledBack)

	assert.Equal(t, "41.00", result["total"])
	require.NotNil(t, result["customer_id"])
	assert.Len(t, db.rows["customer"], 1, "the related customer must be created before the order")
	assert.Equal(t, result["customer_id"], db.rows["customer"][0]["customer_id"])

	require.Len(t, db.rows["order_item"], 2, "both createMany children must be inserted")
	for _, item := range db.rows["order_item"] {
		assert.Equal(t, result["order_id"], item["order_id"], "every child must point back at the newly created parent")
	}

	// customer must be inserted strictly before order, and order strictly
	// before its order_item children.
	customerIdx, orderIdx := -1, -1
	for i, tbl := range db.inserted {
		switch {
		case tbl == "customer" && customerIdx == -1:
			customerIdx = i
		case tbl == "order" && orderIdx == -1:
			orderIdx = i
		}
	}
	require.NotEqual(t, -1, customerIdx)
	require.NotEqual(t, -1, orderIdx)
	assert.Less(t, customerIdx, orderIdx, "a _create parent must be inserted before the row referencing it")
	for i, tbl := range db.inserted {
		if tbl == "order_item" {
			assert.Greater(t, i, orderIdx, "createMany children must be inserted after the parent they reference")
		}
	}
}

func TestCreateWithRelationsRollsBackOnUnknownRelationship(t *testing.T) {
	model := testModel()
	db := newFakeDB(model)
	m := New(db, "public", model)

	input := map[string]interface{}{
		"total":            "9.00",
		"bogusRel_connect": int32(1),
	}

	_, err := m.CreateWithRelations(context.Background(), "order", input)
	require.Error(t, err)
	assert.True(t, db.began)
	assert.True(t, db.rolledBack)
	assert.False(t, db.committed)
	assert.Empty(t, db.rows["order"], "no partial insert should survive a rolled-back transaction")
}

func TestCreateWithRelationsRollsBackOnCommitFailure(t *testing.T) {
	model := testModel()
	db := newFakeDB(model)
	db.failCommit = true
	m := New(db, "public", model)

	input := map[string]interface{}{
		"total":             "9.00",
		"customer_connect": int32(7),
	}

	_, err := m.CreateWithRelations(context.Background(), "order", input)
	require.Error(t, err)
	assert.True(t, db.rolledBack)
}

func TestCreateRejectsNullOnlyInput(t *testing.T) {
	model := testModel()
	db := newFakeDB(model)
	m := New(db, "public", model)

	_, err := m.Create(context.Background(), "customer", map[string]interface{}{"name": nil})
	require.Error(t, err)
}

func TestUpdateRequiresPrimaryKey(t *testing.T) {
	model := testModel()
	db := newFakeDB(model)
	m := New(db, "public", model)

	_, err := m.Update(context.Background(), "customer", map[string]interface{}{}, map[string]interface{}{"name": "Bea"})
	require.Error(t, err)
}
