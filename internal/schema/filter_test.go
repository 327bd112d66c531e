package schema

import (
	"testing"

	"github.com/qbloq/dbgraphql/internal/sdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel() sdata.Model {
	return sdata.Model{
		SchemaName: "public",
		Tables: []sdata.Table{
			{
				Name: "customer",
				Columns: []sdata.Column{
					{Name: "customer_id", IsPrimaryKey: true},
					{Name: "email"},
					{Name: "ssn"},
				},
			},
			{
				Name: "rental",
				Columns: []sdata.Column{
					{Name: "rental_id", IsPrimaryKey: true},
					{Name: "customer_id"},
				},
				ForeignKeys: []sdata.ForeignKey{
					{Column: "customer_id", ReferencedTable: "customer", ReferencedColumn: "customer_id"},
				},
			},
			{Name: "staff_salary", Columns: []sdata.Column{{Name: "amount"}}},
		},
	}
}

func TestFilterDropsTablesWithNoPrivilege(t *testing.T) {
	m := testModel()
	p := sdata.NewRolePrivileges("anon")
	p.GrantTable("customer", sdata.OpSelect)

	f := Filter(m, p)

	_, ok := f.Model.Table("customer")
	assert.True(t, ok)
	_, ok = f.Model.Table("rental")
	assert.False(t, ok, "rental has no grant at all and must be dropped")
	_, ok = f.Model.Table("staff_salary")
	assert.False(t, ok)
}

func TestFilterColumnLevelSelect(t *testing.T) {
	m := testModel()
	p := sdata.NewRolePrivileges("reader")
	p.GrantColumn("customer", sdata.OpSelect, "customer_id")
	p.GrantColumn("customer", sdata.OpSelect, "email")
	// ssn intentionally not granted

	f := Filter(m, p)

	cust, ok := f.Model.Table("customer")
	require.True(t, ok)
	require.Len(t, cust.Columns, 2)
	_, hasSSN := cust.Column("ssn")
	assert.False(t, hasSSN, "ungranted column must not survive filtering")
}

func TestFilterDropsForeignKeyWhenReferencedTableDropped(t *testing.T) {
	m := testModel()
	p := sdata.NewRolePrivileges("reader")
	p.GrantTable("rental", sdata.OpSelect)
	// customer not granted at all -> dropped, so rental's FK must vanish too

	f := Filter(m, p)

	rental, ok := f.Model.Table("rental")
	require.True(t, ok)
	assert.Empty(t, rental.ForeignKeys, "FK to a dropped table must not be preserved")
}

func TestFilterPreservesForeignKeyWhenBothEndpointsSurvive(t *testing.T) {
	m := testModel()
	p := sdata.NewRolePrivileges("reader")
	p.GrantTable("customer", sdata.OpSelect)
	p.GrantTable("rental", sdata.OpSelect)

	f := Filter(m, p)

	rental, ok := f.Model.Table("rental")
	require.True(t, ok)
	require.Len(t, rental.ForeignKeys, 1)
	assert.Equal(t, "customer", rental.ForeignKeys[0].ReferencedTable)
}

func TestFilterComputesTableCapabilities(t *testing.T) {
	m := testModel()
	p := sdata.NewRolePrivileges("editor")
	p.GrantTable("customer", sdata.OpSelect)
	p.GrantTable("customer", sdata.OpInsert)
	p.GrantTable("customer", sdata.OpUpdate)

	f := Filter(m, p)

	caps := f.TableCaps["customer"]
	assert.True(t, caps.CanQuery)
	assert.True(t, caps.CanCreate)
	assert.True(t, caps.CanUpdate)
	assert.False(t, caps.CanDelete)
}

func TestFilterSuperuserSeesEverything(t *testing.T) {
	m := testModel()
	p := sdata.NewRolePrivileges("postgres")
	p.IsSuperuser = true

	f := Filter(m, p)

	for _, t2 := range m.Tables {
		_, ok := f.Model.Table(t2.Name)
		assert.True(t, ok, "superuser must see table %s", t2.Name)
	}
	cust, _ := f.Model.Table("customer")
	assert.Len(t, cust.Columns, 3)
}

// subset reports whether a's kept (table,column) pairs are a subset of b's —
// the shape spec.md §8's role-filter-monotonicity property checks.
func subset(a, b FilteredModel) bool {
	for _, t := range a.Model.Tables {
		bt, ok := b.Model.Table(t.Name)
		if !ok {
			return false
		}
		for _, c := range t.Columns {
			if _, ok := bt.Column(c.Name); !ok {
				return false
			}
		}
	}
	return true
}

func TestFilterMonotonicity(t *testing.T) {
	m := testModel()

	p1 := sdata.NewRolePrivileges("narrow")
	p1.GrantColumn("customer", sdata.OpSelect, "customer_id")

	// p2 is a strict superset of p1's grants.
	p2 := sdata.NewRolePrivileges("wide")
	p2.GrantColumn("customer", sdata.OpSelect, "customer_id")
	p2.GrantColumn("customer", sdata.OpSelect, "email")
	p2.GrantTable("rental", sdata.OpSelect)

	f1 := Filter(m, p1)
	f2 := Filter(m, p2)

	assert.True(t, subset(f1, f2), "filter(M, P1) must be a subset of filter(M, P2) when P1 ⊆ P2")
}
