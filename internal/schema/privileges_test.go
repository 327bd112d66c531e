package schema

import (
	"context"
	"testing"
	"time"

	"github.com/qbloq/dbgraphql/internal/sdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqRow is one scriptable row of column values.
type seqRow []interface{}

// seqRows is a minimal sdata.Rows implementation over a fixed row set.
type seqRows struct {
	rows []seqRow
	idx  int
}

func (r *seqRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *seqRows) Scan(dest ...interface{}) error {
	row := r.rows[r.idx-1]
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *bool:
			*p = row[i].(bool)
		case *[]string:
			*p = row[i].([]string)
		default:
			panic("seqRows: unsupported scan target")
		}
	}
	return nil
}

func (r *seqRows) Err() error { return nil }
func (r *seqRows) Close()     {}

// sequencedQuerier answers ReadRolePrivileges's fixed call sequence
// (is-superuser, table privileges, column privileges, RLS policies) by
// call position rather than by matching SQL text, since the catalog
// statement strings are unexported in package sdata.
type sequencedQuerier struct {
	calls int
	rows  [][]seqRow
}

func (q *sequencedQuerier) Query(ctx context.Context, sql string, args ...interface{}) (sdata.Rows, error) {
	var rows []seqRow
	if q.calls < len(q.rows) {
		rows = q.rows[q.calls]
	}
	q.calls++
	return &seqRows{rows: rows}, nil
}

func TestReadRolePrivilegesSuperuserShortCircuits(t *testing.T) {
	q := &sequencedQuerier{rows: [][]seqRow{
		{{true}}, // is-superuser
	}}

	svc, err := NewPrivilegeService(q, "public", time.Minute)
	require.NoError(t, err)

	p, err := svc.Get(context.Background(), "postgres")
	require.NoError(t, err)
	assert.True(t, p.IsSuperuser)
	assert.Equal(t, 1, q.calls, "superuser short-circuit must skip the remaining three queries")
}

func TestReadRolePrivilegesNonSuperuser(t *testing.T) {
	q := &sequencedQuerier{rows: [][]seqRow{
		{{false}},                            // is-superuser
		{{"customer", "SELECT"}},              // table privileges
		{{"customer", "email", "SELECT"}},     // column privileges
		{},                                    // rls policies
	}}

	svc, err := NewPrivilegeService(q, "public", time.Minute)
	require.NoError(t, err)

	p, err := svc.Get(context.Background(), "reader")
	require.NoError(t, err)
	assert.False(t, p.IsSuperuser)
	assert.True(t, p.CanTable("customer", sdata.OpSelect))
	assert.True(t, p.CanColumn("customer", sdata.OpSelect, "email"))
	assert.Equal(t, 4, q.calls)
}

func TestPrivilegeServiceCachesPerRole(t *testing.T) {
	q := &sequencedQuerier{rows: [][]seqRow{
		{{false}}, {}, {}, {},
	}}

	svc, err := NewPrivilegeService(q, "public", time.Minute)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "reader")
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), "reader")
	require.NoError(t, err)

	assert.Equal(t, 4, q.calls, "second Get for the same role must be served from cache")
}

func TestPrivilegeServiceRefresh(t *testing.T) {
	q := &sequencedQuerier{rows: [][]seqRow{
		{{false}}, {}, {}, {},
		{{false}}, {}, {}, {},
	}}

	svc, err := NewPrivilegeService(q, "public", time.Minute)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "reader")
	require.NoError(t, err)
	svc.Refresh("reader")
	_, err = svc.Get(context.Background(), "reader")
	require.NoError(t, err)

	assert.Equal(t, 8, q.calls, "Refresh must force a re-read on next Get")
}
