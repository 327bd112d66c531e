package schema

import (
	"context"
	"testing"
	"time"

	"github.com/qbloq/dbgraphql/internal/sdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingQuerier answers every query with an empty result set and counts
// how many times Query is invoked, so tests can assert reflection only
// happens once per TTL window.
type countingQuerier struct {
	calls int
}

func (q *countingQuerier) Query(ctx context.Context, sql string, args ...interface{}) (sdata.Rows, error) {
	q.calls++
	return &emptyRows{}, nil
}

type emptyRows struct{}

func (emptyRows) Next() bool         { return false }
func (emptyRows) Scan(...interface{}) error { return nil }
func (emptyRows) Err() error         { return nil }
func (emptyRows) Close()             {}

func TestGoldenServiceCachesReflection(t *testing.T) {
	q := &countingQuerier{}
	r, err := sdata.NewReflector(q, time.Minute)
	require.NoError(t, err)

	g, err := NewGoldenService(r, "public", time.Minute)
	require.NoError(t, err)

	_, err = g.GetFull(context.Background())
	require.NoError(t, err)
	_, err = g.GetFull(context.Background())
	require.NoError(t, err)

	// 6 catalog queries per reflection (tables, columns, pks, fks, enums,
	// composites); a second GetFull must not issue any more.
	assert.Equal(t, 6, q.calls)
}

func TestGoldenServiceRefreshForcesReReflection(t *testing.T) {
	q := &countingQuerier{}
	r, err := sdata.NewReflector(q, time.Minute)
	require.NoError(t, err)

	g, err := NewGoldenService(r, "public", time.Minute)
	require.NoError(t, err)

	_, err = g.GetFull(context.Background())
	require.NoError(t, err)
	g.Refresh()
	_, err = g.GetFull(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12, q.calls, "Refresh must force a fresh reflection on next GetFull")
}
