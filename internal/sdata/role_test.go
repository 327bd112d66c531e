package sdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is a minimal Querier+Beginner double, recording the sql text of
// the last Query call so tests can assert ContextQuerier delegated to it.
type fakeConn struct {
	lastSQL string
	tx      Tx
}

func (f *fakeConn) Query(ctx context.Context, sql string, args ...interface{}) (Rows, error) {
	f.lastSQL = sql
	return &fakeRows{}, nil
}

func (f *fakeConn) Begin(ctx context.Context) (Tx, error) {
	return f.tx, nil
}

func TestContextQuerierDelegatesToAttachedConn(t *testing.T) {
	conn := &fakeConn{}
	ctx := WithConn(context.Background(), conn)

	q := ContextQuerier{}
	_, err := q.Query(ctx, "select 1")
	require.NoError(t, err)
	assert.Equal(t, "select 1", conn.lastSQL)
}

func TestContextQuerierErrorsWithoutAttachedConn(t *testing.T) {
	q := ContextQuerier{}
	_, err := q.Query(context.Background(), "select 1")
	assert.Error(t, err, "a schema built once and reused across requests must not silently use no connection")
}

func TestContextQuerierBeginDelegatesToAttachedConn(t *testing.T) {
	wantTx := &pgxTx{}
	conn := &fakeConn{tx: wantTx}
	ctx := WithConn(context.Background(), conn)

	q := ContextQuerier{}
	tx, err := q.Begin(ctx)
	require.NoError(t, err)
	assert.Same(t, wantTx, tx)
}
