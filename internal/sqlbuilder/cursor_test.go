package sqlbuilder

import (
	"testing"

	"github.com/qbloq/dbgraphql/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	order := []OrderField{{Column: "customer_id", Desc: false}}
	row := map[string]interface{}{"customer_id": 42}

	cur := EncodeCursor(order, row)
	fields, err := DecodeCursor(cur)
	require.NoError(t, err)

	require.Len(t, fields, 1)
	assert.Equal(t, "customer_id", fields[0].Column)
	assert.Equal(t, "42", fields[0].Value)
}

func TestCursorRoundTripMultiColumn(t *testing.T) {
	order := []OrderField{{Column: "last_name"}, {Column: "customer_id", Desc: true}}
	row := map[string]interface{}{"last_name": "Smith", "customer_id": 7}

	cur := EncodeCursor(order, row)
	fields, err := DecodeCursor(cur)
	require.NoError(t, err)

	require.Len(t, fields, 2)
	assert.Equal(t, "last_name", fields[0].Column)
	assert.Equal(t, "Smith", fields[0].Value)
	assert.Equal(t, "customer_id", fields[1].Column)
	assert.Equal(t, "7", fields[1].Value)
}

func TestDecodeCursorMalformedRaisesInvalidCursor(t *testing.T) {
	_, err := DecodeCursor("not-valid-base64!!!")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InvalidCursor))

	_, err = DecodeCursor("bm8tY29sb24=") // base64("no-colon"), missing ':'
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InvalidCursor))
}

func TestBuildCursorPredicateAscendingForward(t *testing.T) {
	order := []OrderField{{Column: "customer_id"}}
	cursor := []CursorField{{Column: "customer_id", Value: "42"}}

	params := &Params{}
	sql, err := BuildCursorPredicate(order, cursor, true, params)
	require.NoError(t, err)
	assert.Equal(t, `("customer_id" > $1)`, sql)
}

func TestBuildCursorPredicateMirrorsForBefore(t *testing.T) {
	order := []OrderField{{Column: "customer_id"}}
	cursor := []CursorField{{Column: "customer_id", Value: "42"}}

	params := &Params{}
	fwd, err := BuildCursorPredicate(order, cursor, true, params)
	require.NoError(t, err)

	params2 := &Params{}
	back, err := BuildCursorPredicate(order, cursor, false, params2)
	require.NoError(t, err)

	assert.NotEqual(t, fwd, back, "forward and backward predicates must differ for the same cursor")
}

func TestBuildCursorPredicateMixedDirections(t *testing.T) {
	order := []OrderField{{Column: "last_name"}, {Column: "customer_id", Desc: true}}
	cursor := []CursorField{{Column: "last_name", Value: "Smith"}, {Column: "customer_id", Value: "7"}}

	params := &Params{}
	sql, err := BuildCursorPredicate(order, cursor, true, params)
	require.NoError(t, err)
	assert.Equal(t, `("last_name" > $1) OR ("last_name" = $2 AND "customer_id" < $3)`, sql)
}

func TestBuildCursorPredicateRejectsMismatchedColumns(t *testing.T) {
	order := []OrderField{{Column: "customer_id"}}
	cursor := []CursorField{{Column: "other_col", Value: "1"}}

	params := &Params{}
	_, err := BuildCursorPredicate(order, cursor, true, params)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InvalidCursor))
}
