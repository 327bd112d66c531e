package sqlbuilder

import (
	"strings"
	"testing"

	"github.com/qbloq/dbgraphql/internal/apperr"
	"github.com/qbloq/dbgraphql/internal/sdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customerTable() sdata.Table {
	return sdata.Table{
		Name: "customer",
		Columns: []sdata.Column{
			{Name: "customer_id", Type: sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindInt32}, IsPrimaryKey: true},
			{Name: "email", Type: sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindText}},
			{Name: "tags", Type: sdata.TypeDescriptor{Tag: sdata.TagArray, Element: &sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindText}}},
			{Name: "profile", Type: sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindJSONB}},
		},
	}
}

// injectionPayloads are adversarial operand values: every one must end
// up bound as a parameter, never spliced into the SQL text.
var injectionPayloads = []string{
	`'; DROP TABLE customer; --`,
	`" OR "1"="1`,
	"Robert'); DROP TABLE students;--",
	"日本語テスト",
	"\x00nullbyte",
}

func TestWhereBindsOperandsNeverInterpolates(t *testing.T) {
	table := customerTable()

	for _, payload := range injectionPayloads {
		params := &Params{}
		w := Where{Filter: Filter{"email": {OpEq: payload}}}

		sql, err := BuildWhere(table, w, params)
		require.NoError(t, err)

		assert.NotContains(t, sql, payload, "operand must never appear literally in generated SQL")
		assert.Equal(t, `"email" = $1`, sql)
		require.Len(t, params.Values(), 1)
		assert.Equal(t, payload, params.Values()[0])
	}
}

func TestWhereOperatorForms(t *testing.T) {
	table := customerTable()

	cases := []struct {
		name string
		w    Where
		want string
	}{
		{"eq", Where{Filter: Filter{"customer_id": {OpEq: 1}}}, `"customer_id" = $1`},
		{"neq", Where{Filter: Filter{"customer_id": {OpNeq: 1}}}, `"customer_id" != $1`},
		{"gt", Where{Filter: Filter{"customer_id": {OpGt: 1}}}, `"customer_id" > $1`},
		{"isNull", Where{Filter: Filter{"email": {OpIsNull: true}}}, `"email" IS NULL`},
		{"isNotNull", Where{Filter: Filter{"email": {OpIsNull: false}}}, `"email" IS NOT NULL`},
		{"like", Where{Filter: Filter{"email": {OpLike: "%x%"}}}, `"email" LIKE $1`},
		{"startsWith", Where{Filter: Filter{"email": {OpStartsWith: "a"}}}, `"email" LIKE $1`},
		{"hasAny", Where{Filter: Filter{"tags": {OpHasAny: []string{"a"}}}}, `"tags" && $1`},
		{"hasKey", Where{Filter: Filter{"profile": {OpHasKey: "k"}}}, `"profile" ? $1`},
		{"in", Where{Filter: Filter{"customer_id": {OpIn: []interface{}{1, 2}}}}, `"customer_id" IN ($1)`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			params := &Params{}
			sql, err := BuildWhere(table, c.w, params)
			require.NoError(t, err)
			assert.Equal(t, c.want, sql)
		})
	}
}

func TestWhereNotInDropsNull(t *testing.T) {
	table := customerTable()
	params := &Params{}

	w := Where{Filter: Filter{"customer_id": {OpNotIn: []interface{}{1, nil, 2}}}}
	sql, err := BuildWhere(table, w, params)
	require.NoError(t, err)
	assert.Equal(t, `"customer_id" NOT IN ($1)`, sql)

	bound := params.Values()[0].([]interface{})
	assert.ElementsMatch(t, []interface{}{1, 2}, bound, "NULL must be dropped from a NOT IN list before binding")
}

func TestWhereOrBranches(t *testing.T) {
	table := customerTable()
	params := &Params{}

	w := Where{
		Filter: Filter{"customer_id": {OpEq: 1}},
		Or: []Where{
			{Filter: Filter{"email": {OpEq: "a@example.com"}}},
		},
	}
	sql, err := BuildWhere(table, w, params)
	require.NoError(t, err)
	assert.True(t, strings.Contains(sql, " OR "))
	assert.Equal(t, `("customer_id" = $1) OR ("email" = $2)`, sql)
}

func TestWhereRejectsTypeMismatch(t *testing.T) {
	table := customerTable()
	params := &Params{}

	_, err := BuildWhere(table, Where{Filter: Filter{"customer_id": {OpLike: "x"}}}, params)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = BuildWhere(table, Where{Filter: Filter{"profile": {OpGt: 1}}}, params)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestWhereUnknownColumnRejected(t *testing.T) {
	table := customerTable()
	params := &Params{}

	_, err := BuildWhere(table, Where{Filter: Filter{"nope": {OpEq: 1}}}, params)
	require.Error(t, err)
}
