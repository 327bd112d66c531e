package convert

import (
	"testing"
	"time"

	"github.com/qbloq/dbgraphql/internal/apperr"
	"github.com/qbloq/dbgraphql/internal/sdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGraphQLArrayPreservesNullsAndNesting(t *testing.T) {
	elem := sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindText}
	arr := sdata.TypeDescriptor{Tag: sdata.TagArray, Element: &elem}

	out, err := ToGraphQL(arr, []interface{}{"a", nil, "b"})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", nil, "b"}, out)

	nested := sdata.TypeDescriptor{Tag: sdata.TagArray, Element: &arr}
	out, err = ToGraphQL(nested, []interface{}{[]interface{}{"x", nil}, nil})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{[]interface{}{"x", nil}, nil}, out)
}

func TestEnumUnknownValueRaisesInvalidEnum(t *testing.T) {
	e := sdata.TypeDescriptor{Tag: sdata.TagEnum, Name: "mpaa_rating", EnumValues: []string{"G", "PG", "R"}}

	_, err := ToGraphQL(e, "NC-17")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InvalidEnum))

	v, err := ToGraphQL(e, "PG")
	require.NoError(t, err)
	assert.Equal(t, "PG", v)
}

func TestCompositeMissingFieldsAreNull(t *testing.T) {
	c := sdata.TypeDescriptor{
		Tag:  sdata.TagComposite,
		Name: "address",
		Fields: []sdata.CompositeAttribute{
			{Name: "street", Order: 0},
			{Name: "city", Order: 1},
		},
	}

	out, err := ToGraphQL(c, map[string]interface{}{"street": "Main St"})
	require.NoError(t, err)
	m := out.(map[string]interface{})
	assert.Equal(t, "Main St", m["street"])
	assert.Nil(t, m["city"])
}

func TestUUIDCanonicalForm(t *testing.T) {
	out, err := ToGraphQL(sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindUUID}, "550E8400-E29B-41D4-A716-446655440000")
	require.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", out)

	_, err = ToGraphQL(sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindUUID}, "not-a-uuid")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InvalidUUID))
}

func TestByteaHexOutputLowercase(t *testing.T) {
	out, err := ToGraphQL(sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindBytea}, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", out)
}

func TestByteaAcceptsHexOrBase64Input(t *testing.T) {
	fromHex, err := FromGraphQL(sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindBytea}, "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, fromHex)

	fromB64, err := FromGraphQL(sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindBytea}, "3q2+7w==")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, fromB64)
}

func TestTimestampPreservesFractionalSeconds(t *testing.T) {
	ts := time.Date(2026, 7, 31, 12, 0, 0, 123000000, time.UTC)
	out, err := ToGraphQL(sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindTimestampTZ}, ts)
	require.NoError(t, err)
	assert.Contains(t, out.(string), ".123")
}

func TestJSONStringsThatParseArePreservedParsed(t *testing.T) {
	out, err := ToGraphQL(sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindJSONB}, `{"a":1}`)
	require.NoError(t, err)
	m, ok := out.(map[string]interface{})
	require.True(t, ok, "a JSON-parseable string must be preserved parsed, not left as a string")
	assert.Equal(t, float64(1), m["a"])
}
