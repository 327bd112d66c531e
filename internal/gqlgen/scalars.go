package gqlgen

import (
	"encoding/json"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"github.com/qbloq/dbgraphql/internal/sdata"
)

// JSONScalar is spec.md §4.6's custom JSON scalar: it accepts string,
// object, array, number, boolean or null at input and produces the same
// shape at output; strings that parse as JSON are preserved as parsed
// (spec.md §4.6, same contract internal/convert's jsonToGraphQL applies
// at the value layer).
var JSONScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "JSON",
	Description: "Arbitrary JSON value.",
	Serialize: func(value interface{}) interface{} {
		if s, ok := value.(string); ok {
			var parsed interface{}
			if err := json.Unmarshal([]byte(s), &parsed); err == nil {
				return parsed
			}
		}
		return value
	},
	ParseValue: func(value interface{}) interface{} {
		return value
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		return parseASTValue(valueAST)
	},
})

func parseASTValue(valueAST ast.Value) interface{} {
	switch v := valueAST.(type) {
	case *ast.StringValue:
		return v.Value
	case *ast.IntValue:
		return v.Value
	case *ast.FloatValue:
		return v.Value
	case *ast.BooleanValue:
		return v.Value
	case *ast.NullValue:
		return nil
	case *ast.ListValue:
		out := make([]interface{}, len(v.Values))
		for i, item := range v.Values {
			out[i] = parseASTValue(item)
		}
		return out
	case *ast.ObjectValue:
		out := make(map[string]interface{}, len(v.Fields))
		for _, f := range v.Fields {
			out[f.Name.Value] = parseASTValue(f.Value)
		}
		return out
	default:
		return nil
	}
}

// OrderDirection is the shared `OrderDirection = { ASC, DESC }` enum
// (spec.md §3.2).
var OrderDirection = graphql.NewEnum(graphql.EnumConfig{
	Name: "OrderDirection",
	Values: graphql.EnumValueConfigMap{
		"ASC":  &graphql.EnumValueConfig{Value: "ASC"},
		"DESC": &graphql.EnumValueConfig{Value: "DESC"},
	},
})

// ChangeOperation is `TChangeOperation = { INSERT, UPDATE, DELETE, ERROR }`
// (spec.md §3.2), shared across every table's TChangeEvent.
var ChangeOperation = graphql.NewEnum(graphql.EnumConfig{
	Name: "ChangeOperation",
	Values: graphql.EnumValueConfigMap{
		"INSERT": &graphql.EnumValueConfig{Value: "INSERT"},
		"UPDATE": &graphql.EnumValueConfig{Value: "UPDATE"},
		"DELETE": &graphql.EnumValueConfig{Value: "DELETE"},
		"ERROR":  &graphql.EnumValueConfig{Value: "ERROR"},
	},
})

// PageInfo is the shared `PageInfo` connection type (spec.md §3.2).
var PageInfo = graphql.NewObject(graphql.ObjectConfig{
	Name: "PageInfo",
	Fields: graphql.Fields{
		"startCursor":     &graphql.Field{Type: graphql.String},
		"endCursor":       &graphql.Field{Type: graphql.String},
		"hasNextPage":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"hasPreviousPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
	},
})

// scalarGraphQLType maps a column's declared ScalarKind to the GraphQL
// output type, per spec.md §4.6's type materialization table. bigint maps
// to plain Int, not a dedicated 64-bit scalar: SPEC_FULL.md's Open
// Question decision deliberately diverges from a custom BigInt scalar
// here.
func scalarGraphQLType(k sdata.ScalarKind) graphql.Output {
	switch k {
	case sdata.KindInt32, sdata.KindSmallInt, sdata.KindInt64:
		return graphql.Int
	case sdata.KindFloat32, sdata.KindFloat64, sdata.KindNumeric:
		return graphql.Float
	case sdata.KindBool:
		return graphql.Boolean
	case sdata.KindUUID:
		return graphql.ID
	case sdata.KindJSON, sdata.KindJSONB:
		return JSONScalar
	default:
		return graphql.String
	}
}

// scalarGraphQLInput maps a column's declared ScalarKind to the GraphQL
// input type used in TCreateInput/TUpdateInput/filter leaves. Identical
// to scalarGraphQLType except graphql-go requires input types be built
// from its own Input-compatible set; every kind here already satisfies
// that, so the mapping is shared.
func scalarGraphQLInput(k sdata.ScalarKind) graphql.Input {
	switch k {
	case sdata.KindInt32, sdata.KindSmallInt, sdata.KindInt64:
		return graphql.Int
	case sdata.KindFloat32, sdata.KindFloat64, sdata.KindNumeric:
		return graphql.Float
	case sdata.KindBool:
		return graphql.Boolean
	case sdata.KindUUID:
		return graphql.ID
	case sdata.KindJSON, sdata.KindJSONB:
		return JSONScalar
	default:
		return graphql.String
	}
}

// filterCategory buckets a TypeDescriptor into the shared *Filter input
// it should use (spec.md §3.2).
type filterCategory int

const (
	categoryInt filterCategory = iota
	categoryFloat
	categoryBoolean
	categoryString
	categoryJSON
	categoryDateTime
	categoryArray
)

func categorize(t sdata.TypeDescriptor) filterCategory {
	if t.Tag == sdata.TagArray {
		return categoryArray
	}
	if t.Tag == sdata.TagDomain && t.Base != nil {
		return categorize(*t.Base)
	}
	if t.Tag != sdata.TagScalar {
		return categoryString
	}
	switch t.Kind {
	case sdata.KindInt32, sdata.KindSmallInt, sdata.KindInt64:
		return categoryInt
	case sdata.KindFloat32, sdata.KindFloat64, sdata.KindNumeric:
		return categoryFloat
	case sdata.KindBool:
		return categoryBoolean
	case sdata.KindJSON, sdata.KindJSONB:
		return categoryJSON
	case sdata.KindDate, sdata.KindTime, sdata.KindTimeTZ, sdata.KindTimestamp, sdata.KindTimestampTZ, sdata.KindInterval:
		return categoryDateTime
	default:
		return categoryString
	}
}
