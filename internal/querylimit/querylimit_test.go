package querylimit

import (
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) graphql.Schema {
	t.Helper()

	authorType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Author",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.Int},
			"name": &graphql.Field{Type: graphql.String},
		},
	})

	postType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Post",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.Int},
			"title": &graphql.Field{Type: graphql.String},
		},
	})
	postType.AddFieldConfig("author", &graphql.Field{Type: authorType})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"post": &graphql.Field{Type: postType},
			"posts": &graphql.Field{
				Type: graphql.NewList(postType),
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int},
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
	require.NoError(t, err)
	return schema
}

func TestCheckAllowsQueryWithinBudget(t *testing.T) {
	schema := testSchema(t)
	err := Check(schema, `{ post { id title author { name } } }`, Limits{MaxDepth: 10, MaxComplexity: 100})
	assert.NoError(t, err)
}

func TestCheckRejectsExcessiveDepth(t *testing.T) {
	schema := testSchema(t)
	err := Check(schema, `{ post { author { name } } }`, Limits{MaxDepth: 1, MaxComplexity: 100})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "depth")
}

func TestCheckWeighsListFieldsHigherThanScalars(t *testing.T) {
	schema := testSchema(t)

	// "post { title }" costs 1 (object field) + 1 (title) = 2, while
	// "posts { title }" costs 3 (list field) + 1 (title) = 4.
	scalarCost := complexityOf(t, schema, `{ post { title } }`)
	listCost := complexityOf(t, schema, `{ posts { title } }`)
	assert.Greater(t, listCost, scalarCost)
}

func TestCheckAddsLimitArgumentBonusToComplexity(t *testing.T) {
	schema := testSchema(t)

	withoutLimit := complexityOf(t, schema, `{ posts { title } }`)
	withLimit := complexityOf(t, schema, `{ posts(limit: 100) { title } }`)
	assert.Equal(t, withoutLimit+10, withLimit, "limit:100 should add min(100/10, 20) = 10")
}

func TestCheckCapsLimitBonusAt20(t *testing.T) {
	schema := testSchema(t)

	withLimit := complexityOf(t, schema, `{ posts(limit: 10000) { title } }`)
	withoutLimit := complexityOf(t, schema, `{ posts { title } }`)
	assert.Equal(t, withoutLimit+maxLimitBonus, withLimit)
}

func TestCheckRejectsOverComplexityBudget(t *testing.T) {
	schema := testSchema(t)
	err := Check(schema, `{ posts(limit: 100) { title author { name } } }`, Limits{MaxDepth: 10, MaxComplexity: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "complexity")
}

func TestCheckIgnoresMalformedQueries(t *testing.T) {
	schema := testSchema(t)
	err := Check(schema, `{ this is not valid graphql `, Limits{MaxDepth: 1, MaxComplexity: 1})
	assert.NoError(t, err, "a malformed document is the executor's rejection to make, not this policy's")
}

// complexityOf recovers the complexity Check computes for query by
// probing budgets 1, 2, 3, … and returning the first one Check accepts.
func complexityOf(t *testing.T, schema graphql.Schema, query string) int {
	t.Helper()
	for budget := 1; budget < 1000; budget++ {
		if Check(schema, query, Limits{MaxDepth: 100, MaxComplexity: budget}) == nil {
			return budget
		}
	}
	t.Fatalf("complexity of %q exceeded probe range", query)
	return -1
}
