package gqlgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbloq/dbgraphql/internal/schema"
	"github.com/qbloq/dbgraphql/internal/sdata"
)

type fakeFetcher struct{}

func (fakeFetcher) FetchList(ctx context.Context, table string, args QueryArgs) ([]map[string]interface{}, error) {
	return nil, nil
}

func (fakeFetcher) FetchConnection(ctx context.Context, table string, args ConnectionArgs) (*ConnectionResult, error) {
	return &ConnectionResult{}, nil
}

func (fakeFetcher) FetchRelated(ctx context.Context, table, fkColumn, referencedTable, referencedColumn string, parentValue interface{}, forward bool) (interface{}, error) {
	return nil, nil
}

type fakeMutator struct{}

func (fakeMutator) Create(ctx context.Context, table string, data map[string]interface{}) (map[string]interface{}, error) {
	return data, nil
}

func (fakeMutator) CreateMany(ctx context.Context, table string, rows []map[string]interface{}) ([]map[string]interface{}, error) {
	return rows, nil
}

func (fakeMutator) Update(ctx context.Context, table string, pk, set map[string]interface{}) (map[string]interface{}, error) {
	return set, nil
}

func (fakeMutator) Delete(ctx context.Context, table string, pk map[string]interface{}) (map[string]interface{}, error) {
	return pk, nil
}

func (fakeMutator) CreateWithRelations(ctx context.Context, table string, data map[string]interface{}) (map[string]interface{}, error) {
	return data, nil
}

type fakeSubscriber struct{}

func (fakeSubscriber) Subscribe(ctx context.Context, table string) (<-chan ChangeEvent, error) {
	ch := make(chan ChangeEvent)
	close(ch)
	return ch, nil
}

func testFilteredModel() schema.FilteredModel {
	customer := sdata.Table{
		Name: "customer",
		Columns: []sdata.Column{
			{Name: "customer_id", Type: sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindInt32}, IsPrimaryKey: true},
			{Name: "email", Type: sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindText}, IsNullable: true},
		},
	}
	rental := sdata.Table{
		Name: "rental",
		Columns: []sdata.Column{
			{Name: "rental_id", Type: sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindInt32}, IsPrimaryKey: true},
			{Name: "customer_id", Type: sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindInt32}},
		},
		ForeignKeys: []sdata.ForeignKey{
			{Column: "customer_id", ReferencedTable: "customer", ReferencedColumn: "customer_id"},
		},
	}

	m := schema.FilteredModel{
		Model: sdata.Model{SchemaName: "public", Tables: []sdata.Table{customer, rental}},
		TableCaps: map[string]schema.TableCapabilities{
			"customer": {CanQuery: true, CanCreate: true, CanUpdate: true, CanDelete: true},
			"rental":   {CanQuery: true, CanCreate: true, CanUpdate: true, CanDelete: true},
		},
		ColumnCaps: map[string]map[string]schema.ColumnCapabilities{
			"customer": {
				"customer_id": {CanSelect: true, CanInsert: false, CanUpdate: false},
				"email":       {CanSelect: true, CanInsert: true, CanUpdate: true},
			},
			"rental": {
				"rental_id":   {CanSelect: true, CanInsert: false, CanUpdate: false},
				"customer_id": {CanSelect: true, CanInsert: true, CanUpdate: true},
			},
		},
	}
	return m
}

func TestBuildProducesQueryMutationSubscriptionFields(t *testing.T) {
	g := New(testFilteredModel(), fakeFetcher{}, fakeMutator{}, fakeSubscriber{})
	s, err := g.Build()
	require.NoError(t, err)

	queryFields := s.QueryType().Fields()
	assert.Contains(t, queryFields, "customer")
	assert.Contains(t, queryFields, "customerConnection")
	assert.Contains(t, queryFields, "rental")

	mutationFields := s.MutationType().Fields()
	assert.Contains(t, mutationFields, "createCustomer")
	assert.Contains(t, mutationFields, "updateCustomer")
	assert.Contains(t, mutationFields, "deleteCustomer")
	assert.Contains(t, mutationFields, "createManyCustomers")
	assert.Contains(t, mutationFields, "createCustomerWithRelations")

	subFields := s.SubscriptionType().Fields()
	assert.Contains(t, subFields, "customer_changes")
	assert.Contains(t, subFields, "rental_changes")
}

func TestForwardAndReverseRelationFieldsArePresent(t *testing.T) {
	g := New(testFilteredModel(), fakeFetcher{}, fakeMutator{}, fakeSubscriber{})
	_, err := g.Build()
	require.NoError(t, err)

	rentalType := g.objectTypes["rental"]
	assert.Contains(t, rentalType.Fields(), "customer")

	customerType := g.objectTypes["customer"]
	assert.Contains(t, customerType.Fields(), "rentals")
}
