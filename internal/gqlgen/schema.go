// Package gqlgen implements the GraphQL Schema Generator (C7, spec.md
// §4.6): a deterministic, pure function of a filtered model plus
// operation capabilities into a graphql-go Schema. Grounded in
// wayli-app-fluxbase/internal/api/graphql_schema.go's two-pass
// object-type construction (stubs first so circular foreign-key
// references resolve, fields populated second), generalized from that
// teacher's single always-full schema into this spec's per-role
// derivative built from a schema.FilteredModel.
package gqlgen

import (
	"github.com/graphql-go/graphql"

	"github.com/qbloq/dbgraphql/internal/apperr"
	"github.com/qbloq/dbgraphql/internal/schema"
	"github.com/qbloq/dbgraphql/internal/sdata"
)

// Generator builds one GraphQL schema from one FilteredModel. A fresh
// Generator is used per per-role schema build (spec.md §3.3 "per-role
// GraphQL schema ... cached for same TTL").
type Generator struct {
	model   schema.FilteredModel
	fetcher Fetcher
	mutator Mutator
	subs    Subscriber
	filters *Filters

	enumTypes       map[string]*graphql.Enum
	compositeTypes  map[string]*graphql.Object
	objectTypes     map[string]*graphql.Object
	filterTypes     map[string]*graphql.InputObject
	orderByTypes    map[string]*graphql.InputObject
	createInputs    map[string]*graphql.InputObject
	updateInputs    map[string]*graphql.InputObject
	connectionTypes map[string]*graphql.Object
	edgeTypes       map[string]*graphql.Object
	subDataTypes    map[string]*graphql.Object
	changeTypes     map[string]*graphql.Object
}

// New builds a Generator over a role-filtered model and the resolver
// boundaries C10/C11/C12 implement.
func New(model schema.FilteredModel, fetcher Fetcher, mutator Mutator, subs Subscriber) *Generator {
	return &Generator{
		model:           model,
		fetcher:         fetcher,
		mutator:         mutator,
		subs:            subs,
		filters:         NewFilters(),
		enumTypes:       make(map[string]*graphql.Enum),
		compositeTypes:  make(map[string]*graphql.Object),
		objectTypes:     make(map[string]*graphql.Object),
		filterTypes:     make(map[string]*graphql.InputObject),
		orderByTypes:    make(map[string]*graphql.InputObject),
		createInputs:    make(map[string]*graphql.InputObject),
		updateInputs:    make(map[string]*graphql.InputObject),
		connectionTypes: make(map[string]*graphql.Object),
		edgeTypes:       make(map[string]*graphql.Object),
		subDataTypes:    make(map[string]*graphql.Object),
		changeTypes:     make(map[string]*graphql.Object),
	}
}

// Build constructs the schema. Field building order follows spec.md
// §4.6: scalars -> enums -> composites -> table object types -> filter
// inputs -> connection/edge types -> order-by inputs -> mutation inputs
// -> root Query/Mutation/Subscription.
func (g *Generator) Build() (*graphql.Schema, error) {
	g.buildEnums()
	g.buildComposites()
	g.buildObjectTypesStub()
	g.buildObjectFields()
	g.buildFilterInputs()
	g.buildConnectionTypes()
	g.buildOrderByInputs()
	g.buildMutationInputs()
	g.buildSubscriptionTypes()

	queryFields := g.buildQueryFields()
	mutationFields := g.buildMutationFields()
	subscriptionFields := g.buildSubscriptionFields()

	cfg := graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: queryFields}),
	}
	if len(mutationFields) > 0 {
		cfg.Mutation = graphql.NewObject(graphql.ObjectConfig{Name: "Mutation", Fields: mutationFields})
	}
	if len(subscriptionFields) == 0 {
		subscriptionFields["health"] = &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return "ok", nil
			},
		}
	}
	cfg.Subscription = graphql.NewObject(graphql.ObjectConfig{Name: "Subscription", Fields: subscriptionFields})

	s, err := graphql.NewSchema(cfg)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "build graphql schema")
	}
	return &s, nil
}

func (g *Generator) buildEnums() {
	for _, e := range g.model.Model.Enums {
		values := graphql.EnumValueConfigMap{}
		for _, v := range e.Values {
			values[v] = &graphql.EnumValueConfig{Value: v}
		}
		g.enumTypes[e.Name] = graphql.NewEnum(graphql.EnumConfig{
			Name:   TypeName(e.Name),
			Values: values,
		})
	}
}

func (g *Generator) buildComposites() {
	for _, c := range g.model.Model.Composites {
		fields := graphql.Fields{}
		for _, attr := range c.Attributes {
			attr := attr
			fields[ColumnFieldName(attr.Name)] = &graphql.Field{
				Type: g.outputTypeFor(attr.Type),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return mapGet(p.Source, attr.Name), nil
				},
			}
		}
		g.compositeTypes[c.Name] = graphql.NewObject(graphql.ObjectConfig{
			Name:   TypeName(c.Name),
			Fields: fields,
		})
	}
}

// outputTypeFor resolves any TypeDescriptor (scalar, array, enum,
// composite, domain) to its GraphQL output type.
func (g *Generator) outputTypeFor(t sdata.TypeDescriptor) graphql.Output {
	switch t.Tag {
	case sdata.TagArray:
		return graphql.NewList(g.outputTypeFor(*t.Element))
	case sdata.TagEnum:
		if en, ok := g.enumTypes[t.Name]; ok {
			return en
		}
		return graphql.String
	case sdata.TagComposite:
		if c, ok := g.compositeTypes[t.Name]; ok {
			return c
		}
		return JSONScalar
	case sdata.TagDomain:
		return g.outputTypeFor(*t.Base)
	case sdata.TagUnknown:
		return graphql.String
	default:
		return scalarGraphQLType(t.Kind)
	}
}

func (g *Generator) inputTypeFor(t sdata.TypeDescriptor) graphql.Input {
	switch t.Tag {
	case sdata.TagArray:
		return graphql.NewList(g.inputTypeFor(*t.Element))
	case sdata.TagEnum:
		if en, ok := g.enumTypes[t.Name]; ok {
			return en
		}
		return graphql.String
	case sdata.TagComposite:
		return JSONScalar
	case sdata.TagDomain:
		return g.inputTypeFor(*t.Base)
	case sdata.TagUnknown:
		return graphql.String
	default:
		return scalarGraphQLInput(t.Kind)
	}
}

// buildObjectTypesStub creates one empty object type per table so
// forward and circular foreign-key references resolve on the second
// pass, the same shape the teacher's regenerateSchema uses.
func (g *Generator) buildObjectTypesStub() {
	for _, t := range g.model.Model.Tables {
		g.objectTypes[t.Name] = graphql.NewObject(graphql.ObjectConfig{
			Name:   TypeName(t.Name),
			Fields: graphql.Fields{},
		})
	}
}

func (g *Generator) buildObjectFields() {
	for _, t := range g.model.Model.Tables {
		obj := g.objectTypes[t.Name]

		for _, c := range t.Columns {
			c := c
			nodeType := g.outputTypeFor(c.Type)
			if !c.IsNullable {
				nodeType = graphql.NewNonNull(nodeType)
			}
			obj.AddFieldConfig(ColumnFieldName(c.Name), &graphql.Field{
				Type: nodeType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return mapGet(p.Source, c.Name), nil
				},
			})
		}

		for _, fk := range t.ForeignKeys {
			refType, ok := g.objectTypes[fk.ReferencedTable]
			if !ok {
				continue
			}
			fk := fk
			tableName := t.Name
			obj.AddFieldConfig(RelationName(fk.ReferencedTable), &graphql.Field{
				Type: refType,
				Resolve: g.forwardRelationResolver(tableName, fk),
			})
		}

		// Reverse relationships: every other table with a surviving FK
		// pointing at this one gets a plural field here.
		for _, other := range g.model.Model.Tables {
			for _, fk := range other.ForeignKeys {
				if fk.ReferencedTable != t.Name {
					continue
				}
				fk := fk
				childTable := other.Name
				parentTable := t.Name
				obj.AddFieldConfig(ReverseRelationName(other.Name), &graphql.Field{
					Type: graphql.NewList(g.objectTypes[childTable]),
					Resolve: g.reverseRelationResolver(childTable, parentTable, fk),
				})
			}
		}
	}
}

func (g *Generator) forwardRelationResolver(table string, fk sdata.ForeignKey) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		val := mapGet(p.Source, fk.Column)
		if val == nil {
			return nil, nil
		}
		return g.fetcher.FetchRelated(p.Context, table, fk.Column, fk.ReferencedTable, fk.ReferencedColumn, val, true)
	}
}

func (g *Generator) reverseRelationResolver(childTable, parentTable string, fk sdata.ForeignKey) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		val := mapGet(p.Source, fk.ReferencedColumn)
		if val == nil {
			return nil, nil
		}
		return g.fetcher.FetchRelated(p.Context, childTable, fk.Column, parentTable, fk.ReferencedColumn, val, false)
	}
}

func mapGet(source interface{}, column string) interface{} {
	m, ok := source.(map[string]interface{})
	if !ok {
		return nil
	}
	return m[column]
}

func (g *Generator) buildFilterInputs() {
	for _, t := range g.model.Model.Tables {
		typeName := TypeName(t.Name)
		fields := graphql.InputObjectConfigFieldMap{}
		for _, c := range t.Columns {
			cat := categorize(c.Type)
			if cat == categoryArray {
				elemCat := categorize(*c.Type.Element)
				elemInput := g.filters.ForCategory(elemCat)
				fields[ColumnFieldName(c.Name)] = &graphql.InputObjectFieldConfig{
					Type: g.filters.ArrayFilter(elemCat.name(), elemInput),
				}
				continue
			}
			fields[ColumnFieldName(c.Name)] = &graphql.InputObjectFieldConfig{
				Type: g.filters.ForCategory(cat),
			}
		}
		filterType := graphql.NewInputObject(graphql.InputObjectConfig{
			Name:   typeName + "Filter",
			Fields: fields,
		})
		// "or" self-reference added after construction since graphql-go
		// input objects can't self-reference during their own literal
		// construction.
		filterType.AddFieldConfig("or", &graphql.InputObjectFieldConfig{Type: graphql.NewList(filterType)})
		g.filterTypes[t.Name] = filterType
	}
}

func (c filterCategory) name() string {
	switch c {
	case categoryInt:
		return "Int"
	case categoryFloat:
		return "Float"
	case categoryBoolean:
		return "Boolean"
	case categoryJSON:
		return "Json"
	case categoryDateTime:
		return "DateTime"
	default:
		return "String"
	}
}

func (g *Generator) buildOrderByInputs() {
	for _, t := range g.model.Model.Tables {
		fields := graphql.InputObjectConfigFieldMap{}
		for _, c := range t.Columns {
			fields[ColumnFieldName(c.Name)] = &graphql.InputObjectFieldConfig{Type: OrderDirection}
		}
		g.orderByTypes[t.Name] = graphql.NewInputObject(graphql.InputObjectConfig{
			Name:   TypeName(t.Name) + "OrderByInput",
			Fields: fields,
		})
	}
}

func (g *Generator) buildConnectionTypes() {
	for _, t := range g.model.Model.Tables {
		typeName := TypeName(t.Name)
		obj := g.objectTypes[t.Name]

		edge := graphql.NewObject(graphql.ObjectConfig{
			Name: typeName + "Edge",
			Fields: graphql.Fields{
				"cursor": &graphql.Field{Type: graphql.String},
				"node":   &graphql.Field{Type: obj},
			},
		})
		g.edgeTypes[t.Name] = edge

		g.connectionTypes[t.Name] = graphql.NewObject(graphql.ObjectConfig{
			Name: typeName + "Connection",
			Fields: graphql.Fields{
				"edges":      &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(edge))},
				"pageInfo":   &graphql.Field{Type: graphql.NewNonNull(PageInfo)},
				"totalCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			},
		})
	}
}

func (g *Generator) buildMutationInputs() {
	for _, t := range g.model.Model.Tables {
		typeName := TypeName(t.Name)
		colCaps := g.model.ColumnCaps[t.Name]

		createFields := graphql.InputObjectConfigFieldMap{}
		updateFields := graphql.InputObjectConfigFieldMap{}
		for _, c := range t.Columns {
			caps := colCaps[c.Name]
			if caps.CanInsert {
				createFields[ColumnFieldName(c.Name)] = &graphql.InputObjectFieldConfig{Type: g.inputTypeFor(c.Type)}
			}
			if c.IsPrimaryKey {
				updateFields[ColumnFieldName(c.Name)] = &graphql.InputObjectFieldConfig{
					Type: graphql.NewNonNull(g.inputTypeFor(c.Type)),
				}
				continue
			}
			if caps.CanUpdate {
				updateFields[ColumnFieldName(c.Name)] = &graphql.InputObjectFieldConfig{Type: g.inputTypeFor(c.Type)}
			}
		}
		g.createInputs[t.Name] = graphql.NewInputObject(graphql.InputObjectConfig{
			Name:   typeName + "CreateInput",
			Fields: createFields,
		})
		g.updateInputs[t.Name] = graphql.NewInputObject(graphql.InputObjectConfig{
			Name:   typeName + "UpdateInput",
			Fields: updateFields,
		})
	}
}

func (g *Generator) buildSubscriptionTypes() {
	for _, t := range g.model.Model.Tables {
		typeName := TypeName(t.Name)
		obj := g.objectTypes[t.Name]

		subFields := graphql.Fields{}
		for _, c := range t.Columns {
			c := c
			subFields[ColumnFieldName(c.Name)] = &graphql.Field{
				Type: g.outputTypeFor(c.Type),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ev, ok := p.Source.(ChangeEvent)
					if !ok {
						return nil, nil
					}
					row := ev.New
					if row == nil {
						row = ev.Old
					}
					return mapGet(row, c.Name), nil
				},
			}
		}
		subFields["old"] = &graphql.Field{
			Type: obj,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				ev, ok := p.Source.(ChangeEvent)
				if !ok {
					return nil, nil
				}
				return ev.Old, nil
			},
		}
		subFields["new"] = &graphql.Field{
			Type: obj,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				ev, ok := p.Source.(ChangeEvent)
				if !ok {
					return nil, nil
				}
				return ev.New, nil
			},
		}
		subData := graphql.NewObject(graphql.ObjectConfig{
			Name:   typeName + "SubscriptionData",
			Fields: subFields,
		})
		g.subDataTypes[t.Name] = subData

		g.changeTypes[t.Name] = graphql.NewObject(graphql.ObjectConfig{
			Name: typeName + "ChangeEvent",
			Fields: graphql.Fields{
				"operation": &graphql.Field{Type: graphql.NewNonNull(ChangeOperation)},
				"table":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"timestamp": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"data": &graphql.Field{
					Type: subData,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return p.Source, nil
					},
				},
			},
		})
	}
}

func (g *Generator) buildQueryFields() graphql.Fields {
	fields := graphql.Fields{}
	for _, t := range g.model.Model.Tables {
		caps := g.model.TableCaps[t.Name]
		if !caps.CanQuery {
			continue
		}
		t := t
		fields[FieldName(t.Name)] = &graphql.Field{
			Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(g.objectTypes[t.Name]))),
			Args: graphql.FieldConfigArgument{
				"where":   &graphql.ArgumentConfig{Type: g.filterTypes[t.Name]},
				"orderBy": &graphql.ArgumentConfig{Type: graphql.NewList(g.orderByTypes[t.Name])},
				"limit":   &graphql.ArgumentConfig{Type: graphql.Int},
				"offset":  &graphql.ArgumentConfig{Type: graphql.Int},
			},
			Resolve: g.listResolver(t.Name),
		}
		fields[FieldName(t.Name)+"Connection"] = &graphql.Field{
			Type: graphql.NewNonNull(g.connectionTypes[t.Name]),
			Args: graphql.FieldConfigArgument{
				"where":   &graphql.ArgumentConfig{Type: g.filterTypes[t.Name]},
				"orderBy": &graphql.ArgumentConfig{Type: graphql.NewList(g.orderByTypes[t.Name])},
				"first":   &graphql.ArgumentConfig{Type: graphql.Int},
				"after":   &graphql.ArgumentConfig{Type: graphql.String},
				"last":    &graphql.ArgumentConfig{Type: graphql.Int},
				"before":  &graphql.ArgumentConfig{Type: graphql.String},
				"offset":  &graphql.ArgumentConfig{Type: graphql.Int},
			},
			Resolve: g.connectionResolver(t.Name),
		}
	}
	return fields
}

func (g *Generator) listResolver(table string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		return g.fetcher.FetchList(p.Context, table, QueryArgs{
			Where:   argMap(p.Args, "where"),
			OrderBy: orderArgs(p.Args),
			Limit:   argInt(p.Args, "limit"),
			Offset:  argInt(p.Args, "offset"),
		})
	}
}

func (g *Generator) connectionResolver(table string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		res, err := g.fetcher.FetchConnection(p.Context, table, ConnectionArgs{
			Where:   argMap(p.Args, "where"),
			OrderBy: orderArgs(p.Args),
			First:   argIntPtr(p.Args, "first"),
			After:   argStringPtr(p.Args, "after"),
			Last:    argIntPtr(p.Args, "last"),
			Before:  argStringPtr(p.Args, "before"),
			Offset:  argInt(p.Args, "offset"),
		})
		if err != nil {
			return nil, err
		}
		return connectionToGraphQL(res), nil
	}
}

func connectionToGraphQL(res *ConnectionResult) map[string]interface{} {
	edges := make([]map[string]interface{}, len(res.Edges))
	for i, e := range res.Edges {
		edges[i] = map[string]interface{}{"cursor": e.Cursor, "node": e.Node}
	}
	return map[string]interface{}{
		"edges": edges,
		"pageInfo": map[string]interface{}{
			"startCursor":     res.PageInfo.StartCursor,
			"endCursor":       res.PageInfo.EndCursor,
			"hasNextPage":     res.PageInfo.HasNextPage,
			"hasPreviousPage": res.PageInfo.HasPreviousPage,
		},
		"totalCount": res.TotalCount,
	}
}

func (g *Generator) buildMutationFields() graphql.Fields {
	fields := graphql.Fields{}
	for _, t := range g.model.Model.Tables {
		if t.IsView {
			continue
		}
		caps := g.model.TableCaps[t.Name]
		typeName := TypeName(t.Name)
		obj := g.objectTypes[t.Name]
		pks := t.PrimaryKeys()

		if caps.CanCreate {
			fields["create"+typeName] = &graphql.Field{
				Type: obj,
				Args: graphql.FieldConfigArgument{
					"data": &graphql.ArgumentConfig{Type: graphql.NewNonNull(g.createInputs[t.Name])},
				},
				Resolve: g.createResolver(t.Name),
			}
			fields["createMany"+TypeName(BulkName(t.Name))] = &graphql.Field{
				Type: graphql.NewList(obj),
				Args: graphql.FieldConfigArgument{
					"data": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(g.createInputs[t.Name])))},
				},
				Resolve: g.createManyResolver(t.Name),
			}
			fields["create"+typeName+"WithRelations"] = &graphql.Field{
				Type: obj,
				Args: graphql.FieldConfigArgument{
					"data": &graphql.ArgumentConfig{Type: graphql.NewNonNull(JSONScalar)},
				},
				Resolve: g.createWithRelationsResolver(t.Name),
			}
		}

		if caps.CanUpdate && len(pks) > 0 {
			args := pkArgs(pks, g)
			args["data"] = &graphql.ArgumentConfig{Type: graphql.NewNonNull(g.updateInputs[t.Name])}
			fields["update"+typeName] = &graphql.Field{
				Type:    obj,
				Args:    args,
				Resolve: g.updateResolver(t.Name, pks),
			}
		}

		if caps.CanDelete && len(pks) > 0 {
			fields["delete"+typeName] = &graphql.Field{
				Type:    obj,
				Args:    pkArgs(pks, g),
				Resolve: g.deleteResolver(t.Name, pks),
			}
		}
	}
	return fields
}

func pkArgs(pks []sdata.Column, g *Generator) graphql.FieldConfigArgument {
	args := graphql.FieldConfigArgument{}
	for _, c := range pks {
		args[ColumnFieldName(c.Name)] = &graphql.ArgumentConfig{Type: graphql.NewNonNull(g.inputTypeFor(c.Type))}
	}
	return args
}

func (g *Generator) createResolver(table string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		data, _ := p.Args["data"].(map[string]interface{})
		return g.mutator.Create(p.Context, table, data)
	}
}

func (g *Generator) createManyResolver(table string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		raw, _ := p.Args["data"].([]interface{})
		rows := make([]map[string]interface{}, len(raw))
		for i, r := range raw {
			rows[i], _ = r.(map[string]interface{})
		}
		return g.mutator.CreateMany(p.Context, table, rows)
	}
}

func (g *Generator) createWithRelationsResolver(table string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		data, _ := p.Args["data"].(map[string]interface{})
		return g.mutator.CreateWithRelations(p.Context, table, data)
	}
}

func (g *Generator) updateResolver(table string, pks []sdata.Column) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		pk := make(map[string]interface{}, len(pks))
		for _, c := range pks {
			pk[c.Name] = p.Args[ColumnFieldName(c.Name)]
		}
		set, _ := p.Args["data"].(map[string]interface{})
		return g.mutator.Update(p.Context, table, pk, set)
	}
}

func (g *Generator) deleteResolver(table string, pks []sdata.Column) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		pk := make(map[string]interface{}, len(pks))
		for _, c := range pks {
			pk[c.Name] = p.Args[ColumnFieldName(c.Name)]
		}
		return g.mutator.Delete(p.Context, table, pk)
	}
}

func (g *Generator) buildSubscriptionFields() graphql.Fields {
	fields := graphql.Fields{}
	for _, t := range g.model.Model.Tables {
		t := t
		fields[FieldName(t.Name)+"_changes"] = &graphql.Field{
			Type: graphql.NewNonNull(g.changeTypes[t.Name]),
			Subscribe: func(p graphql.ResolveParams) (interface{}, error) {
				ch, err := g.subs.Subscribe(p.Context, t.Name)
				if err != nil {
					return nil, err
				}
				out := make(chan interface{})
				go func() {
					defer close(out)
					for ev := range ch {
						out <- ev
					}
				}()
				return out, nil
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source, nil
			},
		}
	}
	return fields
}

func argMap(args map[string]interface{}, key string) map[string]interface{} {
	m, _ := args[key].(map[string]interface{})
	return m
}

func argInt(args map[string]interface{}, key string) int {
	v, ok := args[key].(int)
	if !ok {
		return 0
	}
	return v
}

func argIntPtr(args map[string]interface{}, key string) *int {
	v, ok := args[key].(int)
	if !ok {
		return nil
	}
	return &v
}

func argStringPtr(args map[string]interface{}, key string) *string {
	v, ok := args[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func orderArgs(args map[string]interface{}) []OrderArg {
	raw, ok := args["orderBy"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]OrderArg, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		for col, dir := range m {
			d, _ := dir.(string)
			out = append(out, OrderArg{Column: col, Direction: d})
		}
	}
	return out
}
