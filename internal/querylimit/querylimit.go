// Package querylimit implements the query complexity policy of spec.md
// §4.6: reject a request before execution if it exceeds a configured
// maximum selection depth or a weighted complexity budget. Grounded in
// the sibling pack repo wayli-app-fluxbase's
// internal/api/graphql_handler.go (calculateQueryDepth/
// calculateQueryComplexity walking a parsed *ast.OperationDefinition),
// reworked here from that file's field-name heuristic ("ends in s") into
// a lookup against the compiled *graphql.Schema's real field types, since
// this package has the schema on hand and does not need to guess.
package querylimit

import (
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"

	"github.com/qbloq/dbgraphql/internal/apperr"
)

// scalarCost and listCost are the per-field weights of spec.md §4.6:
// "each scalar field costs 1; list or connection fields cost 3".
const (
	scalarCost = 1
	listCost   = 3
	// maxLimitBonus caps the per-field bonus a limit-like argument adds:
	// "min(value/10, 20)".
	maxLimitBonus = 20
)

// Limits is the configured budget (spec.md §6
// graphql.security.max_query_depth / max_query_complexity).
type Limits struct {
	MaxDepth      int
	MaxComplexity int
}

// Check parses query and rejects it with an apperr.Validation error if
// its selection depth or weighted complexity exceeds limits. schema
// supplies real field types so list/connection fields are identified
// structurally rather than by name.
func Check(schema graphql.Schema, query string, limits Limits) error {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		// A malformed document is the executor's concern to reject;
		// this policy only bounds well-formed ones.
		return nil
	}

	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}

		root := schema.QueryType()
		if op.Operation == ast.OperationTypeMutation {
			root = schema.MutationType()
		} else if op.Operation == ast.OperationTypeSubscription {
			root = schema.SubscriptionType()
		}

		depth := selectionDepth(op.SelectionSet, 0)
		if depth > limits.MaxDepth {
			return apperr.New(apperr.Validation, "query depth %d exceeds maximum of %d", depth, limits.MaxDepth)
		}

		complexity := selectionComplexity(op.SelectionSet, root)
		if complexity > limits.MaxComplexity {
			return apperr.New(apperr.Validation, "query complexity %d exceeds maximum of %d", complexity, limits.MaxComplexity)
		}
	}
	return nil
}

func selectionDepth(sel *ast.SelectionSet, depth int) int {
	if sel == nil || len(sel.Selections) == 0 {
		return depth
	}
	max := depth
	for _, s := range sel.Selections {
		var child *ast.SelectionSet
		switch f := s.(type) {
		case *ast.Field:
			child = f.SelectionSet
		case *ast.InlineFragment:
			child = f.SelectionSet
		default:
			continue
		}
		if d := selectionDepth(child, depth+1); d > max {
			max = d
		}
	}
	return max
}

// selectionComplexity sums the weighted cost of sel's fields under
// parent (the GraphQL object type the selection is made against, nil if
// unknown). Complexities sum across siblings; cost of a field's own
// subtree is added to its own cost, matching spec.md §4.6's "multiply
// through lists via addition of child complexity".
func selectionComplexity(sel *ast.SelectionSet, parent *graphql.Object) int {
	if sel == nil || parent == nil {
		return 0
	}

	total := 0
	fields := parent.Fields()
	for _, s := range sel.Selections {
		field, ok := s.(*ast.Field)
		if !ok {
			continue
		}
		def, ok := fields[field.Name.Value]
		if !ok {
			continue
		}

		named, isList := unwrapList(def.Type)
		cost := scalarCost
		if isList {
			cost = listCost
		}
		cost += limitBonus(field)

		total += cost
		if child, ok := named.(*graphql.Object); ok {
			total += selectionComplexity(field.SelectionSet, child)
		}
	}
	return total
}

// unwrapList strips NonNull wrappers and reports whether the underlying
// type is a list. A "<Type>Connection" field is not itself a list: it is
// charged as an object field, and its list cost comes from its "edges"
// field, reached by selectionComplexity's recursion into the Connection
// object.
func unwrapList(t graphql.Type) (graphql.Type, bool) {
	for {
		switch v := t.(type) {
		case *graphql.NonNull:
			t = v.OfType
		case *graphql.List:
			return unwrapNamed(v.OfType), true
		default:
			return t, false
		}
	}
}

func unwrapNamed(t graphql.Type) graphql.Type {
	for {
		if nn, ok := t.(*graphql.NonNull); ok {
			t = nn.OfType
			continue
		}
		return t
	}
}

// limitBonus implements "each limit-like argument adds min(value/10, 20)".
func limitBonus(field *ast.Field) int {
	total := 0
	for _, arg := range field.Arguments {
		switch arg.Name.Value {
		case "limit", "first", "last":
		default:
			continue
		}
		iv, ok := arg.Value.(*ast.IntValue)
		if !ok {
			continue
		}
		n := atoi(iv.Value)
		bonus := n / 10
		if bonus > maxLimitBonus {
			bonus = maxLimitBonus
		}
		total += bonus
	}
	return total
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}
