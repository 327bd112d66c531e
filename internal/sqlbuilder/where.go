package sqlbuilder

import (
	"fmt"
	"strings"

	"github.com/qbloq/dbgraphql/internal/apperr"
	"github.com/qbloq/dbgraphql/internal/sdata"
)

// Op is a filter operator keyword (spec.md §4.7's operator table).
type Op string

const (
	OpEq         Op = "eq"
	OpNeq        Op = "neq"
	OpGt         Op = "gt"
	OpGte        Op = "gte"
	OpLt         Op = "lt"
	OpLte        Op = "lte"
	OpContains   Op = "contains"
	OpStartsWith Op = "startsWith"
	OpEndsWith   Op = "endsWith"
	OpLike       Op = "like"
	OpILike      Op = "ilike"
	OpIn         Op = "in"
	OpNotIn      Op = "notIn"
	OpIsNull     Op = "isNull"
	OpIsNotNull  Op = "isNotNull"
	OpHasKey     Op = "hasKey"
	OpPath       Op = "path"
	OpHasAny     Op = "hasAny"
	OpLength     Op = "length"
)

// Filter is column name → operator → operand, mirroring the shape of a
// decoded GraphQL TFilter input.
type Filter map[string]map[Op]interface{}

// Where is a filter object plus its "or" branches (spec.md §3.2 `TFilter`
// carries `or: [TFilter!]`). A Where's own Filter fields are implicitly
// AND-ed together; Or branches are disjuncted with that conjunction.
type Where struct {
	Filter Filter
	Or     []Where
}

// BuildWhere renders w against table's column types, binding every
// operand through params. An empty Where renders "TRUE" so callers can
// always append "WHERE " + sql unconditionally.
func BuildWhere(table sdata.Table, w Where, params *Params) (string, error) {
	var andParts []string
	for col, ops := range w.Filter {
		c, ok := table.Column(col)
		if !ok {
			return "", apperr.New(apperr.Validation, "unknown column %q on table %q", col, table.Name)
		}
		for op, val := range ops {
			if err := validateOperator(c, op); err != nil {
				return "", err
			}
			frag, err := renderCondition(c, op, val, params)
			if err != nil {
				return "", err
			}
			andParts = append(andParts, frag)
		}
	}

	clause := "TRUE"
	if len(andParts) > 0 {
		clause = strings.Join(andParts, " AND ")
	}

	if len(w.Or) == 0 {
		return clause, nil
	}

	branches := []string{"(" + clause + ")"}
	for _, sub := range w.Or {
		s, err := BuildWhere(table, sub, params)
		if err != nil {
			return "", err
		}
		branches = append(branches, "("+s+")")
	}
	return strings.Join(branches, " OR "), nil
}

func renderCondition(c sdata.Column, op Op, val interface{}, params *Params) (string, error) {
	col := QuoteIdent(c.Name)

	switch op {
	case OpEq:
		return col + " = " + params.Bind(val), nil
	case OpNeq:
		return col + " != " + params.Bind(val), nil
	case OpGt:
		return col + " > " + params.Bind(val), nil
	case OpGte:
		return col + " >= " + params.Bind(val), nil
	case OpLt:
		return col + " < " + params.Bind(val), nil
	case OpLte:
		return col + " <= " + params.Bind(val), nil
	case OpIsNull:
		if b, _ := val.(bool); !b {
			return col + " IS NOT NULL", nil
		}
		return col + " IS NULL", nil
	case OpIsNotNull:
		if b, _ := val.(bool); !b {
			return col + " IS NULL", nil
		}
		return col + " IS NOT NULL", nil
	case OpLike:
		return col + " LIKE " + params.Bind(val), nil
	case OpILike:
		return col + " ILIKE " + params.Bind(val), nil
	case OpStartsWith:
		return col + " LIKE " + params.Bind(fmt.Sprintf("%v%%", val)), nil
	case OpEndsWith:
		return col + " LIKE " + params.Bind(fmt.Sprintf("%%%v", val)), nil
	case OpContains:
		switch c.Type.Tag {
		case sdata.TagScalar:
			if c.Type.Kind == sdata.KindJSON || c.Type.Kind == sdata.KindJSONB {
				return col + " @> " + params.Bind(val), nil
			}
			return col + " LIKE " + params.Bind(fmt.Sprintf("%%%v%%", val)), nil
		case sdata.TagArray:
			return params.Bind(val) + " = ANY(" + col + ")", nil
		default:
			return col + " @> " + params.Bind(val), nil
		}
	case OpIn:
		return renderInList(col, "IN", val, params, false), nil
	case OpNotIn:
		return renderInList(col, "NOT IN", val, params, true), nil
	case OpHasKey:
		return col + " ? " + params.Bind(val), nil
	case OpPath:
		path, _ := val.([]string)
		return col + " #> " + params.Bind("{"+strings.Join(path, ",")+"}"), nil
	case OpHasAny:
		return col + " && " + params.Bind(val), nil
	case OpLength:
		ops, _ := val.(map[Op]interface{})
		sub, err := renderCondition(sdata.Column{Name: "__length__", Type: sdata.TypeDescriptor{Tag: sdata.TagScalar, Kind: sdata.KindInt32}}, pickOp(ops), pickVal(ops), params)
		if err != nil {
			return "", err
		}
		return strings.Replace(sub, QuoteIdent("__length__"), "cardinality("+col+")", 1), nil
	default:
		return "", apperr.New(apperr.Validation, "unsupported operator %q", op)
	}
}

// renderInList implements the NOT IN + NULL open-question decision:
// NULL is dropped from the bound list before binding, since SQL's
// `x NOT IN (1, NULL)` is never true for any x.
func renderInList(col, kw string, val interface{}, params *Params, dropNull bool) string {
	items, _ := val.([]interface{})
	var clean []interface{}
	for _, it := range items {
		if it == nil && dropNull {
			continue
		}
		clean = append(clean, it)
	}
	return col + " " + kw + " (" + params.Bind(clean) + ")"
}

func pickOp(ops map[Op]interface{}) Op {
	for k := range ops {
		return k
	}
	return OpEq
}

func pickVal(ops map[Op]interface{}) interface{} {
	for _, v := range ops {
		return v
	}
	return nil
}

// validateOperator rejects operator/type combinations spec.md §4.7
// forbids, before any SQL is generated.
func validateOperator(c sdata.Column, op Op) error {
	isString := c.Type.Tag == sdata.TagScalar && (c.Type.Kind == sdata.KindText || c.Type.Kind == sdata.KindVarchar || c.Type.Kind == sdata.KindChar)
	isNumeric := c.Type.Tag == sdata.TagScalar && isNumericKind(c.Type.Kind)
	isJSON := c.Type.Tag == sdata.TagScalar && (c.Type.Kind == sdata.KindJSON || c.Type.Kind == sdata.KindJSONB)
	isArray := c.Type.Tag == sdata.TagArray

	switch op {
	case OpLike, OpILike, OpStartsWith, OpEndsWith:
		if !isString {
			return apperr.New(apperr.Validation, "operator %q requires a string column, got %q on %q", op, c.Type.Kind, c.Name)
		}
	case OpGt, OpGte, OpLt, OpLte:
		if isJSON || isArray {
			return apperr.New(apperr.Validation, "operator %q is not valid on column %q", op, c.Name)
		}
	case OpHasKey, OpPath:
		if !isJSON {
			return apperr.New(apperr.Validation, "operator %q requires a JSON column, got %q on %q", op, c.Type.Kind, c.Name)
		}
	case OpHasAny, OpLength:
		if !isArray {
			return apperr.New(apperr.Validation, "operator %q requires an array column, got %q on %q", op, c.Type.Kind, c.Name)
		}
	case OpContains:
		if !isString && !isJSON && !isArray {
			return apperr.New(apperr.Validation, "operator %q is not valid on column %q", op, c.Name)
		}
	}
	_ = isNumeric
	return nil
}

func isNumericKind(k sdata.ScalarKind) bool {
	switch k {
	case sdata.KindInt32, sdata.KindInt64, sdata.KindSmallInt, sdata.KindFloat32, sdata.KindFloat64, sdata.KindNumeric:
		return true
	default:
		return false
	}
}
