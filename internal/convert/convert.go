// Package convert implements the Type Converter (C9, spec.md §4.8):
// bidirectional conversion between database-native values and the
// GraphQL-facing representation for every TypeDescriptor tag. Grounded
// in core/internal/psql/columns.go's type-aware column rendering,
// generalized here from SQL-fragment rendering to value conversion;
// UUID canonicalization fills a gap the teacher's filtered tree does
// not cover, using google/uuid as the rest of the pack does
// (rendiffdev-ffprobe-api, wayli-app-fluxbase).
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/qbloq/dbgraphql/internal/apperr"
	"github.com/qbloq/dbgraphql/internal/sdata"
)

// ToGraphQL converts a value read from the database into the shape C7's
// generated GraphQL type expects.
func ToGraphQL(t sdata.TypeDescriptor, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	switch t.Tag {
	case sdata.TagArray:
		return arrayToGraphQL(t, v)
	case sdata.TagEnum:
		return enumToGraphQL(t, v)
	case sdata.TagComposite:
		return compositeToGraphQL(t, v)
	case sdata.TagDomain:
		return ToGraphQL(*t.Base, v)
	case sdata.TagUnknown:
		return v, nil
	default:
		return scalarToGraphQL(t.Kind, v)
	}
}

// FromGraphQL converts a GraphQL input value into the shape the
// database driver expects to bind.
func FromGraphQL(t sdata.TypeDescriptor, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	switch t.Tag {
	case sdata.TagArray:
		return arrayFromGraphQL(t, v)
	case sdata.TagEnum:
		return enumFromGraphQL(t, v)
	case sdata.TagComposite:
		return compositeFromGraphQL(t, v)
	case sdata.TagDomain:
		return FromGraphQL(*t.Base, v)
	case sdata.TagUnknown:
		return v, nil
	default:
		return scalarFromGraphQL(t.Kind, v)
	}
}

func arrayToGraphQL(t sdata.TypeDescriptor, v interface{}) (interface{}, error) {
	items, err := toSlice(v)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, len(items))
	for i, item := range items {
		c, err := ToGraphQL(*t.Element, item)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func arrayFromGraphQL(t sdata.TypeDescriptor, v interface{}) (interface{}, error) {
	items, err := toSlice(v)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, len(items))
	for i, item := range items {
		c, err := FromGraphQL(*t.Element, item)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func toSlice(v interface{}) ([]interface{}, error) {
	switch s := v.(type) {
	case []interface{}:
		return s, nil
	case nil:
		return nil, nil
	default:
		return nil, apperr.New(apperr.Validation, "expected array value, got %T", v)
	}
}

func enumToGraphQL(t sdata.TypeDescriptor, v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, apperr.New(apperr.Validation, "expected string for enum %q, got %T", t.Name, v)
	}
	if !containsString(t.EnumValues, s) {
		return nil, apperr.New(apperr.InvalidEnum, "value %q is not a member of enum %q", s, t.Name)
	}
	return s, nil
}

func enumFromGraphQL(t sdata.TypeDescriptor, v interface{}) (interface{}, error) {
	return enumToGraphQL(t, v)
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func compositeToGraphQL(t sdata.TypeDescriptor, v interface{}) (interface{}, error) {
	rec, ok := v.(map[string]interface{})
	if !ok {
		return nil, apperr.New(apperr.Validation, "expected composite record for %q, got %T", t.Name, v)
	}
	out := make(map[string]interface{}, len(t.Fields))
	for _, f := range t.Fields {
		raw, present := rec[f.Name]
		if !present {
			out[f.Name] = nil
			continue
		}
		c, err := ToGraphQL(f.Type, raw)
		if err != nil {
			return nil, err
		}
		out[f.Name] = c
	}
	return out, nil
}

func compositeFromGraphQL(t sdata.TypeDescriptor, v interface{}) (interface{}, error) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, apperr.New(apperr.Validation, "expected composite object for %q, got %T", t.Name, v)
	}
	out := make(map[string]interface{}, len(t.Fields))
	for _, f := range t.Fields {
		raw, present := obj[f.Name]
		if !present {
			out[f.Name] = nil
			continue
		}
		c, err := FromGraphQL(f.Type, raw)
		if err != nil {
			return nil, err
		}
		out[f.Name] = c
	}
	return out, nil
}

func scalarToGraphQL(k sdata.ScalarKind, v interface{}) (interface{}, error) {
	switch k {
	case sdata.KindUUID:
		return uuidToGraphQL(v)
	case sdata.KindJSON, sdata.KindJSONB:
		return jsonToGraphQL(v)
	case sdata.KindBytea:
		return byteaToGraphQL(v)
	case sdata.KindTimestamp, sdata.KindTimestampTZ, sdata.KindDate, sdata.KindTime, sdata.KindTimeTZ, sdata.KindInterval:
		return toISO8601(v)
	default:
		return v, nil
	}
}

func scalarFromGraphQL(k sdata.ScalarKind, v interface{}) (interface{}, error) {
	switch k {
	case sdata.KindUUID:
		return uuidFromGraphQL(v)
	case sdata.KindJSON, sdata.KindJSONB:
		return jsonFromGraphQL(v)
	case sdata.KindBytea:
		return byteaFromGraphQL(v)
	default:
		return v, nil
	}
}

func jsonToGraphQL(v interface{}) (interface{}, error) {
	switch s := v.(type) {
	case string:
		var out interface{}
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return s, nil
		}
		return out, nil
	case []byte:
		var out interface{}
		if err := json.Unmarshal(s, &out); err != nil {
			return string(s), nil
		}
		return out, nil
	default:
		return v, nil
	}
}

func jsonFromGraphQL(v interface{}) (interface{}, error) {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, apperr.Wrap(apperr.InvalidJSON, err, "marshal JSON input")
		}
		return string(b), nil
	case string:
		return v, nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

