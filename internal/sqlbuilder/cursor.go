package sqlbuilder

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/qbloq/dbgraphql/internal/apperr"
)

// CursorField is one decoded (column, value) pair of an opaque cursor.
type CursorField struct {
	Column string
	Value  string
}

// EncodeCursor renders the opaque cursor form `base64(k1:v1|k2:v2|…)`
// (spec.md §4.7 "Cursor opaque form") for order's columns read off row.
func EncodeCursor(order []OrderField, row map[string]interface{}) string {
	parts := make([]string, len(order))
	for i, o := range order {
		parts[i] = o.Column + ":" + fmt.Sprintf("%v", row[o.Column])
	}
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(parts, "|")))
}

// DecodeCursor inverts EncodeCursor, raising apperr.InvalidCursor on any
// malformed input.
func DecodeCursor(cursor string) ([]CursorField, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, apperr.New(apperr.InvalidCursor, "cursor is not valid base64")
	}
	segments := strings.Split(string(raw), "|")
	out := make([]CursorField, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			return nil, apperr.New(apperr.InvalidCursor, "cursor contains an empty field")
		}
		idx := strings.Index(seg, ":")
		if idx < 0 {
			return nil, apperr.New(apperr.InvalidCursor, "cursor field %q is missing its column", seg)
		}
		out = append(out, CursorField{Column: seg[:idx], Value: seg[idx+1:]})
	}
	return out, nil
}

// BuildCursorPredicate renders the "after" (forward=true) or "before"
// (forward=false) row-comparison predicate for order against the
// decoded cursor fields (spec.md §4.7 "Cursor condition building"): for
// uniform ASC ordering this is equivalent to a row-constructor
// comparison; the OR-chain form used here is also correct for mixed
// per-field directions, which a bare row constructor cannot express.
func BuildCursorPredicate(order []OrderField, cursor []CursorField, forward bool, params *Params) (string, error) {
	if len(order) != len(cursor) {
		return "", apperr.New(apperr.InvalidCursor, "cursor field count does not match order-by column count")
	}
	for i, o := range order {
		if o.Column != cursor[i].Column {
			return "", apperr.New(apperr.InvalidCursor, "cursor column %q does not match order-by column %q", cursor[i].Column, o.Column)
		}
	}

	var branches []string
	for i := range order {
		var eqParts []string
		for j := 0; j < i; j++ {
			eqParts = append(eqParts, QuoteIdent(order[j].Column)+" = "+params.Bind(cursor[j].Value))
		}

		op := ">"
		if order[i].Desc {
			op = "<"
		}
		if !forward {
			if op == ">" {
				op = "<"
			} else {
				op = ">"
			}
		}

		cond := QuoteIdent(order[i].Column) + " " + op + " " + params.Bind(cursor[i].Value)
		if len(eqParts) > 0 {
			cond = strings.Join(eqParts, " AND ") + " AND " + cond
		}
		branches = append(branches, "("+cond+")")
	}

	return strings.Join(branches, " OR "), nil
}
