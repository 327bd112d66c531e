package convert

import (
	"github.com/google/uuid"

	"github.com/qbloq/dbgraphql/internal/apperr"
)

// uuidToGraphQL renders the canonical hyphenated form (spec.md §4.8
// "UUID: canonical hyphenated form").
func uuidToGraphQL(v interface{}) (interface{}, error) {
	switch u := v.(type) {
	case uuid.UUID:
		return u.String(), nil
	case string:
		parsed, err := uuid.Parse(u)
		if err != nil {
			return nil, apperr.Wrap(apperr.InvalidUUID, err, "parse uuid %q", u)
		}
		return parsed.String(), nil
	case [16]byte:
		return uuid.UUID(u).String(), nil
	default:
		return nil, apperr.New(apperr.InvalidUUID, "unsupported uuid representation %T", v)
	}
}

func uuidFromGraphQL(v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, apperr.New(apperr.InvalidUUID, "expected string uuid, got %T", v)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidUUID, err, "parse uuid %q", s)
	}
	return parsed.String(), nil
}
