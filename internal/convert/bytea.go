package convert

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/qbloq/dbgraphql/internal/apperr"
)

// byteaToGraphQL hex-encodes in lower case (spec.md §4.8 "Bytea:
// hex-encoded lower-case on output").
func byteaToGraphQL(v interface{}) (interface{}, error) {
	b, err := toBytes(v)
	if err != nil {
		return nil, err
	}
	return hex.EncodeToString(b), nil
}

// byteaFromGraphQL accepts either hex or base64 input (spec.md §4.8).
func byteaFromGraphQL(v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, apperr.New(apperr.Validation, "expected string for bytea input, got %T", v)
	}
	if b, err := hex.DecodeString(strings.TrimPrefix(s, "\\x")); err == nil {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return nil, apperr.New(apperr.Validation, "bytea input %q is neither valid hex nor base64", s)
}

func toBytes(v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, apperr.New(apperr.Validation, "expected bytes, got %T", v)
	}
}
