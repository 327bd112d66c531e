package convert

import (
	"fmt"
	"time"
)

// toISO8601 normalizes a database timestamp/date/time/interval value to
// ISO-8601 text, preserving fractional seconds (spec.md §4.8).
func toISO8601(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case time.Time:
		if t.Nanosecond() == 0 {
			return t.Format(time.RFC3339), nil
		}
		return t.Format(time.RFC3339Nano), nil
	case string:
		return t, nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}
