package tree

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// decodeJSON parses a JSON document into a Value. gjson iterates object
// members in document order, which keeps the mapping key order invariant.
func decodeJSON(data []byte) (*Value, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Mapping(), nil
	}

	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON document")
	}

	return fromJSONResult(gjson.ParseBytes(data)), nil
}

func fromJSONResult(r gjson.Result) *Value {
	switch {
	case r.IsObject():
		var fields []Field

		idx := make(map[string]int)

		r.ForEach(func(key, value gjson.Result) bool {
			k := key.String()
			v := fromJSONResult(value)

			// Duplicate keys: JSON semantics, the last occurrence wins.
			if i, ok := idx[k]; ok {
				fields[i].Value = v
				return true
			}

			idx[k] = len(fields)
			fields = append(fields, Field{Key: k, Value: v})

			return true
		})

		return Mapping(fields...)

	case r.IsArray():
		var items []*Value

		r.ForEach(func(_, value gjson.Result) bool {
			items = append(items, fromJSONResult(value))
			return true
		})

		return Sequence(items...)

	case r.Type == gjson.String:
		return Scalar(KindString, r.String())

	case r.Type == gjson.Number:
		if strings.ContainsAny(r.Raw, ".eE") {
			return Scalar(KindFloat, r.Raw)
		}

		return Scalar(KindInt, r.Raw)

	case r.Type == gjson.True:
		return Scalar(KindBool, "true")

	case r.Type == gjson.False:
		return Scalar(KindBool, "false")

	default:
		return Scalar(KindNull, "null")
	}
}
