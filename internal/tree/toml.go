package tree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// decodeTOML parses a TOML document into a Value. The toml package decodes
// tables into unordered maps, so source key order is recovered from
// MetaData.Keys, which lists keys in order of appearance.
func decodeTOML(data []byte) (*Value, error) {
	var raw map[string]interface{}

	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, err
	}

	// First-appearance index per dotted key path. Keys inside arrays of
	// tables share one path for all elements; the first occurrence decides.
	order := make(map[string]int)

	for i, key := range md.Keys() {
		path := strings.Join(key, "\x00")
		if _, ok := order[path]; !ok {
			order[path] = i
		}
	}

	return fromTOMLValue(raw, nil, order)
}

func fromTOMLValue(v interface{}, path []string, order map[string]int) (*Value, error) {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}

		sort.Slice(keys, func(i, j int) bool {
			oi, oj := tomlKeyOrder(path, keys[i], order), tomlKeyOrder(path, keys[j], order)
			if oi != oj {
				return oi < oj
			}

			return keys[i] < keys[j]
		})

		fields := make([]Field, 0, len(keys))

		for _, k := range keys {
			child, err := fromTOMLValue(t[k], append(path, k), order)
			if err != nil {
				return nil, err
			}

			fields = append(fields, Field{Key: k, Value: child})
		}

		return Mapping(fields...), nil

	case []map[string]interface{}:
		items := make([]*Value, 0, len(t))

		for _, elem := range t {
			child, err := fromTOMLValue(elem, path, order)
			if err != nil {
				return nil, err
			}

			items = append(items, child)
		}

		return Sequence(items...), nil

	case []interface{}:
		items := make([]*Value, 0, len(t))

		for _, elem := range t {
			child, err := fromTOMLValue(elem, path, order)
			if err != nil {
				return nil, err
			}

			items = append(items, child)
		}

		return Sequence(items...), nil

	case string:
		return Scalar(KindString, t), nil

	case int64:
		return Scalar(KindInt, strconv.FormatInt(t, 10)), nil

	case float64:
		return Scalar(KindFloat, strconv.FormatFloat(t, 'g', -1, 64)), nil

	case bool:
		return Scalar(KindBool, strconv.FormatBool(t)), nil

	case time.Time:
		return Scalar(KindString, t.Format(time.RFC3339)), nil

	case nil:
		return Scalar(KindNull, ""), nil

	default:
		return nil, fmt.Errorf("unsupported TOML value type %T", v)
	}
}

// tomlKeyOrder returns the first-appearance index of key under path. Keys
// absent from the metadata get a large sentinel so the sort tie-break
// orders them alphabetically after all known keys.
func tomlKeyOrder(path []string, key string, order map[string]int) int {
	full := strings.Join(append(append([]string{}, path...), key), "\x00")
	if i, ok := order[full]; ok {
		return i
	}

	return 1 << 30
}
