package tree

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// decodeYAML parses a YAML document into a Value using the yaml.v3 node API,
// which preserves mapping key order and carries resolved scalar tags.
func decodeYAML(data []byte) (*Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	// An empty document has no content nodes. Treat it as an empty mapping
	// so that downstream inference yields a record with zero fields.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Mapping(), nil
	}

	return fromYAMLNode(doc.Content[0])
}

func fromYAMLNode(n *yaml.Node) (*Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)

	case yaml.ScalarNode:
		return Scalar(scalarKindFromTag(n.Tag), n.Value), nil

	case yaml.SequenceNode:
		items := make([]*Value, 0, len(n.Content))

		for _, c := range n.Content {
			v, err := fromYAMLNode(c)
			if err != nil {
				return nil, err
			}

			items = append(items, v)
		}

		return Sequence(items...), nil

	case yaml.MappingNode:
		fields := make([]Field, 0, len(n.Content)/2)
		seen := make(map[string]bool, len(n.Content)/2)

		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value

			if seen[key] {
				return nil, fmt.Errorf("duplicate mapping key %q at line %d", key, n.Content[i].Line)
			}

			seen[key] = true

			v, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}

			fields = append(fields, Field{Key: key, Value: v})
		}

		return Mapping(fields...), nil

	default:
		return nil, fmt.Errorf("unexpected YAML node kind %d at line %d", n.Kind, n.Line)
	}
}

// scalarKindFromTag maps a resolved YAML scalar tag to a tree Kind.
// Unrecognized tags (e.g. timestamps) fall back to string.
func scalarKindFromTag(tag string) Kind {
	switch tag {
	case "!!int":
		return KindInt
	case "!!float":
		return KindFloat
	case "!!bool":
		return KindBool
	case "!!null":
		return KindNull
	default:
		return KindString
	}
}
