package emit

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/confgen/confgen/internal/schema"
)

var goReserved = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true,
	"for": true, "func": true, "go": true, "goto": true, "if": true,
	"import": true, "interface": true, "map": true, "package": true,
	"range": true, "return": true, "select": true, "struct": true,
	"switch": true, "type": true, "var": true,
}

// GoRenderer emits Go struct definitions with yaml/json tags and a Load
// helper on the root type.
type GoRenderer struct{}

// NewGoRenderer creates the Go renderer.
func NewGoRenderer() *GoRenderer {
	return &GoRenderer{}
}

// Language implements Renderer.
func (r *GoRenderer) Language() string { return "go" }

// FileExtension implements Renderer.
func (r *GoRenderer) FileExtension() string { return "go" }

// Render implements Renderer. Optional fields become pointers with omitempty
// tags; struct tags carry the original mapping keys so loading maps back to
// the source document. Field names are always exported regardless of the
// configured naming style, since unexported fields are invisible to the
// unmarshalers.
func (r *GoRenderer) Render(s *schema.Schema, order []int, opts Options) ([]byte, error) {
	style := opts.NamingStyle
	if style == "" {
		style = schema.StylePascal
	}

	var b strings.Builder

	root := s.RootRecord()

	b.WriteString("// Code generated by confgen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", packageName(root.Name))
	b.WriteString("import (\n\t\"fmt\"\n\t\"os\"\n\t\"path/filepath\"\n\t\"strings\"\n\n\t\"github.com/BurntSushi/toml\"\n\t\"gopkg.in/yaml.v3\"\n)\n")

	for _, ref := range order {
		rec := s.Records[ref]

		fmt.Fprintf(&b, "\ntype %s struct {\n", rec.Name)

		taken := make(map[string]bool, len(rec.Fields))

		for _, f := range rec.Fields {
			name := exported(schema.Identifier(f.Key, style, goReserved))

			base := name
			for n := 2; taken[name]; n++ {
				name = fmt.Sprintf("%s%d", base, n)
			}

			taken[name] = true

			omit := ""
			if f.Type.Kind == schema.TypeOptional {
				omit = ",omitempty"
			}

			fmt.Fprintf(&b, "\t%s %s `yaml:%q json:%q toml:%q`\n",
				name, r.typeExpr(s, f.Type), f.Key+omit, f.Key+omit, f.Key+omit)
		}

		b.WriteString("}\n")
	}

	r.writeLoader(&b, root.Name)

	return []byte(b.String()), nil
}

func (r *GoRenderer) typeExpr(s *schema.Schema, t schema.Type) string {
	switch t.Kind {
	case schema.TypeOptional:
		return "*" + r.typeExpr(s, *t.Elem)
	case schema.TypeList:
		return "[]" + r.typeExpr(s, *t.Elem)
	case schema.TypeRecord:
		return s.Records[t.Ref].Name
	default:
		switch t.Prim {
		case schema.PrimInt:
			return "int"
		case schema.PrimFloat:
			return "float64"
		case schema.PrimBool:
			return "bool"
		case schema.PrimUntyped:
			return "any"
		default:
			return "string"
		}
	}
}

func (r *GoRenderer) writeLoader(b *strings.Builder, rootName string) {
	fmt.Fprintf(b, `
// Load%[1]s reads the configuration file at path and populates a %[1]s.
// The format is selected by file extension.
func Load%[1]s(path string) (*%[1]s, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %%s: %%w", path, err)
	}

	var cfg %[1]s

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %%s: %%w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %%s: %%w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %%q", filepath.Ext(path))
	}

	return &cfg, nil
}
`, rootName)
}

// exported forces the first rune of name to upper case.
func exported(name string) string {
	if name == "" {
		return "Field"
	}

	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])

	return string(runes)
}

// packageName derives a Go package name from the root record name.
func packageName(rootName string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(rootName) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 || unicode.IsDigit(rune(b.String()[0])) {
		return "config"
	}

	return b.String()
}
