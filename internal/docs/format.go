package docs

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

// Formatter renders a Model to a writer.
type Formatter interface {
	Format(w io.Writer, model *Model) error
}

// NewFormatter returns a formatter for the given format name.
func NewFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return &MarkdownFormatter{}, nil
	case "html":
		return &HTMLFormatter{}, nil
	case "asciidoc", "adoc":
		return &AsciiDocFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported docs format: %s", format)
	}
}

func modelTitle(model *Model) string {
	if model.Title != "" {
		return model.Title
	}

	if len(model.Records) > 0 {
		return model.Records[0].Name + " Configuration Reference"
	}

	return "Configuration Reference"
}

// ---------------------------------------------------------------------------
// Markdown
// ---------------------------------------------------------------------------

// MarkdownFormatter renders documentation as Markdown.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, model *Model) error {
	fmt.Fprintf(w, "# %s\n\n", modelTitle(model))

	if model.Source != "" {
		fmt.Fprintf(w, "**Source:** `%s`  \n\n", model.Source)
	}

	for _, rec := range model.Records {
		heading := rec.Name
		if rec.Root {
			heading += " (root)"
		}

		fmt.Fprintf(w, "## %s\n\n", heading)

		if len(rec.Fields) == 0 {
			fmt.Fprintln(w, "_No fields._")
			fmt.Fprintln(w)

			continue
		}

		fmt.Fprintln(w, "| Key | Type | Required |")
		fmt.Fprintln(w, "|-----|------|----------|")

		for _, field := range rec.Fields {
			required := "yes"
			if field.Optional {
				required = "no"
			}

			fmt.Fprintf(w, "| `%s` | `%s` | %s |\n", field.Key, field.Type, required)
		}

		fmt.Fprintln(w)
	}

	if model.IncludeExample && model.ExampleYAML != "" {
		fmt.Fprintf(w, "## Example\n\n```yaml\n%s```\n", model.ExampleYAML)
	}

	return nil
}

// ---------------------------------------------------------------------------
// HTML
// ---------------------------------------------------------------------------

// HTMLFormatter renders documentation as a standalone HTML page.
type HTMLFormatter struct{}

var htmlTpl = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:sans-serif;margin:2em;line-height:1.6}
table{border-collapse:collapse;width:100%;margin-bottom:1em}
th,td{border:1px solid #ddd;padding:8px;text-align:left}
th{background:#f5f5f5}
code{background:#f0f0f0;padding:2px 4px;border-radius:3px}
pre{background:#f5f5f5;padding:1em;border-radius:4px;overflow-x:auto}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Source}}<p><strong>Source:</strong> <code>{{.Source}}</code></p>{{end}}

{{range .Records}}
<h2>{{.Name}}{{if .Root}} (root){{end}}</h2>
{{if .Fields}}
<table>
<tr><th>Key</th><th>Type</th><th>Required</th></tr>
{{range .Fields}}<tr><td><code>{{.Key}}</code></td><td><code>{{.Type}}</code></td><td>{{if .Optional}}no{{else}}yes{{end}}</td></tr>
{{end}}
</table>
{{else}}
<p><em>No fields.</em></p>
{{end}}
{{end}}

{{if .ExampleYAML}}
<h2>Example</h2>
<pre><code>{{.ExampleYAML}}</code></pre>
{{end}}

</body>
</html>
`))

// htmlModel wraps Model with the resolved title for the HTML template.
type htmlModel struct {
	*Model
	Title       string
	ExampleYAML string
}

func (f *HTMLFormatter) Format(w io.Writer, model *Model) error {
	m := htmlModel{
		Model: model,
		Title: modelTitle(model),
	}

	if model.IncludeExample {
		m.ExampleYAML = model.ExampleYAML
	}

	return htmlTpl.Execute(w, m)
}

// ---------------------------------------------------------------------------
// AsciiDoc
// ---------------------------------------------------------------------------

// AsciiDocFormatter renders documentation as AsciiDoc.
type AsciiDocFormatter struct{}

func (f *AsciiDocFormatter) Format(w io.Writer, model *Model) error {
	fmt.Fprintf(w, "= %s\n\n", modelTitle(model))

	if model.Source != "" {
		fmt.Fprintf(w, "*Source:* `%s`\n\n", model.Source)
	}

	for _, rec := range model.Records {
		heading := rec.Name
		if rec.Root {
			heading += " (root)"
		}

		fmt.Fprintf(w, "== %s\n\n", heading)

		if len(rec.Fields) == 0 {
			fmt.Fprintln(w, "_No fields._")
			fmt.Fprintln(w)

			continue
		}

		fmt.Fprintln(w, "[cols=\"1,1,1\", options=\"header\"]")
		fmt.Fprintln(w, "|===")
		fmt.Fprintln(w, "| Key | Type | Required")

		for _, field := range rec.Fields {
			required := "yes"
			if field.Optional {
				required = "no"
			}

			fmt.Fprintf(w, "\n| `%s`\n| `%s`\n| %s\n", field.Key, field.Type, required)
		}

		fmt.Fprintln(w, "|===")
		fmt.Fprintln(w)
	}

	if model.IncludeExample && model.ExampleYAML != "" {
		fmt.Fprintf(w, "== Example\n\n[source,yaml]\n----\n%s----\n", model.ExampleYAML)
	}

	return nil
}
