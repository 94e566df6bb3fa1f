package table

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var tableTmpl = template.Must(template.ParseFS(templateFS, "templates/table.html"))

// Render writes the HTML of v.
func Render(w io.Writer, v View) error {
	if err := tableTmpl.ExecuteTemplate(w, "table", v); err != nil {
		return fmt.Errorf("failed to render table %s: %w", v.ID, err)
	}
	return nil
}

// HTML renders the table's current state.
func (t *Table) HTML() (template.HTML, error) {
	var buf bytes.Buffer
	if err := Render(&buf, t.View()); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
