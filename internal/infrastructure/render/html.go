// Package render turns extracted cell grids into the two delivery formats:
// embeddable HTML fragments and xlsx workbooks.
package render

import (
	"fmt"
	"html/template"
	"strings"
)

var fragmentTemplate = template.Must(template.New("fragment").Parse(`<table class="table table-bordered">
{{- if .Header}}
<thead>
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
</thead>
{{- end}}
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>`))

type fragmentData struct {
	Header []string
	Rows   [][]string
}

// HTMLRenderer renders cell grids as standalone table fragments. Cell text
// is escaped by the template engine.
type HTMLRenderer struct{}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{}
}

// Fragment renders the grid. The first row becomes the header when at least
// one more row follows it.
func (r *HTMLRenderer) Fragment(cells [][]string) (string, error) {
	if len(cells) == 0 {
		return "", fmt.Errorf("render fragment: empty grid")
	}

	data := fragmentData{Rows: cells}
	if len(cells) >= 2 {
		data.Header = cells[0]
		data.Rows = cells[1:]
	}

	var sb strings.Builder
	if err := fragmentTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render fragment: %w", err)
	}
	return sb.String(), nil
}
