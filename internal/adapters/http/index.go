package httpadapter

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/rcoppens/tableminer/internal/core/domain"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Table Miner</title>
</head>
<body>
<h1>Table Miner</h1>
<form method="post" action="/v1/extractions" enctype="multipart/form-data">
<input type="file" name="document" accept=".pdf" required>
<button type="submit">Extract tables</button>
</form>
<pre id="progress-log"></pre>
{{- if .Result}}
<section id="tables">
{{- range .Result.Tables}}
<article>
<h2>{{.Label}}</h2>
{{.FragmentHTML}}
<a href="{{.ExportURL}}">Download xlsx</a>
</article>
{{- end}}
</section>
<script type="application/json" id="extraction-data">{{.ResultJSON}}</script>
{{- end}}
<script>
const log = document.getElementById("progress-log");
const source = new EventSource("/v1/progress");
source.onmessage = (e) => {
	const event = JSON.parse(e.data);
	log.textContent += event.message + "\n";
};
</script>
</body>
</html>
`))

type indexTable struct {
	Label        string
	FragmentHTML template.HTML
	ExportURL    string
}

type indexResult struct {
	Tables []indexTable
}

type indexData struct {
	Result     *indexResult
	ResultJSON template.JS
}

func (rt *Router) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	data := indexData{}
	if result := rt.reader.Current(); result != nil {
		data.Result = indexResultView(result)
		if payload, err := json.Marshal(result); err == nil {
			data.ResultJSON = template.JS(payload)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		rt.logger.Error("index_render_failed", "error", err)
	}
}

func indexResultView(result *domain.ExtractionResult) *indexResult {
	view := &indexResult{Tables: make([]indexTable, 0, len(result.Tables))}
	for _, table := range result.Tables {
		view.Tables = append(view.Tables, indexTable{
			Label: table.Label,
			// Fragments come out of our own renderer with all cell text
			// escaped.
			FragmentHTML: template.HTML(table.Fragment),
			ExportURL:    exportURL(table.Index),
		})
	}
	return view
}
