package mapview

import (
	"html/template"
	"io"
)

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="margin:0;height:100vh;background:#f0f0f0">
{{- with .View.Iframe}}
<iframe width="{{.Width}}" height="{{.Height}}" style="border:{{.Border}}" loading="{{.Loading}}" allowfullscreen referrerpolicy="{{.ReferrerPolicy}}" src="{{$.View.URL}}"></iframe>
{{- else}}
<div class="map-placeholder" style="width:100%;height:100%;background:#e0e0e0"></div>
{{- end}}
</body>
</html>
`))

// Page is the data of the standalone map page.
type Page struct {
	Title string
	View  View
}

// WritePage renders the map page. Only the web surface produces an iframe;
// other strategies fall back to the placeholder block.
func WritePage(w io.Writer, p Page) error {
	if p.Title == "" {
		p.Title = "Route"
	}
	return pageTemplate.Execute(w, p)
}
