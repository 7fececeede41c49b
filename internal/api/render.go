package api

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
)

var focusPage = template.Must(template.New("focus").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Recent Focus</title></head>
<body><article>{{.}}</article></body></html>
`))

// renderMarkdown converts markdown text to HTML using goldmark.
// goldmark's default renderer omits raw HTML from the input.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
