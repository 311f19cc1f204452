package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"pricelens/internal/types"
)

// ResultsID is the id of the element holding the rendered cards.
const ResultsID = "results"

// HTMLOptions controls the captured page.
type HTMLOptions struct {
	Background string
	Width      int
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="de">
<head>
<meta charset="utf-8">
<title>Preisvergleich</title>
<style>
  body { margin: 0; background: {{.Background}}; font-family: -apple-system, "Segoe UI", Roboto, sans-serif; color: #1f2937; }
  #results { box-sizing: border-box; width: {{.Width}}px; padding: 16px; }
  h1 { font-size: 20px; margin: 0 0 16px; }
  h2 { font-size: 17px; margin: 24px 0 6px; padding-top: 12px; border-top: 1px solid #e5e7eb; }
  p { margin: 4px 0 8px; font-size: 14px; }
  strong { color: #15803d; }
  table { width: 100%; border-collapse: collapse; font-size: 13px; background: #fff; }
  th, td { padding: 6px 8px; border-bottom: 1px solid #e5e7eb; text-align: left; }
  td:nth-child(2), th:nth-child(2) { text-align: right; white-space: nowrap; }
  a { color: #2563eb; text-decoration: none; }
</style>
</head>
<body>
<div id="` + ResultsID + `">
{{.Body}}
</div>
</body>
</html>
`))

// HTML renders the product cards as a standalone page for capture.
func HTML(query string, products []types.Product, opts HTMLOptions) (string, error) {
	if opts.Background == "" {
		opts.Background = "#f9fafb"
	}
	if opts.Width <= 0 {
		opts.Width = 672
	}

	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(query, products)), &body); err != nil {
		return "", fmt.Errorf("markdown conversion failed: %w", err)
	}

	var out bytes.Buffer
	err := page.Execute(&out, struct {
		Background template.CSS
		Width      int
		Body       template.HTML
	}{
		Background: template.CSS(opts.Background),
		Width:      opts.Width,
		// goldmark omits raw HTML unless configured unsafe
		Body: template.HTML(body.String()),
	})
	if err != nil {
		return "", fmt.Errorf("page template failed: %w", err)
	}
	return out.String(), nil
}
