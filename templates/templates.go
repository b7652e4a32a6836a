// Package templates embeds the server-rendered HTML pages.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed *.html
var files embed.FS

// Funcs are the helpers available to every page.
var Funcs = template.FuncMap{
	"percent": func(p *float64) string {
		if p == nil {
			return ""
		}
		return fmt.Sprintf("%.2f%%", *p)
	},
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

// Parse loads every page and the shared header and footer partials. Pages are
// addressed by file name, e.g. "index.html".
func Parse() (*template.Template, error) {
	t, err := template.New("").Funcs(Funcs).ParseFS(files, "*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}
