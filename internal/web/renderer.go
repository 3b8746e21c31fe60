// Package web serves the HTML pages of the shop.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Page names.
const (
	PageHome    = "home"
	PageProfile = "profile"
	PageAdmin   = "admin"
)

// Renderer renders pages from embedded templates.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the layout together with every page template.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"title": titleCase,
		"lower": strings.ToLower,
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, page := range []string{PageHome, PageProfile, PageAdmin} {
		tmpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templatesFS,
			"templates/layout.html",
			fmt.Sprintf("templates/%s.html", page),
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		r.templates[page] = tmpl
	}

	return r, nil
}

// Render writes the page to w. Rendering is buffered so a template error
// never produces a half written page.
func (r *Renderer) Render(w io.Writer, page string, data PageData) error {
	tmpl, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("template not found: %s", page)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute template %s: %w", page, err)
	}

	_, err := buf.WriteTo(w)
	return err
}

var titleCaser = cases.Title(language.Spanish)

func titleCase(s string) string {
	return titleCaser.String(s)
}
