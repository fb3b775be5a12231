// Package pages renders the blog's HTML pages and feed.
package pages

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

const (
	ListingTemplate  = "listing.html"
	PostTemplate     = "post.html"
	NotFoundTemplate = "notfound.html"
	ErrorTemplate    = "error.html"

	// LogoPath is where the header logo is served from.
	LogoPath = "/images/logo.svg"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

type Pages struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Pages, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Pages{tmpl: tmpl}, nil
}

// Template returns the parsed template set, for gin's HTML renderer.
func (p *Pages) Template() *template.Template {
	return p.tmpl
}

func (p *Pages) Render(w io.Writer, name string, data any) error {
	if err := p.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

// Logo returns the header logo.
func Logo() ([]byte, error) {
	return fs.ReadFile(staticFS, "static/logo.svg")
}
