// Package views embeds the HTML templates. Every page is parsed together with
// layout.html and the shared partials and rendered through the "layout" template.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"

	"sakibee/app/models"
	"sakibee/app/sanitize"
)

//go:embed layout.html posts/*.html shared/*.html
var files embed.FS

// Funcs are the helpers available to every template.
var Funcs = template.FuncMap{
	"stripHTML": sanitize.Strip,
	"date": func(t time.Time) string {
		return t.Format(models.CommentDateLayout)
	},
	"inputDate": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format(models.DateLayout)
	},
	"selected": func(a, b uint) bool {
		return a == b
	},
	"selectedPtr": func(a *uint, b uint) bool {
		return a != nil && *a == b
	},
}

// Load parses every page under posts/ and returns them keyed by page name,
// e.g. "posts/index".
func Load() (map[string]*template.Template, error) {
	pages, err := fs.Glob(files, "posts/*.html")
	if err != nil {
		return nil, err
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New("layout.html").Funcs(Funcs).ParseFS(files, "layout.html", "shared/*.html", page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		templates[strings.TrimSuffix(page, path.Ext(page))] = t
	}
	return templates, nil
}

// MustLoad is like Load but panics on a template error.
func MustLoad() map[string]*template.Template {
	templates, err := Load()
	if err != nil {
		panic(err)
	}
	return templates
}
