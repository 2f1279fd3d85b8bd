package templatex

import (
	"fmt"
	"html/template"
	"io"
	"maps"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/iedon/talks-site-go/view"
)

const (
	DefaultContentTemplate   = "content-default"
	NotFoundContentTemplate  = "content-404"
	CatalogueContentTemplate = "content-catalogue"
	LayoutTemplate           = "layout"
)

// Engine is a thin wrapper around Go templates with the page helpers registered.
type Engine struct {
	templates *template.Template
	StaticDir string
}

// PageData represents the data model expected by the layout.
type PageData struct {
	Title           string
	Subtitle        string
	PageTitle       string
	ContentHTML     template.HTML
	ContentTemplate string
	Sections        []TOCEntry
	ActivePath      string
	RequestedPath   string
	BaseURL         string
	BodyClass       string
	Print           bool
	LastUpdatedISO  string
	LastUpdated     string
	Meta            Meta
	View            *view.Context
	Catalogue       []CatalogueEntry
}

// Meta holds SEO-oriented metadata for the rendered page.
type Meta struct {
	Description   string
	OpenGraphType string
	OpenGraphSite string
}

// CatalogueEntry is one talk in the catalogue listing. URL is empty when no page carries the code.
type CatalogueEntry struct {
	Code     string
	Title    string
	Subtitle string
	Summary  string
	URL      string
}

// TOCEntry models a single heading for sidebar navigation.
type TOCEntry struct {
	ID    string
	Text  string
	Level int
}

// Load instantiates an engine using files from templateDir on fs.
func Load(fs afero.Fs, templateDir string) (*Engine, error) {
	if templateDir == "" {
		return nil, fmt.Errorf("template directory not configured")
	}

	funcs := template.FuncMap{
		"baseHref": func(base string) string {
			base = strings.TrimSpace(base)
			if base == "" || base == "/" {
				return "/"
			}
			trimmed := strings.Trim(base, "/")
			return "/" + trimmed + "/"
		},
		"classList": func(classes []string) string {
			return strings.Join(classes, " ")
		},
	}
	maps.Copy(funcs, view.FuncMap())

	files, err := afero.Glob(fs, filepath.Join(templateDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("glob main templates: %w", err)
	}

	partialsDir := filepath.Join(templateDir, "partials")
	if ok, _ := afero.DirExists(fs, partialsDir); ok {
		partialFiles, err := afero.Glob(fs, filepath.Join(partialsDir, "*.html"))
		if err != nil {
			return nil, fmt.Errorf("glob partial templates: %w", err)
		}
		files = append(files, partialFiles...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found in %s", templateDir)
	}

	sort.Strings(files)

	tpl := template.New("root").Funcs(funcs)
	for _, file := range files {
		src, err := afero.ReadFile(fs, file)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", file, err)
		}
		if _, err := tpl.New(filepath.Base(file)).Parse(string(src)); err != nil {
			return nil, fmt.Errorf("parse templates: %w", err)
		}
	}

	if tpl.Lookup(LayoutTemplate) == nil {
		return nil, fmt.Errorf("template %q is not defined", LayoutTemplate)
	}

	engine := &Engine{templates: tpl}

	assetsPath := filepath.Join(templateDir, "assets")
	if ok, _ := afero.DirExists(fs, assetsPath); ok {
		engine.StaticDir = assetsPath
	}

	return engine, nil
}

// Render writes the rendered layout into the provided writer.
func (e *Engine) Render(w io.Writer, data *PageData) error {
	if e == nil || e.templates == nil {
		return fmt.Errorf("template engine not initialized")
	}
	if data != nil {
		if strings.TrimSpace(data.ContentTemplate) == "" {
			data.ContentTemplate = DefaultContentTemplate
		}
		if strings.TrimSpace(data.RequestedPath) == "" {
			data.RequestedPath = data.ActivePath
		}
	}
	return e.templates.ExecuteTemplate(w, LayoutTemplate, data)
}
