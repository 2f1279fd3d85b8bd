package site

import (
	"html/template"
	"time"

	"github.com/iedon/talks-site-go/templatex"
	"github.com/iedon/talks-site-go/view"
)

type page struct {
	Source      string
	Route       string
	OutputPath  string
	Code        string
	Title       string
	Subtitle    string
	Description string
	Classes     []string
	HTML        template.HTML
	Sections    []templatex.TOCEntry
	Summary     string
	LastMod     time.Time
}

func (p page) viewPage() *view.Page {
	return &view.Page{
		Route:    p.Route,
		Code:     p.Code,
		Title:    p.Title,
		Subtitle: p.Subtitle,
		Classes:  append([]string(nil), p.Classes...),
	}
}
