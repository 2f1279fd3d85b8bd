package site

import (
	"time"

	"github.com/iedon/talks-site-go/templatex"
	"github.com/iedon/talks-site-go/view"
)

// catalogueEntries lists every talk in code order, linking to the first
// non-print page that carries its code. Talks without a page have no URL.
func (r *pageRenderer) catalogueEntries(docs []page) []templatex.CatalogueEntry {
	routes := make(map[string]string, len(docs))
	for _, doc := range docs {
		if doc.Code == "" || view.IsPrintPage(r.viewContext(doc.viewPage())) {
			continue
		}
		if _, seen := routes[doc.Code]; !seen {
			routes[doc.Code] = doc.Route
		}
	}

	records := r.table.Records()
	entries := make([]templatex.CatalogueEntry, 0, len(records))
	for _, rec := range records {
		entry := templatex.CatalogueEntry{
			Code:     rec.Code,
			Title:    r.svc.cfg.Prefix() + rec.Title,
			Subtitle: rec.Subtitle,
			Summary:  rec.Summary,
		}
		if route, ok := routes[rec.Code]; ok {
			entry.URL = resolveURL(r.svc.cfg.BaseURL, route)
		}
		entries = append(entries, entry)
	}
	return entries
}

func (r *pageRenderer) catalogueData(docs []page) *templatex.PageData {
	vctx := r.viewContext(&view.Page{
		Route:   catalogueRoute,
		Title:   catalogueTitle,
		Classes: pageClasses(catalogueRoute, nil),
	})
	data := &templatex.PageData{
		Title:           catalogueTitle,
		PageTitle:       r.pageTitle(catalogueTitle),
		ContentTemplate: templatex.CatalogueContentTemplate,
		ActivePath:      catalogueRoute,
		RequestedPath:   catalogueRoute,
		BaseURL:         r.svc.cfg.BaseURL,
		BodyClass:       "catalogue",
		View:            vctx,
		Catalogue:       r.catalogueEntries(docs),
	}
	data.Meta = r.buildMeta("Browse every training session in the catalogue.", catalogueTitle, "website")
	return data
}

func (r *pageRenderer) writeCatalogue(baseDir string, docs []page) error {
	out, err := r.execute(r.catalogueData(docs))
	if err != nil {
		return err
	}
	return r.writeFile(baseDir, catalogueOutput, out, time.Time{})
}
