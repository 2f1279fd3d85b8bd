package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/iedon/talks-site-go/talks"
	"github.com/iedon/talks-site-go/templatex"
	"github.com/iedon/talks-site-go/view"
)

// pageRenderer binds one talk table and template set for the duration of a render.
type pageRenderer struct {
	svc    *Service
	table  *talks.Table
	engine *templatex.Engine
}

func (s *Service) newPageRenderer() (*pageRenderer, error) {
	table, engine, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return &pageRenderer{svc: s, table: table, engine: engine}, nil
}

// RenderPage builds the template data for a single page in live mode.
func (s *Service) RenderPage(ctx context.Context, relPath string) (*templatex.PageData, error) {
	r, err := s.newPageRenderer()
	if err != nil {
		return nil, err
	}
	return r.renderPage(ctx, relPath)
}

// RenderFullPage renders and minifies a page ready to be written to the response.
func (s *Service) RenderFullPage(ctx context.Context, relPath string) ([]byte, error) {
	r, err := s.newPageRenderer()
	if err != nil {
		return nil, err
	}
	data, err := r.renderPage(ctx, relPath)
	if err != nil {
		return nil, err
	}
	return r.execute(data)
}

// RenderNotFoundPage renders a themed 404 page.
func (s *Service) RenderNotFoundPage(ctx context.Context, requestedPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := s.newPageRenderer()
	if err != nil {
		return nil, err
	}
	return r.execute(r.notFoundData(requestedPath))
}

func (r *pageRenderer) renderPage(ctx context.Context, relPath string) (*templatex.PageData, error) {
	if isCatalogueRoute(relPath) {
		files, err := r.svc.documents.List(ctx)
		if err != nil {
			return nil, err
		}
		docs, err := r.svc.renderDocuments(ctx, files)
		if err != nil {
			return nil, err
		}
		return r.catalogueData(docs), nil
	}

	norm, err := normalizeRelPath(relPath, r.svc.cfg.HomeDoc)
	if err != nil {
		return nil, err
	}
	doc, err := r.svc.documents.RenderDocument(ctx, norm)
	if err != nil {
		return nil, err
	}
	return r.pageData(doc)
}

func (r *pageRenderer) viewContext(p *view.Page) *view.Context {
	ctx := view.NewContext(p, r.table)
	ctx.TitlePrefix = r.svc.cfg.Prefix()
	ctx.PrintClass = r.svc.cfg.PrintClass
	return ctx
}

// pageData resolves title and subtitle through the view helpers so a page
// with a talk code shows the talk's data instead of its own front matter.
func (r *pageRenderer) pageData(doc page) (*templatex.PageData, error) {
	vctx := r.viewContext(doc.viewPage())

	title, err := view.CurrentPageTitle(vctx)
	if err == nil {
		var subtitle string
		subtitle, err = view.CurrentPageSubtitle(vctx)
		if err == nil {
			return r.buildPageData(doc, vctx, title, subtitle), nil
		}
	}
	if !errors.Is(err, talks.ErrNotFound) {
		return nil, err
	}
	if !r.svc.cfg.AllowMissingTalks {
		return nil, fmt.Errorf("%w: %w", ErrUnknownTalk, err)
	}

	r.svc.logger.Warn("unknown talk, using page metadata", "page", doc.Source, "code", doc.Code)
	// Drop the code so templates calling the helpers see a plain page.
	fallback := doc.viewPage()
	fallback.Code = ""
	return r.buildPageData(doc, r.viewContext(fallback), doc.Title, doc.Subtitle), nil
}

func (r *pageRenderer) buildPageData(doc page, vctx *view.Context, title, subtitle string) *templatex.PageData {
	var lastUpdatedISO, lastUpdated string
	if !doc.LastMod.IsZero() {
		lastUpdatedISO = doc.LastMod.UTC().Format(time.RFC3339)
		lastUpdated = doc.LastMod.UTC().Format("2 Jan 2006")
	}

	description := doc.Description
	if rec, err := view.CurrentTalkData(vctx); err == nil && rec.Summary != "" {
		description = rec.Summary
	}
	if description == "" {
		description = doc.Summary
	}

	data := &templatex.PageData{
		Title:           title,
		Subtitle:        subtitle,
		PageTitle:       r.pageTitle(title),
		ContentHTML:     doc.HTML,
		ContentTemplate: templatex.DefaultContentTemplate,
		Sections:        doc.Sections,
		ActivePath:      doc.Route,
		RequestedPath:   doc.Route,
		BaseURL:         r.svc.cfg.BaseURL,
		BodyClass:       strings.Join(vctx.Page.Classes, " "),
		Print:           view.IsPrintPage(vctx),
		LastUpdatedISO:  lastUpdatedISO,
		LastUpdated:     lastUpdated,
		View:            vctx,
	}
	data.Meta = r.buildMeta(description, title, "article")
	return data
}

func (r *pageRenderer) notFoundData(requestedPath string) *templatex.PageData {
	const title = "404 - Not found"
	sanitized := strings.TrimSpace(requestedPath)
	if sanitized != "" {
		sanitized = path.Clean("/" + strings.TrimPrefix(sanitized, "/"))
	}
	description := "The page you are looking for could not be found."
	if sanitized != "" && sanitized != "/" {
		description = fmt.Sprintf("The requested path %s could not be found.", sanitized)
	}

	vctx := r.viewContext(&view.Page{Title: title, Classes: []string{"not-found"}})
	data := &templatex.PageData{
		Title:           title,
		PageTitle:       r.pageTitle(title),
		ContentHTML:     template.HTML(""),
		ContentTemplate: templatex.NotFoundContentTemplate,
		RequestedPath:   sanitized,
		BaseURL:         r.svc.cfg.BaseURL,
		BodyClass:       "not-found",
		View:            vctx,
	}
	data.Meta = r.buildMeta(description, title, "website")
	return data
}

func (r *pageRenderer) execute(data *templatex.PageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.engine.Render(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", data.ActivePath, err)
	}
	out, err := r.svc.renderer.MinifyHTML(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minify %s: %w", data.ActivePath, err)
	}
	return out, nil
}

func (r *pageRenderer) writeFile(baseDir, rel string, content []byte, modTime time.Time) error {
	target := filepath.Join(baseDir, filepath.FromSlash(rel))
	fs := r.svc.fs
	if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := afero.WriteFile(fs, target, content, 0o644); err != nil {
		return err
	}
	if !modTime.IsZero() {
		stamp := modTime.UTC()
		if err := fs.Chtimes(target, stamp, stamp); err != nil {
			return fmt.Errorf("set mod time %s: %w", rel, err)
		}
	}
	return nil
}

func (r *pageRenderer) writeDocuments(baseDir string, docs []page) error {
	for _, doc := range docs {
		data, err := r.pageData(doc)
		if err != nil {
			return err
		}
		out, err := r.execute(data)
		if err != nil {
			return err
		}
		if err := r.writeFile(baseDir, doc.OutputPath, out, doc.LastMod); err != nil {
			return err
		}
	}
	return nil
}

func (r *pageRenderer) writeNotFound(baseDir string) error {
	out, err := r.execute(r.notFoundData(""))
	if err != nil {
		return err
	}
	return r.writeFile(baseDir, notFoundOutput, out, time.Time{})
}

func (r *pageRenderer) buildMeta(summary, fallback, ogType string) templatex.Meta {
	if ogType == "" {
		ogType = "website"
	}
	description := metaDescription(summary, fallback)
	if description == "" {
		description = r.siteName()
	}
	return templatex.Meta{
		Description:   description,
		OpenGraphType: ogType,
		OpenGraphSite: r.siteName(),
	}
}

func (r *pageRenderer) siteName() string {
	name := strings.TrimSpace(r.svc.cfg.SiteName)
	if name == "" {
		return "Untitled"
	}
	return name
}

func (r *pageRenderer) pageTitle(raw string) string {
	title := strings.TrimSpace(raw)
	site := r.siteName()
	if title == "" {
		return site
	}
	return fmt.Sprintf("%s - %s", title, site)
}
