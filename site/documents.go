package site

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/iedon/talks-site-go/renderer"
	"github.com/iedon/talks-site-go/templatex"
)

// DocumentStore reads markdown sources from the content directory and renders them.
type DocumentStore struct {
	fs       afero.Fs
	root     string
	renderer *renderer.Renderer
	homeDoc  string
}

func newDocumentStore(fs afero.Fs, root string, renderer *renderer.Renderer, homeDoc string) *DocumentStore {
	return &DocumentStore{fs: fs, root: root, renderer: renderer, homeDoc: homeDoc}
}

// List returns every visible file below the content root as slash-separated relative paths.
func (d *DocumentStore) List(ctx context.Context) ([]string, error) {
	files := make([]string, 0, 32)
	err := afero.Walk(d.fs, d.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if isHidden(rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// Path returns the filesystem path of a content-relative file.
func (d *DocumentStore) Path(relPath string) string {
	return filepath.Join(d.root, filepath.FromSlash(relPath))
}

// RenderDocument renders one markdown file and reads its front matter.
func (d *DocumentStore) RenderDocument(ctx context.Context, relPath string) (page, error) {
	if err := ctx.Err(); err != nil {
		return page{}, err
	}
	full := d.Path(relPath)
	data, err := afero.ReadFile(d.fs, full)
	if err != nil {
		return page{}, fmt.Errorf("read %s: %w", relPath, err)
	}

	rendered, err := d.renderer.Render(data)
	if err != nil {
		return page{}, fmt.Errorf("render %s: %w", relPath, err)
	}

	sections := make([]templatex.TOCEntry, 0, len(rendered.Headings))
	for _, heading := range rendered.Headings {
		sections = append(sections, templatex.TOCEntry{ID: heading.ID, Text: heading.Text, Level: heading.Level})
	}

	title := renderer.MetaString(rendered.Meta, "title")
	if title == "" {
		title = deriveTitle(relPath)
	}
	route := routeFromPath(relPath, d.homeDoc)

	doc := page{
		Source:      relPath,
		Route:       route,
		OutputPath:  htmlPathFrom(relPath),
		Code:        renderer.MetaString(rendered.Meta, "code"),
		Title:       title,
		Subtitle:    renderer.MetaString(rendered.Meta, "subtitle"),
		Description: renderer.MetaString(rendered.Meta, "description"),
		Classes:     pageClasses(route, renderer.MetaStrings(rendered.Meta, "classes")),
		HTML:        template.HTML(rendered.HTML),
		Sections:    sections,
		Summary:     summarize(rendered.PlainText),
	}
	if info, err := d.fs.Stat(full); err == nil {
		doc.LastMod = info.ModTime()
	}
	return doc, nil
}
