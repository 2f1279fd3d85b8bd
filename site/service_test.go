package site

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/iedon/talks-site-go/config"
)

const talksYAML = `ruby101:
  title: Ruby Basics
  subtitle: Intro
  summary: Three days to learn Ruby from scratch.
go201:
  title: Go Concurrency
  subtitle: Goroutines
`

type fixture struct {
	root string
	cfg  *config.Config
	fs   afero.Fs
	svc  *Service
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()
	fs := afero.NewOsFs()

	for rel, body := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, fs.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, afero.WriteFile(fs, full, []byte(body), 0o644))
	}

	templateDir, err := filepath.Abs(filepath.Join("..", "template"))
	require.NoError(t, err)

	prefix := "Formation "
	cfg := &config.Config{
		ContentDir:    filepath.Join(root, "content"),
		DataFile:      filepath.Join(root, "data", "talks.yml"),
		TemplateDir:   templateDir,
		OutputDir:     filepath.Join(root, "dist"),
		HomeDoc:       "index.md",
		SiteName:      "Formations",
		TitlePrefix:   &prefix,
		PrintClass:    "print",
		DisableMinify: true,
		LogLevel:      "info",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{root: root, cfg: cfg, fs: fs, svc: NewService(cfg, fs, logger)}
}

func defaultFiles() map[string]string {
	return map[string]string{
		"data/talks.yml":           talksYAML,
		"content/index.md":         "---\ntitle: Welcome\nsubtitle: Our catalogue\n---\n# Hello\n",
		"content/talks/ruby101.md": "---\ncode: ruby101\ntitle: ignored\nsubtitle: ignored too\n---\n# Programme\n\nDay one.\n",
		"content/print/ruby101.md": "---\ncode: ruby101\n---\n# Programme\n",
		"content/about.md":         "# About\n",
		"content/img/logo.png":     "png",
		"content/_draft.md":        "---\ncode: nope\n---\n",
	}
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := afero.ReadFile(f.fs, filepath.Join(f.cfg.OutputDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) exists(t *testing.T, rel string) bool {
	t.Helper()
	ok, err := afero.Exists(f.fs, filepath.Join(f.cfg.OutputDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return ok
}

func TestBuildStatic_RendersTalkPages(t *testing.T) {
	f := newFixture(t, defaultFiles())
	ctx := context.Background()
	require.NoError(t, f.svc.Reload(ctx))
	require.NoError(t, f.svc.BuildStatic(ctx))

	talk := f.read(t, "talks/ruby101.html")
	require.Contains(t, talk, "<title>Formation Ruby Basics - Formations</title>")
	require.Contains(t, talk, "<h1>Formation Ruby Basics</h1>")
	require.Contains(t, talk, `<p class="subtitle">Intro</p>`)
	require.Contains(t, talk, `<body class="talks talks_ruby101">`)
	require.Contains(t, talk, `content="Three days to learn Ruby from scratch."`)
	require.NotContains(t, talk, "print.css")
	require.NotContains(t, talk, "ignored")

	home := f.read(t, "index.html")
	require.Contains(t, home, "<h1>Welcome</h1>")
	require.Contains(t, home, `<p class="subtitle">Our catalogue</p>`)
	require.NotContains(t, home, "talk-code")

	about := f.read(t, "about.html")
	require.Contains(t, about, "<h1>about</h1>")
}

func TestBuildStatic_PrintPage(t *testing.T) {
	f := newFixture(t, defaultFiles())
	ctx := context.Background()
	require.NoError(t, f.svc.Reload(ctx))
	require.NoError(t, f.svc.BuildStatic(ctx))

	printed := f.read(t, "print/ruby101.html")
	require.Contains(t, printed, "theme/print.css")
	require.Contains(t, printed, `<body class="print print_ruby101">`)
	require.NotContains(t, printed, "<footer>")
}

func TestBuildStatic_AssetsCatalogueAndNotFound(t *testing.T) {
	f := newFixture(t, defaultFiles())
	ctx := context.Background()
	require.NoError(t, f.svc.Reload(ctx))
	require.NoError(t, f.svc.BuildStatic(ctx))

	require.True(t, f.exists(t, "img/logo.png"))
	require.True(t, f.exists(t, "theme/site.css"))
	require.True(t, f.exists(t, "404.html"))
	require.False(t, f.exists(t, "_draft.html"))

	catalogue := f.read(t, "catalogue.html")
	require.Contains(t, catalogue, `<a href="/talks/ruby101">Formation Ruby Basics</a>`)
	require.Contains(t, catalogue, "Formation Go Concurrency")
	require.NotContains(t, catalogue, `href="/print/ruby101"`)
}

func TestBuildStatic_ReplacesPreviousOutput(t *testing.T) {
	f := newFixture(t, defaultFiles())
	ctx := context.Background()
	require.NoError(t, f.fs.MkdirAll(f.cfg.OutputDir, 0o755))
	require.NoError(t, afero.WriteFile(f.fs, filepath.Join(f.cfg.OutputDir, "stale.html"), []byte("old"), 0o644))

	require.NoError(t, f.svc.Reload(ctx))
	require.NoError(t, f.svc.BuildStatic(ctx))

	require.False(t, f.exists(t, "stale.html"))
	require.True(t, f.exists(t, "index.html"))

	ok, err := afero.Exists(f.fs, f.cfg.OutputDir+".old")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBuildStatic_UnknownTalkIsFatalByDefault(t *testing.T) {
	files := defaultFiles()
	files["content/talks/missing.md"] = "---\ncode: missing\ntitle: Lost\n---\n"
	f := newFixture(t, files)
	ctx := context.Background()
	require.NoError(t, f.svc.Reload(ctx))

	err := f.svc.BuildStatic(ctx)
	require.ErrorIs(t, err, ErrUnknownTalk)
	require.ErrorContains(t, err, `talks/missing.md uses code "missing"`)

	ok, existsErr := afero.Exists(f.fs, f.cfg.OutputDir)
	require.NoError(t, existsErr)
	require.False(t, ok)
}

func TestBuildStatic_AllowMissingTalksFallsBack(t *testing.T) {
	files := defaultFiles()
	files["content/talks/missing.md"] = "---\ncode: missing\ntitle: Lost\nsubtitle: Found\n---\n"
	f := newFixture(t, files)
	f.cfg.AllowMissingTalks = true
	ctx := context.Background()
	require.NoError(t, f.svc.Reload(ctx))
	require.NoError(t, f.svc.BuildStatic(ctx))

	page := f.read(t, "talks/missing.html")
	require.Contains(t, page, "<h1>Lost</h1>")
	require.Contains(t, page, `<p class="subtitle">Found</p>`)
}

func TestBuildStatic_RejectsReservedOutputs(t *testing.T) {
	for _, name := range []string{"catalogue.md", "Catalogue.md", "404.md"} {
		files := defaultFiles()
		files["content/"+name] = "# Mine\n"
		f := newFixture(t, files)
		ctx := context.Background()
		require.NoError(t, f.svc.Reload(ctx))

		err := f.svc.BuildStatic(ctx)
		require.ErrorIs(t, err, ErrReservedOutput, name)
		require.ErrorContains(t, err, name)
		require.ErrorIs(t, f.svc.Check(ctx), ErrReservedOutput, name)

		ok, existsErr := afero.Exists(f.fs, f.cfg.OutputDir)
		require.NoError(t, existsErr)
		require.False(t, ok, name)
	}
}

func TestRenderPage_ConfiguredPrintClassIsFolded(t *testing.T) {
	f := newFixture(t, defaultFiles())
	f.cfg.PrintClass = "Print"
	ctx := context.Background()
	require.NoError(t, f.svc.Reload(ctx))

	data, err := f.svc.RenderPage(ctx, "print/ruby101")
	require.NoError(t, err)
	require.True(t, data.Print)

	data, err = f.svc.RenderPage(ctx, "talks/ruby101")
	require.NoError(t, err)
	require.False(t, data.Print)
}

func TestRenderPage_DraftsAreInvalid(t *testing.T) {
	f := newFixture(t, defaultFiles())
	ctx := context.Background()
	require.NoError(t, f.svc.Reload(ctx))

	_, err := f.svc.RenderFullPage(ctx, "_draft")
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestCheck(t *testing.T) {
	f := newFixture(t, defaultFiles())
	ctx := context.Background()
	require.NoError(t, f.svc.Reload(ctx))
	require.NoError(t, f.svc.Check(ctx))

	require.NoError(t, afero.WriteFile(f.fs, filepath.Join(f.cfg.ContentDir, "bad.md"), []byte("---\ncode: nope\n---\n"), 0o644))
	err := f.svc.Check(ctx)
	require.ErrorIs(t, err, ErrUnknownTalk)
}

func TestRenderFullPage_Live(t *testing.T) {
	f := newFixture(t, defaultFiles())
	ctx := context.Background()
	require.NoError(t, f.svc.Reload(ctx))

	out, err := f.svc.RenderFullPage(ctx, "talks/ruby101.html")
	require.NoError(t, err)
	require.Contains(t, string(out), "<h1>Formation Ruby Basics</h1>")

	out, err = f.svc.RenderFullPage(ctx, "")
	require.NoError(t, err)
	require.Contains(t, string(out), "<h1>Welcome</h1>")

	out, err = f.svc.RenderFullPage(ctx, "catalogue")
	require.NoError(t, err)
	require.Contains(t, string(out), "Formation Go Concurrency")

	_, err = f.svc.RenderFullPage(ctx, "talks/unknown")
	require.True(t, errors.Is(err, os.ErrNotExist))

	_, err = f.svc.RenderFullPage(ctx, "../secret")
	require.ErrorIs(t, err, ErrInvalidPath)

	notFound, err := f.svc.RenderNotFoundPage(ctx, "/talks/unknown")
	require.NoError(t, err)
	require.Contains(t, string(notFound), "The requested path /talks/unknown could not be found.")
	require.Contains(t, string(notFound), `<code>/talks/unknown</code>`)
}

func TestRenderPage_Data(t *testing.T) {
	f := newFixture(t, defaultFiles())
	ctx := context.Background()
	require.NoError(t, f.svc.Reload(ctx))

	data, err := f.svc.RenderPage(ctx, "print/ruby101")
	require.NoError(t, err)
	require.True(t, data.Print)
	require.Equal(t, "Formation Ruby Basics", data.Title)
	require.Equal(t, "Intro", data.Subtitle)
	require.Equal(t, "/print/ruby101", data.ActivePath)
	require.Equal(t, "ruby101", data.View.Page.Code)
}

func TestRenderFullPage_Minified(t *testing.T) {
	f := newFixture(t, defaultFiles())
	f.cfg.DisableMinify = false
	f.svc = NewService(f.cfg, f.fs, nil)
	ctx := context.Background()
	require.NoError(t, f.svc.Reload(ctx))

	out, err := f.svc.RenderFullPage(ctx, "talks/ruby101")
	require.NoError(t, err)
	require.Contains(t, string(out), "Formation Ruby Basics")
	require.NotContains(t, string(out), "\n  <main>")
}

func TestRender_BeforeReload(t *testing.T) {
	f := newFixture(t, defaultFiles())
	_, err := f.svc.RenderFullPage(context.Background(), "")
	require.ErrorIs(t, err, ErrNotLoaded)
	require.ErrorIs(t, f.svc.BuildStatic(context.Background()), ErrNotLoaded)
}

func TestReload_KeepsPreviousStateOnError(t *testing.T) {
	f := newFixture(t, defaultFiles())
	ctx := context.Background()
	require.NoError(t, f.svc.Reload(ctx))
	require.Equal(t, 2, f.svc.Talks().Len())

	require.NoError(t, afero.WriteFile(f.fs, f.cfg.DataFile, []byte("broken: [yaml"), 0o644))
	require.Error(t, f.svc.Reload(ctx))
	require.Equal(t, 2, f.svc.Talks().Len())
}
