package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/iedon/talks-site-go/config"
	"github.com/iedon/talks-site-go/fsutil"
	"github.com/iedon/talks-site-go/renderer"
	"github.com/iedon/talks-site-go/talks"
	"github.com/iedon/talks-site-go/templatex"
)

// Service orchestrates talk data, page rendering and static output.
type Service struct {
	cfg      *config.Config
	fs       afero.Fs
	logger   *slog.Logger
	renderer *renderer.Renderer

	documents *DocumentStore

	mu        sync.RWMutex
	talks     *talks.Table
	templates *templatex.Engine
}

// NewService constructs a Service instance. Call Reload before rendering.
func NewService(cfg *config.Config, fs afero.Fs, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	rend := renderer.New(!cfg.DisableMinify)
	return &Service{
		cfg:       cfg,
		fs:        fs,
		logger:    logger,
		renderer:  rend,
		documents: newDocumentStore(fs, cfg.ContentDir, rend, cfg.HomeDoc),
	}
}

// Reload (re)reads the talk table and the templates. On failure the
// previously loaded state stays active.
func (s *Service) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	table, err := talks.Load(s.fs, s.cfg.DataFile)
	if err != nil {
		return err
	}
	engine, err := templatex.Load(s.fs, s.cfg.TemplateDir)
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}

	s.mu.Lock()
	s.talks = table
	s.templates = engine
	s.mu.Unlock()

	s.logger.Debug("site loaded", "talks", table.Len(), "templates", s.cfg.TemplateDir)
	return nil
}

// Talks returns the active talk table.
func (s *Service) Talks() *talks.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.talks
}

func (s *Service) snapshot() (*talks.Table, *templatex.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.talks == nil || s.templates == nil {
		return nil, nil, ErrNotLoaded
	}
	return s.talks, s.templates, nil
}

// Check renders every page and verifies that each talk code resolves.
func (s *Service) Check(ctx context.Context) error {
	table, _, err := s.snapshot()
	if err != nil {
		return err
	}
	files, err := s.documents.List(ctx)
	if err != nil {
		return err
	}
	docs, err := s.renderDocuments(ctx, files)
	if err != nil {
		return err
	}
	return errors.Join(checkReservedOutputs(docs), checkTalkCodes(docs, table))
}

// checkReservedOutputs reports pages that would collide with the generated
// catalogue or 404 page.
func checkReservedOutputs(docs []page) error {
	var errs []error
	for _, doc := range docs {
		if isCatalogueRoute(doc.Source) || strings.EqualFold(doc.OutputPath, notFoundOutput) {
			errs = append(errs, fmt.Errorf("%w: %s would be replaced by a generated page", ErrReservedOutput, doc.Source))
		}
	}
	return errors.Join(errs...)
}

// checkTalkCodes reports every page whose code is missing from table.
func checkTalkCodes(docs []page, table *talks.Table) error {
	var errs []error
	for _, doc := range docs {
		if doc.Code == "" {
			continue
		}
		if _, ok := table.Lookup(doc.Code); !ok {
			errs = append(errs, fmt.Errorf("%w: %s uses code %q", ErrUnknownTalk, doc.Source, doc.Code))
		}
	}
	return errors.Join(errs...)
}

// BuildStatic renders the content directory into static HTML under OutputDir.
func (s *Service) BuildStatic(ctx context.Context) error {
	table, engine, err := s.snapshot()
	if err != nil {
		return err
	}

	files, err := s.documents.List(ctx)
	if err != nil {
		return err
	}
	docs, err := s.renderDocuments(ctx, files)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no markdown pages in %s", s.cfg.ContentDir)
	}
	if err := checkReservedOutputs(docs); err != nil {
		return err
	}
	if err := checkTalkCodes(docs, table); err != nil {
		if !s.cfg.AllowMissingTalks {
			return err
		}
		s.logger.Warn("talk check", "error", err)
	}

	finalDir := filepath.Clean(s.cfg.OutputDir)
	parent := filepath.Dir(finalDir)
	if err := s.fs.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("ensure output parent: %w", err)
	}

	tempDir, err := afero.TempDir(s.fs, parent, ".__build-")
	if err != nil {
		return fmt.Errorf("create temp output dir: %w", err)
	}
	cleanTemp := true
	defer func() {
		if cleanTemp {
			_ = s.fs.RemoveAll(tempDir)
		}
	}()

	for _, file := range files {
		if isMarkdown(file) {
			continue
		}
		dst := filepath.Join(tempDir, filepath.FromSlash(file))
		if err := fsutil.CopyFile(s.fs, s.documents.Path(file), dst); err != nil {
			return fmt.Errorf("copy asset %s: %w", file, err)
		}
	}

	r := &pageRenderer{svc: s, table: table, engine: engine}
	if err := r.writeDocuments(tempDir, docs); err != nil {
		return err
	}
	if err := r.writeCatalogue(tempDir, docs); err != nil {
		return err
	}
	if err := r.writeNotFound(tempDir); err != nil {
		return err
	}
	if err := s.writeHomeAlias(tempDir, docs); err != nil {
		return err
	}

	if engine.StaticDir != "" {
		if err := fsutil.CopyTree(s.fs, engine.StaticDir, filepath.Join(tempDir, "theme"), nil); err != nil {
			return fmt.Errorf("copy theme assets: %w", err)
		}
	}

	backupDir := finalDir + ".old"
	if err := s.fs.RemoveAll(backupDir); err != nil {
		return fmt.Errorf("clean backup dir: %w", err)
	}
	if err := s.fs.Rename(finalDir, backupDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rotate old output: %w", err)
	}
	if err := s.fs.Rename(tempDir, finalDir); err != nil {
		_ = s.fs.Rename(backupDir, finalDir)
		return fmt.Errorf("activate new output: %w", err)
	}
	_ = s.fs.RemoveAll(backupDir)
	cleanTemp = false

	s.logger.Info("static build", "pages", len(docs), "talks", table.Len(), "output", finalDir)
	return nil
}

func (s *Service) renderDocuments(ctx context.Context, files []string) ([]page, error) {
	docs := make([]page, 0, len(files))
	for _, file := range files {
		if !isMarkdown(file) {
			continue
		}
		doc, err := s.documents.RenderDocument(ctx, file)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Service) writeHomeAlias(baseDir string, docs []page) error {
	for _, doc := range docs {
		if doc.Route != "/" || strings.EqualFold(doc.OutputPath, "index.html") {
			continue
		}
		target := filepath.Join(baseDir, filepath.FromSlash(doc.OutputPath))
		alias := filepath.Join(baseDir, "index.html")
		if err := fsutil.CopyFile(s.fs, target, alias); err != nil {
			return fmt.Errorf("create home alias: %w", err)
		}
		return nil
	}
	return nil
}

// OutputDir returns the directory static builds are written to.
func (s *Service) OutputDir() string {
	return s.cfg.OutputDir
}

// FS returns the filesystem the service reads and writes.
func (s *Service) FS() afero.Fs {
	return s.fs
}
