package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/iedon/talks-site-go/view"
)

// envPrefix namespaces environment overrides, e.g. TALKS_OUTPUT_DIR.
const envPrefix = "TALKS_"

// Config encapsulates build and live-server options.
type Config struct {
	Listen            string        `json:"listen"`
	ContentDir        string        `json:"contentDir"`
	DataFile          string        `json:"dataFile"`
	TemplateDir       string        `json:"templateDir"`
	OutputDir         string        `json:"outputDir"`
	HomeDoc           string        `json:"homeDoc"`
	BaseURL           string        `json:"baseUrl"`
	SiteName          string        `json:"siteName"`
	TitlePrefix       *string       `json:"titlePrefix"`
	PrintClass        string        `json:"printClass"`
	AllowMissingTalks bool          `json:"allowMissingTalks"`
	DisableMinify     bool          `json:"disableMinify"`
	LogLevel          string        `json:"logLevel"`
	WatchDebounceMs   int           `json:"watchDebounceMs"`
	WatchDebounce     time.Duration `json:"-"`
}

// Load reads configuration from disk, applies environment overrides and sane defaults.
// An empty path skips the file and relies on defaults and the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if strings.TrimSpace(path) != "" {
		file, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		bytes, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(bytes, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional; variables already present in the environment win.
	_ = godotenv.Load()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	integer := func(name string, dst *int) error {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("env %s%s: %w", envPrefix, name, err)
		}
		*dst = parsed
		return nil
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("env %s%s: %w", envPrefix, name, err)
		}
		*dst = parsed
		return nil
	}

	str("LISTEN", &c.Listen)
	str("CONTENT_DIR", &c.ContentDir)
	str("DATA_FILE", &c.DataFile)
	str("TEMPLATE_DIR", &c.TemplateDir)
	str("OUTPUT_DIR", &c.OutputDir)
	str("HOME_DOC", &c.HomeDoc)
	str("BASE_URL", &c.BaseURL)
	str("SITE_NAME", &c.SiteName)
	str("PRINT_CLASS", &c.PrintClass)
	str("LOG_LEVEL", &c.LogLevel)
	if v, ok := lookup(envPrefix + "TITLE_PREFIX"); ok {
		c.TitlePrefix = &v
	}
	if err := integer("WATCH_DEBOUNCE_MS", &c.WatchDebounceMs); err != nil {
		return err
	}
	if err := boolean("ALLOW_MISSING_TALKS", &c.AllowMissingTalks); err != nil {
		return err
	}
	return boolean("DISABLE_MINIFY", &c.DisableMinify)
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.ContentDir == "" {
		c.ContentDir = "./content"
	}
	if c.DataFile == "" {
		c.DataFile = "./data/talks.yml"
	}
	if c.TemplateDir == "" {
		c.TemplateDir = "./template"
	}
	if c.OutputDir == "" {
		c.OutputDir = "./dist"
	}
	c.HomeDoc = normalizeHomeDoc(c.HomeDoc)

	c.SiteName = strings.TrimSpace(c.SiteName)
	if c.SiteName == "" {
		c.SiteName = "Formations"
	}
	if c.TitlePrefix == nil {
		prefix := "Formation "
		c.TitlePrefix = &prefix
	}
	c.PrintClass = strings.TrimSpace(c.PrintClass)
	if c.PrintClass == "" {
		c.PrintClass = view.DefaultPrintClass
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.WatchDebounceMs <= 0 {
		c.WatchDebounceMs = 500
	}
	c.WatchDebounce = time.Duration(c.WatchDebounceMs) * time.Millisecond
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if strings.ContainsAny(c.PrintClass, " \t\n") {
		return fmt.Errorf("printClass must be a single class name")
	}
	// Page classes are folded before matching, so the configured name must be too.
	folded := view.FoldClass(c.PrintClass)
	if folded == "" {
		return fmt.Errorf("printClass %q is not a usable class name", c.PrintClass)
	}
	c.PrintClass = folded
	if filepath.Clean(c.OutputDir) == filepath.Clean(c.ContentDir) {
		return fmt.Errorf("outputDir must differ from contentDir")
	}
	return nil
}

// Prefix returns the talk title prefix.
func (c *Config) Prefix() string {
	if c.TitlePrefix == nil {
		return ""
	}
	return *c.TitlePrefix
}

func normalizeHomeDoc(input string) string {
	trimmed := strings.TrimSpace(input)
	trimmed = strings.ReplaceAll(trimmed, "\\", "/")
	if trimmed == "" {
		trimmed = "index.md"
	}
	if !strings.HasSuffix(strings.ToLower(trimmed), ".md") {
		trimmed += ".md"
	}
	cleaned := path.Clean(trimmed)
	for strings.HasPrefix(cleaned, "./") {
		cleaned = strings.TrimPrefix(cleaned, "./")
	}
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		cleaned = "index.md"
	}
	return filepath.ToSlash(cleaned)
}
