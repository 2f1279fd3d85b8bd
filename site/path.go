package site

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidPath is returned when user-provided routes fail validation.
	ErrInvalidPath = errors.New("invalid path")
)

const (
	catalogueRoute  = "/catalogue"
	catalogueOutput = "catalogue.html"
	catalogueTitle  = "Catalogue"
	notFoundOutput  = "404.html"
)

// normalizeRelPath maps a request path ("talks/ruby101", "/talks/ruby101.html")
// to the markdown source it is rendered from, relative to the content dir.
func normalizeRelPath(input, homeDoc string) (string, error) {
	candidate := strings.TrimSpace(input)
	candidate = strings.ReplaceAll(candidate, "\\", "/")
	candidate = strings.Trim(candidate, "/")
	if strings.Contains(candidate, "\x00") {
		return "", errors.Join(ErrInvalidPath, errors.New("contains null byte"))
	}
	if candidate == "" || strings.EqualFold(candidate, "index.html") || strings.EqualFold(candidate, "index") {
		return homeDoc, nil
	}
	if lower := strings.ToLower(candidate); strings.HasSuffix(lower, ".html") {
		candidate = candidate[:len(candidate)-len(".html")]
	}
	if !strings.HasSuffix(strings.ToLower(candidate), ".md") {
		candidate += ".md"
	}

	cleaned := path.Clean(candidate)
	if strings.HasPrefix(cleaned, "..") || strings.Contains(cleaned, "/../") {
		return "", errors.Join(ErrInvalidPath, errors.New("path escapes content root"))
	}
	for segment := range strings.SplitSeq(cleaned, "/") {
		if segment == "" || segment == "." || segment == ".." || strings.HasPrefix(segment, ".") {
			return "", errors.Join(ErrInvalidPath, errors.New("invalid path segment"))
		}
		// drafts and partials are never built, so they are never served either
		if strings.HasPrefix(segment, "_") {
			return "", errors.Join(ErrInvalidPath, errors.New("hidden path segment"))
		}
	}
	return cleaned, nil
}

func isCatalogueRoute(rel string) bool {
	lowered := strings.ToLower(strings.Trim(filepath.ToSlash(strings.TrimSpace(rel)), "/"))
	lowered = strings.TrimSuffix(lowered, ".md")
	lowered = strings.TrimSuffix(lowered, ".html")
	return lowered == strings.TrimPrefix(catalogueRoute, "/")
}

func isMarkdown(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".md")
}

func isHidden(rel string) bool {
	for segment := range strings.SplitSeq(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(segment, ".") || strings.HasPrefix(segment, "_") {
			return true
		}
	}
	return false
}

// routeFromPath returns the public route of a source file; the home doc maps to "/".
func routeFromPath(relPath, homeDoc string) string {
	slash := filepath.ToSlash(relPath)
	if strings.EqualFold(slash, homeDoc) {
		return "/"
	}
	slash = strings.TrimSuffix(slash, filepath.Ext(slash))
	return "/" + strings.TrimPrefix(slash, "/")
}

func htmlPathFrom(relPath string) string {
	rel := filepath.ToSlash(relPath)
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + ".html"
}

// resolveURL joins the site base URL and a route into an absolute href.
func resolveURL(base, route string) string {
	trimmedBase := strings.Trim(strings.TrimSpace(base), "/")
	if route == "/" {
		if trimmedBase == "" {
			return "/"
		}
		return "/" + trimmedBase + "/"
	}
	return path.Join("/", trimmedBase, route)
}
