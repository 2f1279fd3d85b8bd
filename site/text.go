package site

import (
	"path/filepath"
	"strings"

	"github.com/iedon/talks-site-go/view"
)

// deriveTitle turns a file name such as "ruby-101_intro.md" into "ruby 101 intro".
func deriveTitle(relPath string) string {
	name := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	name = strings.TrimSpace(name)
	if name == "" {
		return "Untitled"
	}
	return name
}

func summarize(plain string) string {
	return truncateRunes(strings.TrimSpace(plain), 200)
}

func metaDescription(summary, fallback string) string {
	text := strings.TrimSpace(summary)
	if text == "" {
		text = strings.TrimSpace(fallback)
	}
	text = strings.Join(strings.Fields(text), " ")
	return truncateRunes(text, 160)
}

func truncateRunes(text string, limit int) string {
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return string(r[:limit-1]) + "..."
}

// pageClasses derives body classes from a route: every path prefix joined
// with "_", so "/print/ruby101" yields ["print", "print_ruby101"].
// The home route yields ["index"]. Extra classes are appended once each.
func pageClasses(route string, extra []string) []string {
	trimmed := strings.Trim(route, "/")
	if trimmed == "" {
		trimmed = "index"
	}

	segments := strings.Split(trimmed, "/")
	classes := make([]string, 0, len(segments)+len(extra))
	seen := make(map[string]struct{}, cap(classes))
	add := func(class string) {
		if class == "" {
			return
		}
		if _, dup := seen[class]; dup {
			return
		}
		seen[class] = struct{}{}
		classes = append(classes, class)
	}

	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		folded := view.FoldClass(segment)
		if folded == "" {
			continue
		}
		parts = append(parts, folded)
		add(strings.Join(parts, "_"))
	}
	for _, class := range extra {
		add(view.FoldClass(class))
	}
	return classes
}
