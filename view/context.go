// Package view exposes the page helpers templates use to resolve the current
// talk and derive titles. Every helper takes the render Context explicitly.
package view

import (
	"errors"
	"fmt"
	"slices"

	"github.com/iedon/talks-site-go/talks"
)

const (
	DefaultTitlePrefix = "Formation "
	DefaultPrintClass  = "print"
)

// ErrNoCurrentTalk is returned when talk data is requested for a page without a code.
var ErrNoCurrentTalk = errors.New("page has no talk code")

// Page is the metadata of the page being rendered.
type Page struct {
	Route    string
	Code     string
	Title    string
	Subtitle string
	Classes  []string
}

// Context is the per-render state handed to every helper.
type Context struct {
	Page        *Page
	Talks       *talks.Table
	TitlePrefix string
	PrintClass  string
}

// NewContext builds a context with the default title prefix and print class.
func NewContext(page *Page, table *talks.Table) *Context {
	return &Context{
		Page:        page,
		Talks:       table,
		TitlePrefix: DefaultTitlePrefix,
		PrintClass:  DefaultPrintClass,
	}
}

// CurrentPageCode returns the code of the current page, or "" when unset.
func CurrentPageCode(c *Context) string {
	if c == nil || c.Page == nil {
		return ""
	}
	return c.Page.Code
}

// HasCurrentTalk reports whether the current page carries a talk code.
func HasCurrentTalk(c *Context) bool {
	return CurrentPageCode(c) != ""
}

// CurrentTalkData resolves the talk record for the current page.
func CurrentTalkData(c *Context) (talks.Record, error) {
	code := CurrentPageCode(c)
	if code == "" {
		return talks.Record{}, ErrNoCurrentTalk
	}
	return c.Talks.Get(code)
}

// CurrentPageSubtitle prefers the talk subtitle over the page's own.
func CurrentPageSubtitle(c *Context) (string, error) {
	if !HasCurrentTalk(c) {
		if c == nil || c.Page == nil {
			return "", nil
		}
		return c.Page.Subtitle, nil
	}
	rec, err := CurrentTalkData(c)
	if err != nil {
		return "", fmt.Errorf("subtitle for %s: %w", c.Page.Route, err)
	}
	return rec.Subtitle, nil
}

// CurrentPageTitle returns the prefixed talk title, or the page title verbatim.
func CurrentPageTitle(c *Context) (string, error) {
	if !HasCurrentTalk(c) {
		if c == nil || c.Page == nil {
			return "", nil
		}
		return c.Page.Title, nil
	}
	rec, err := CurrentTalkData(c)
	if err != nil {
		return "", fmt.Errorf("title for %s: %w", c.Page.Route, err)
	}
	return c.TitlePrefix + rec.Title, nil
}

// IsPrintPage reports whether the page's class set contains the print class.
// Page classes are folded, so the print class is compared folded as well.
func IsPrintPage(c *Context) bool {
	if c == nil || c.Page == nil {
		return false
	}
	class := FoldClass(c.PrintClass)
	if class == "" {
		class = DefaultPrintClass
	}
	return slices.Contains(c.Page.Classes, class)
}
