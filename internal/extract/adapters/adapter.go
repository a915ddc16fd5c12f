package adapters

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Content is the scorable text of a page plus any citation sources the page
// declares, keyed by citation index
type Content struct {
	Adapter string
	Text    string
	Sources map[int]string
}

// Adapter turns one family of pages into scorable text with bracketed
// citation markers
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// Match reports whether the adapter understands this page. u may be nil
	// for local files.
	Match(u *url.URL, doc *html.Node) bool

	// Extract pulls the scorable text out of the parsed page. It may modify doc.
	Extract(doc *html.Node, u *url.URL) (*Content, error)
}

// Registry picks the first matching adapter, falling back to the generic one
type Registry struct {
	adapters []Adapter
	fallback Adapter
}

// NewRegistry returns a registry with the built-in adapters: Wikipedia,
// then footnote-style pages, then generic
func NewRegistry() *Registry {
	return &Registry{
		adapters: []Adapter{NewWikipediaAdapter(), NewFootnotesAdapter()},
		fallback: NewGenericAdapter(),
	}
}

// Register adds an adapter ahead of the built-in ones
func (r *Registry) Register(a Adapter) {
	r.adapters = append([]Adapter{a}, r.adapters...)
}

// Select returns the adapter that will handle the page
func (r *Registry) Select(u *url.URL, doc *html.Node) Adapter {
	for _, a := range r.adapters {
		if a.Match(u, doc) {
			return a
		}
	}
	return r.fallback
}

// Extract parses htmlContent and runs the selected adapter. rawURL may be
// empty for local files.
func (r *Registry) Extract(htmlContent, rawURL string) (*Content, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var u *url.URL
	if rawURL != "" {
		if u, err = url.Parse(rawURL); err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
	}

	return r.Select(u, doc).Extract(doc, u)
}
