package adapters

import (
	"net/url"

	"github.com/ppiankov/geoscore/internal/extract"
	"golang.org/x/net/html"
)

// GenericAdapter keeps the main content of any page and drops site chrome
type GenericAdapter struct {
	chrome []string
}

// NewGenericAdapter creates the fallback adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{chrome: []string{"nav", "aside", "form", "button"}}
}

func (a *GenericAdapter) Name() string { return "generic" }

// Match accepts every page
func (a *GenericAdapter) Match(*url.URL, *html.Node) bool { return true }

// Extract prefers <article>, then <main>, then the whole document. Page
// headers and footers only go when no content root was found.
func (a *GenericAdapter) Extract(doc *html.Node, _ *url.URL) (*Content, error) {
	root := findFirst(doc, func(n *html.Node) bool { return isElement(n, "article") })
	if root == nil {
		root = findFirst(doc, func(n *html.Node) bool { return isElement(n, "main") })
	}
	if root == nil {
		root = doc
	}

	detach(root, func(n *html.Node) bool {
		return isElement(n, a.chrome...) || (root == doc && isElement(n, "header", "footer"))
	})

	return &Content{Adapter: a.Name(), Text: extract.VisibleText(root)}, nil
}
