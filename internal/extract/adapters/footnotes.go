package adapters

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/geoscore/internal/extract"
	"golang.org/x/net/html"
)

// FootnotesAdapter handles pages rendered from Markdown or by static site
// generators, where citations are superscript links into a footnote list.
// Each reference becomes a "[n]" marker numbered by its footnote's position.
type FootnotesAdapter struct {
	containerClasses []string
}

// NewFootnotesAdapter creates a footnote adapter
func NewFootnotesAdapter() *FootnotesAdapter {
	return &FootnotesAdapter{containerClasses: []string{"footnotes", "footnote-list", "endnotes"}}
}

func (a *FootnotesAdapter) Name() string { return "footnotes" }

// Match accepts pages with a footnote section holding a list
func (a *FootnotesAdapter) Match(_ *url.URL, doc *html.Node) bool {
	container := a.container(doc)
	return container != nil && footnoteList(container) != nil
}

// Extract rewrites footnote references as bracket markers, collects each
// footnote's first link as its source and drops the footnote section
func (a *FootnotesAdapter) Extract(doc *html.Node, u *url.URL) (*Content, error) {
	container := a.container(doc)
	if container == nil {
		return nil, fmt.Errorf("no footnote section")
	}
	list := footnoteList(container)
	if list == nil {
		return nil, fmt.Errorf("footnote section has no list")
	}

	index := make(map[string]int)
	sources := make(map[int]string)
	n := 0
	for item := list.FirstChild; item != nil; item = item.NextSibling {
		if !isElement(item, "li") {
			continue
		}
		n++
		if id := attr(item, "id"); id != "" {
			index[id] = n
		}
		if link := firstLink(item, u, func(x *html.Node) bool { return !isBackref(x) }); link != "" {
			sources[n] = link
		}
	}

	refs := findAll(doc, func(x *html.Node) bool {
		return isElement(x, "a") && noteIndex(index, attr(x, "href")) > 0
	})
	for _, ref := range refs {
		marker := fmt.Sprintf("[%d]", noteIndex(index, attr(ref, "href")))
		target := ref
		if ref.Parent != nil && isElement(ref.Parent, "sup") {
			target = ref.Parent
		}
		replaceWithText(target, marker)
	}

	if container.Parent != nil {
		container.Parent.RemoveChild(container)
	}

	root := findFirst(doc, func(x *html.Node) bool { return isElement(x, "article", "main") })
	if root == nil {
		root = doc
	}
	detach(root, func(x *html.Node) bool {
		return isElement(x, "nav", "aside", "form", "button") || (root == doc && isElement(x, "header", "footer"))
	})

	if len(sources) == 0 {
		sources = nil
	}
	return &Content{Adapter: a.Name(), Text: extract.VisibleText(root), Sources: sources}, nil
}

// noteIndex resolves an in-page "#id" link to its footnote number
func noteIndex(index map[string]int, href string) int {
	if !strings.HasPrefix(href, "#") {
		return 0
	}
	return index[href[1:]]
}

func (a *FootnotesAdapter) container(doc *html.Node) *html.Node {
	return findFirst(doc, func(n *html.Node) bool {
		return (isElement(n, "section", "div", "ol") && hasAnyClass(n, a.containerClasses)) ||
			attr(n, "role") == "doc-endnotes"
	})
}

func footnoteList(container *html.Node) *html.Node {
	if isElement(container, "ol") {
		return container
	}
	return findFirst(container, func(n *html.Node) bool { return isElement(n, "ol") })
}

// isBackref matches the return links footnote renderers append to each note
func isBackref(n *html.Node) bool {
	return hasAnyClass(n, []string{"footnote-backref", "reversefootnote", "footnote-back"}) ||
		attr(n, "role") == "doc-backlink"
}
