package adapters

import (
	"net/url"
	"strings"

	"github.com/ppiankov/geoscore/internal/extract"
	"golang.org/x/net/html"
)

// WikipediaAdapter extracts article prose from Wikipedia pages. Inline
// reference markers already render as "[n]", so they survive as citations.
type WikipediaAdapter struct {
	stopSections map[string]bool
	noiseClasses []string
}

// NewWikipediaAdapter creates a new Wikipedia adapter
func NewWikipediaAdapter() *WikipediaAdapter {
	return &WikipediaAdapter{
		stopSections: map[string]bool{
			"references": true, "notes": true, "see also": true, "external links": true,
			"further reading": true, "bibliography": true, "sources": true, "citations": true,
		},
		noiseClasses: []string{
			"infobox", "navbox", "reflist", "mw-editsection", "thumb",
			"hatnote", "metadata", "ambox", "sidebar", "toc", "mw-empty-elt",
			"shortdescription", "references",
		},
	}
}

func (a *WikipediaAdapter) Name() string { return "wikipedia" }

// Match accepts *.wikipedia.org pages
func (a *WikipediaAdapter) Match(u *url.URL, _ *html.Node) bool {
	if u == nil {
		return false
	}
	host := u.Hostname()
	return host == "wikipedia.org" || strings.HasSuffix(host, ".wikipedia.org")
}

// Extract returns the article body up to the first reference section. The
// numbered reference list becomes the Sources map.
func (a *WikipediaAdapter) Extract(doc *html.Node, u *url.URL) (*Content, error) {
	body := findFirst(doc, func(n *html.Node) bool {
		return isElement(n, "div") && (hasClass(n, "mw-parser-output") || attr(n, "id") == "mw-content-text")
	})
	if body == nil {
		body = doc
	}

	sources := a.sources(body, u)

	a.truncateAtStopSection(body)
	detach(body, func(n *html.Node) bool {
		return isElement(n, "style") ||
			(isElement(n, "table") && hasClass(n, "wikitable")) ||
			hasAnyClass(n, a.noiseClasses)
	})

	return &Content{
		Adapter: a.Name(),
		Text:    extract.VisibleText(body),
		Sources: sources,
	}, nil
}

// sources maps each numbered reference to its first external link
func (a *WikipediaAdapter) sources(body *html.Node, base *url.URL) map[int]string {
	list := findFirst(body, func(n *html.Node) bool {
		return isElement(n, "ol") && hasClass(n, "references")
	})
	if list == nil {
		return nil
	}

	sources := make(map[int]string)
	index := 0
	for item := list.FirstChild; item != nil; item = item.NextSibling {
		if !isElement(item, "li") {
			continue
		}
		index++
		if link := firstLink(item, base, func(n *html.Node) bool { return hasClass(n, "external") }); link != "" {
			sources[index] = link
		}
	}

	if len(sources) == 0 {
		return nil
	}
	return sources
}

// truncateAtStopSection drops the first reference-style h2 and everything
// after it at the body's top level
func (a *WikipediaAdapter) truncateAtStopSection(body *html.Node) {
	heading := findFirst(body, func(n *html.Node) bool {
		return isElement(n, "h2") && a.stopSections[strings.ToLower(flatText(n))]
	})
	if heading == nil {
		return
	}

	// Headings may be wrapped (div.mw-heading); cut at the body's child
	top := heading
	for top.Parent != nil && top.Parent != body {
		top = top.Parent
	}
	if top.Parent == nil {
		return
	}

	for n := top; n != nil; {
		next := n.NextSibling
		body.RemoveChild(n)
		n = next
	}
}
