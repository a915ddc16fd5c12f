package extract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// blockElements end a paragraph in the extracted text
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "ul": true, "ol": true, "blockquote": true, "pre": true,
	"table": true, "tr": true, "header": true, "footer": true, "br": true,
	"figure": true, "figcaption": true, "dd": true, "dt": true,
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"svg": true, "template": true, "head": true,
}

// HTMLToText parses an HTML document and returns its visible text
func HTMLToText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return VisibleText(doc), nil
}

// VisibleText extracts text nodes, skipping scripts and styles. Block
// elements are separated by blank lines so paragraph structure survives.
func VisibleText(n *html.Node) string {
	var buf strings.Builder
	space := false

	atBreak := func() bool {
		return buf.Len() == 0 || strings.HasSuffix(buf.String(), "\n")
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}

		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				if !atBreak() && (space || startsWithSpace(n.Data)) {
					buf.WriteString(" ")
				}
				buf.WriteString(text)
				space = endsWithSpace(n.Data)
			} else if n.Data != "" {
				space = true
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type != html.ElementNode {
			return
		}
		switch {
		case blockElements[n.Data]:
			if buf.Len() > 0 && !strings.HasSuffix(buf.String(), "\n\n") {
				buf.WriteString("\n\n")
			}
			space = false
		case n.Data == "td" || n.Data == "th":
			space = true
		}
	}

	walk(n)
	return strings.TrimSpace(buf.String())
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s, " \t\n\r\f") != s
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s, " \t\n\r\f") != s
}
