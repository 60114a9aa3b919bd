package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var htmlOpen = regexp.MustCompile(`(?s)^\s*<[a-zA-Z!]`)

// looksHTML reports whether a source text appears to be HTML rather than
// plain prose.
func looksHTML(text string) bool {
	return htmlOpen.MatchString(text) && (strings.Contains(text, "</") || strings.Contains(text, "/>"))
}

// NormalizeSource flattens an HTML source to plain text when stripping is
// enabled; plain prose passes through unchanged. Sources are normalized once,
// before extraction, so recorded texts and paragraph indexes agree.
func NormalizeSource(text string, strip bool) string {
	if strip && looksHTML(text) {
		return StripHTML(text)
	}
	return text
}

// blockElements emit paragraph breaks so that blank-line paragraph splitting
// still applies to flattened HTML.
var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "table": true, "blockquote": true, "pre": true, "section": true,
	"article": true,
}

// StripHTML flattens an HTML document to visible text, skipping scripts and
// styles and preserving block structure as blank lines.
func StripHTML(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		// Malformed markup: treat the raw text as-is rather than failing.
		return content
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "br":
				buf.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteString("\n\n")
		}
	}
	walk(doc)

	return strings.TrimSpace(buf.String())
}
