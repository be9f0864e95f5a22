package resolver

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// ParseDocument parses an HTML document into a node tree suitable for
// Resolve.
func ParseDocument(r io.Reader) (*html.Node, error) {
	doc, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("resolver: parse document: %w", err)
	}
	return doc, nil
}

// ParseDocumentString is ParseDocument for an in-memory HTML string.
func ParseDocumentString(s string) (*html.Node, error) {
	return ParseDocument(strings.NewReader(s))
}

// DocumentTitle returns the trimmed text of the first <title> element.
func DocumentTitle(doc *html.Node) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(goquery.NewDocumentFromNode(doc).Find("title").First().Text())
}
