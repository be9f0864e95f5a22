// Package resolver turns an XPath selector and a parsed HTML document into a
// direct media resource URL.
package resolver

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"github.com/use-agent/vidopen/models"
	"golang.org/x/net/html"
)

// candidateAttributes is the fixed priority list of attributes that may carry
// the media URL. The first attribute with a non-empty value wins.
var candidateAttributes = [...]string{"src", "href", "data-src", "data-url", "data-video-url"}

// CandidateAttributes returns the attribute names considered as URL sources,
// in priority order.
func CandidateAttributes() []string {
	out := make([]string, len(candidateAttributes))
	copy(out, candidateAttributes[:])
	return out
}

// Result is a successful resolution.
type Result struct {
	// URL is the absolute media URL.
	URL string

	// Attribute is the candidate attribute the raw value came from.
	Attribute string

	// RawValue is the attribute value before resolution against the base URL.
	RawValue string
}

// Resolve evaluates xpath against doc, reads the first populated candidate
// attribute of the first matching element and resolves it against baseURL.
//
// Failures are *models.Error values with one of the codes
// ErrCodeElementNotFound, ErrCodeNoURLAttribute or ErrCodeURLResolution.
func Resolve(xpathExpr string, doc *html.Node, baseURL string) (*Result, error) {
	node, err := FindFirst(doc, xpathExpr)
	if err != nil {
		return nil, err
	}

	attr, raw, ok := firstCandidate(node)
	if !ok {
		return nil, models.NewError(models.ErrCodeNoURLAttribute, "No video URL found", nil)
	}

	abs, err := ResolveURL(raw, baseURL)
	if err != nil {
		return nil, err
	}

	return &Result{URL: abs, Attribute: attr, RawValue: raw}, nil
}

// FindFirst returns the first element matching xpathExpr. A syntactically
// invalid expression, an expression that selects nothing and an expression
// whose first match is not an element all report ElementNotFound.
func FindFirst(doc *html.Node, xpathExpr string) (node *html.Node, err error) {
	if doc == nil {
		return nil, models.NewError(models.ErrCodeElementNotFound, "Element not found", fmt.Errorf("resolver: nil document"))
	}

	// Some malformed or function-heavy expressions panic inside the xpath
	// engine; a panic is an evaluation failure like any other.
	defer func() {
		if r := recover(); r != nil {
			node = nil
			err = models.NewError(models.ErrCodeElementNotFound, "Element not found", fmt.Errorf("resolver: evaluate %q: %v", xpathExpr, r))
		}
	}()

	expr, err := xpath.Compile(xpathExpr)
	if err != nil {
		return nil, models.NewError(models.ErrCodeElementNotFound, "Element not found", fmt.Errorf("resolver: invalid xpath %q: %w", xpathExpr, err))
	}

	n := htmlquery.QuerySelector(doc, expr)
	if n == nil {
		return nil, models.NewError(models.ErrCodeElementNotFound, "Element not found", nil)
	}
	if n.Type != html.ElementNode || n.Parent == nil {
		// htmlquery hands back detached synthetic nodes for attribute matches.
		return nil, models.NewError(models.ErrCodeElementNotFound, "Element not found", fmt.Errorf("resolver: %q did not select an element", xpathExpr))
	}
	return n, nil
}

// Validate reports whether xpathExpr compiles. It never touches a document.
func Validate(xpathExpr string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("resolver: invalid xpath %q: %v", xpathExpr, r)
		}
	}()
	if _, err := xpath.Compile(xpathExpr); err != nil {
		return fmt.Errorf("resolver: invalid xpath %q: %w", xpathExpr, err)
	}
	return nil
}

// firstCandidate scans candidateAttributes in order and returns the first
// attribute with a non-empty value.
func firstCandidate(n *html.Node) (name, value string, ok bool) {
	for _, attr := range candidateAttributes {
		if v := htmlquery.SelectAttr(n, attr); v != "" {
			return attr, v, true
		}
	}
	return "", "", false
}

// urlNoise mirrors the browser URL parser, which drops ASCII tab and newline
// characters anywhere in the input.
var urlNoise = strings.NewReplacer("\t", "", "\n", "", "\r", "")

// ResolveURL resolves raw against base. Absolute values pass through
// unchanged; relative values become absolute. The result must be a
// well-formed absolute URL.
func ResolveURL(raw, base string) (string, error) {
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return "", models.NewError(models.ErrCodeURLResolution, "Invalid base URL", fmt.Errorf("resolver: base %q is not an absolute URL", base))
	}

	ref, err := url.Parse(normalizeRef(raw, b.Scheme))
	if err != nil {
		return "", models.NewError(models.ErrCodeURLResolution, "Invalid video URL", fmt.Errorf("resolver: parse %q: %w", raw, err))
	}

	u := b.ResolveReference(ref)
	if !u.IsAbs() || (needsHost(u.Scheme) && u.Host == "") {
		return "", models.NewError(models.ErrCodeURLResolution, "Invalid video URL", fmt.Errorf("resolver: %q does not resolve to an absolute URL", raw))
	}
	return u.String(), nil
}

// normalizeRef applies the browser URL parser's leniencies that url.Parse
// lacks. For special schemes a backslash before the query or fragment acts as
// a path separator. A '%' that does not start a valid escape is kept literally.
func normalizeRef(raw, baseScheme string) string {
	s := urlNoise.Replace(strings.TrimSpace(raw))

	scheme := baseScheme
	if i := strings.IndexByte(s, ':'); i > 0 && validScheme(s[:i]) {
		scheme = s[:i]
	}
	if isSpecial(scheme) {
		end := strings.IndexAny(s, "?#")
		if end < 0 {
			end = len(s)
		}
		s = strings.ReplaceAll(s[:end], `\`, "/") + s[end:]
	}
	return escapeStrayPercent(s)
}

func escapeStrayPercent(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && (i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2])) {
			sb.WriteString("%25")
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func validScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return s != ""
}

func isSpecial(scheme string) bool {
	return needsHost(scheme) || strings.EqualFold(scheme, "file")
}

// needsHost reports whether scheme is a special scheme that requires an
// authority component.
func needsHost(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "http", "https", "ws", "wss", "ftp":
		return true
	}
	return false
}
