package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Parser extracts the data a sitemap needs from an HTML page.
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving relative URLs.
	baseURL *url.URL
}

// ParseResult contains the information extracted from an HTML page.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Canonical is the resolved href of <link rel="canonical">, if any.
	Canonical string

	// NoIndex is set by <meta name="robots" content="noindex">.
	NoIndex bool

	// NoFollow is set by <meta name="robots" content="nofollow">.
	NoFollow bool

	// InternalLinks are links to the same host as the page.
	InternalLinks []string

	// ExternalLinks are links to other hosts.
	ExternalLinks []string
}

// NewParser creates a new HTML parser with the given base URL.
// The base URL is used to resolve relative links.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse parses HTML content and extracts links and indexing hints.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		InternalLinks: make([]string, 0),
		ExternalLinks: make([]string, 0),
	}

	// <base href> changes how every following link resolves.
	if href := findBaseHref(doc); href != "" {
		if u, err := url.Parse(href); err == nil {
			p.baseURL = p.baseURL.ResolveReference(u)
		}
	}

	seen := make(map[string]bool)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			p.processElement(n, result, seen)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// processElement handles HTML element nodes.
func (p *Parser) processElement(n *html.Node, result *ParseResult, seen map[string]bool) {
	switch n.Data {
	case "title":
		if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			result.Title = strings.TrimSpace(n.FirstChild.Data)
		}

	case "a", "area":
		if strings.Contains(strings.ToLower(getAttr(n, "rel")), "nofollow") {
			return
		}
		resolved := p.resolveURL(getAttr(n, "href"))
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		p.classifyLink(resolved, result)

	case "link":
		if strings.EqualFold(strings.TrimSpace(getAttr(n, "rel")), "canonical") {
			result.Canonical = p.resolveURL(getAttr(n, "href"))
		}

	case "meta":
		if !strings.EqualFold(getAttr(n, "name"), "robots") {
			return
		}
		for _, directive := range strings.Split(strings.ToLower(getAttr(n, "content")), ",") {
			switch strings.TrimSpace(directive) {
			case "noindex":
				result.NoIndex = true
			case "nofollow":
				result.NoFollow = true
			case "none":
				result.NoIndex = true
				result.NoFollow = true
			}
		}
	}
}

// resolveURL resolves href against the base URL and drops the fragment.
// Non-navigational schemes yield "".
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := p.baseURL.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}

// classifyLink sorts a link into internal or external.
func (p *Parser) classifyLink(link string, result *ParseResult) {
	u, err := url.Parse(link)
	if err != nil {
		return
	}
	if strings.EqualFold(u.Host, p.baseURL.Host) {
		result.InternalLinks = append(result.InternalLinks, link)
		return
	}
	result.ExternalLinks = append(result.ExternalLinks, link)
}

// findBaseHref returns the href of the first <base> element.
func findBaseHref(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "base" {
		return getAttr(n, "href")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href := findBaseHref(c); href != "" {
			return href
		}
	}
	return ""
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
