// Package gather downloads story pages and carves individual stories out
// of them into corpus directories.
package gather

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Default tag sets for section extraction. Gutenberg HTML marks story
// titles with h2/h3 and separates works with h2 or div elements.
var (
	DefaultHeadingTags  = []string{"h2", "h3"}
	DefaultDivisionTags = []string{"h2", "div"}
	DefaultBodyTags     = []string{"p", "pre"}
)

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// TitleToFilename converts a story title into a canonical filename stem:
// lowercase, punctuation stripped, spaces collapsed to underscores.
func TitleToFilename(title string) string {
	title = strings.ToLower(title)
	title = nonAlnum.ReplaceAllString(title, "")
	return whitespace.ReplaceAllString(strings.TrimSpace(title), "_")
}

// SectionOptions tune how SectionAfterHeading walks the document.
type SectionOptions struct {
	HeadingTags  []string // tags considered headings (default h2, h3)
	DivisionTags []string // tags that end the section (default h2, div)
	BodyTags     []string // tags collected as body text (default p, pre)
}

func (o SectionOptions) withDefaults() SectionOptions {
	if o.HeadingTags == nil {
		o.HeadingTags = DefaultHeadingTags
	}
	if o.DivisionTags == nil {
		o.DivisionTags = DefaultDivisionTags
	}
	if o.BodyTags == nil {
		o.BodyTags = DefaultBodyTags
	}
	return o
}

// SectionAfterHeading finds the first heading whose text contains
// headingText and returns the text of the body elements that follow it,
// up to the next division tag. The second return value reports whether the
// heading was found. The heading match is brittle by nature; headings are
// hand-curated per corpus.
func SectionAfterHeading(document, headingText string, opts SectionOptions) (string, bool) {
	opts = opts.withDefaults()

	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", false
	}

	heading := findHeading(doc, headingText, opts.HeadingTags)
	if heading == nil {
		return "", false
	}

	var paragraphs []string
	for sibling := heading.NextSibling; sibling != nil; sibling = sibling.NextSibling {
		if sibling.Type != html.ElementNode {
			continue
		}
		if containsTag(opts.DivisionTags, sibling.Data) {
			break
		}
		if containsTag(opts.BodyTags, sibling.Data) {
			paragraphs = append(paragraphs, nodeText(sibling))
		}
	}
	return strings.Join(paragraphs, "\n"), true
}

func findHeading(n *html.Node, headingText string, headingTags []string) *html.Node {
	if n.Type == html.ElementNode && containsTag(headingTags, n.Data) {
		if strings.Contains(collapseSpace(nodeText(n)), headingText) {
			return n
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findHeading(child, headingText, headingTags); found != nil {
			return found
		}
	}
	return nil
}

func containsTag(tags []string, name string) bool {
	for _, tag := range tags {
		if tag == name {
			return true
		}
	}
	return false
}

// nodeText flattens the text content of a node and its descendants.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

func collapseSpace(s string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}
