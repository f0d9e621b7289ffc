package pipeline

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// BlockIDPattern matches identifiers generated for code blocks.
	BlockIDPattern = regexp.MustCompile(`^code-[A-Za-z0-9-]{1,64}$`)

	classPattern    = regexp.MustCompile(`^[A-Za-z0-9_\- ]{0,256}$`)
	alignPattern    = regexp.MustCompile(`^(left|center|right)$`)
	copyKindPattern = regexp.MustCompile(`^(code|message)$`)
	buttonPattern   = regexp.MustCompile(`^button$`)
	checkboxPattern = regexp.MustCompile(`^checkbox$`)
)

// NewPolicy builds the allow-list applied to every rendered fragment.
// Anything not listed is dropped: script, iframe, object, embed, style,
// form and every on* handler. Copy triggers are plain buttons whose
// behavior is attached by the host through data-copy, so no inline
// handler is ever needed.
func NewPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "br", "hr", "blockquote",
		"ul", "ol", "li",
		"table", "thead", "tbody", "tfoot", "tr", "th", "td",
		"strong", "b", "em", "i", "u", "s", "del", "ins", "mark",
		"sub", "sup", "small", "kbd", "abbr", "code", "q",
		"div", "span", "section", "article", "pre",
	)

	// Links
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("title").OnElements("a", "abbr", "img")
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	// Images
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowAttrs("width", "height").Matching(bluemonday.NumberOrPercent).OnElements("img")

	// Tables and lists
	p.AllowAttrs("align").Matching(alignPattern).OnElements("th", "td")
	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")

	// Task list checkboxes
	p.AllowAttrs("type").Matching(checkboxPattern).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")

	// Code block chrome and copy triggers
	p.AllowAttrs("id").Matching(BlockIDPattern).OnElements("pre")
	p.AllowAttrs("data-block").Matching(BlockIDPattern).OnElements("div", "span", "button")
	p.AllowAttrs("type").Matching(buttonPattern).OnElements("button")
	p.AllowAttrs("data-copy").Matching(copyKindPattern).OnElements("button")
	p.AllowAttrs("data-copy-target").Matching(BlockIDPattern).OnElements("button")

	p.AllowAttrs("class").Matching(classPattern).Globally()

	return p
}

// Sanitize applies policy to fragment. It never fails: disallowed nodes and
// attributes are dropped silently.
func Sanitize(policy *bluemonday.Policy, fragment string) string {
	return policy.Sanitize(fragment)
}
