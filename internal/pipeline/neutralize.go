package pipeline

import (
	"regexp"
	"strings"

	"github.com/k3a/html2text"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n+`)

// LiveComponent returns the name of the first <form> or <style> element in
// fragment, or "" when there is none. Code block content is escaped text, so
// only prose can match.
func LiveComponent(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Form:
				return "form"
			case atom.Style:
				return "style"
			}
		}
	}
}

// Neutralize demotes sanitized to inert plain text when a live form or
// style element is found in either the unsanitized parser output or the
// sanitized fragment. The sanitizer normally drops both, so the parser
// output is checked as well: a match there means the message carried a
// component the sanitizer had to remove, and its remains are not trusted.
// It returns the fragment and the component that triggered demotion.
func Neutralize(untrusted, sanitized string) (string, string) {
	found := LiveComponent(sanitized)
	if found == "" {
		found = LiveComponent(untrusted)
	}
	if found == "" {
		return sanitized, ""
	}
	return PlainText(sanitized), found
}

// PlainText renders fragment as escaped text paragraphs.
func PlainText(fragment string) string {
	return TextToHTML(html2text.HTML2TextWithOptions(fragment, html2text.WithUnixLineBreaks()))
}

// TextToHTML escapes text and lays it out as HTML: blank-line separated
// paragraphs become <p> elements and single newlines become <br>.
func TextToHTML(text string) string {
	text = strings.TrimSpace(normalizeLineEndings(text))
	if text == "" {
		return ""
	}

	var sb strings.Builder
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i, l := range lines {
			lines[i] = EscapeText(strings.TrimRight(l, " \t"))
		}
		sb.WriteString("<p>")
		sb.WriteString(strings.Join(lines, "<br>"))
		sb.WriteString("</p>")
	}
	return sb.String()
}
