package pipeline

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockElements start a new flow; everything else is phrasing content.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true,
	atom.Blockquote: true, atom.Details: true, atom.Div: true,
	atom.Dl: true, atom.Fieldset: true, atom.Figure: true,
	atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true,
	atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Style: true, atom.Table: true, atom.Ul: true,
}

// fragmentContext is the element sanitized fragments are parsed inside.
var fragmentContext = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}

// WrapOrphans wraps top-level runs of inline content in <p>. Such runs are
// left behind when the sanitizer drops a block element that the parser had
// treated as raw HTML: "<script>x</script>Hola" sanitizes to a bare "Hola".
//
// The fragment is always re-serialized from its parsed tree, so every
// element in the result is closed: an open <ul>, <table> or <em> cannot
// swallow the markup that follows it in the host document.
func WrapOrphans(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), fragmentContext)
	if err != nil {
		return html.EscapeString(fragment)
	}

	var sb strings.Builder
	var run []*html.Node

	flush := func() {
		if isBlankRun(run) {
			// Formatting elements the parser reopened around whitespace
			// carry nothing worth a paragraph.
			for _, n := range run {
				sb.WriteString(html.EscapeString(textContent(n)))
			}
		} else {
			writeWrapped(&sb, run)
		}
		run = run[:0]
	}

	for _, n := range nodes {
		if isInline(n) {
			run = append(run, n)
			continue
		}
		if len(run) > 0 {
			flush()
		}
		_ = html.Render(&sb, n)
	}
	if len(run) > 0 {
		flush()
	}
	return sb.String()
}

// writeWrapped renders run inside a <p>. Whitespace at the edges of the
// run stays outside the paragraph.
func writeWrapped(sb *strings.Builder, run []*html.Node) {
	first, last := run[0], run[len(run)-1]
	var lead, trail string
	if first.Type == html.TextNode {
		trimmed := strings.TrimLeft(first.Data, " \t\n")
		lead = first.Data[:len(first.Data)-len(trimmed)]
		first.Data = trimmed
	}
	if last.Type == html.TextNode {
		trimmed := strings.TrimRight(last.Data, " \t\n")
		trail = last.Data[len(trimmed):]
		last.Data = trimmed
	}

	p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
	for _, n := range run {
		if n.Type == html.TextNode && n.Data == "" {
			continue
		}
		p.AppendChild(n)
	}

	sb.WriteString(lead)
	_ = html.Render(sb, p)
	sb.WriteString(trail)
}

func isInline(n *html.Node) bool {
	switch n.Type {
	case html.TextNode:
		return true
	case html.ElementNode:
		return !blockElements[n.DataAtom]
	default:
		return false
	}
}

func isBlankRun(run []*html.Node) bool {
	for _, n := range run {
		if !isBlank(n) {
			return false
		}
	}
	return true
}

// isBlank reports whether n renders as whitespace only. Void elements such
// as <br> and <img> are content.
func isBlank(n *html.Node) bool {
	switch n.Type {
	case html.TextNode:
		return strings.TrimSpace(n.Data) == ""
	case html.ElementNode:
		if voidElements[n.DataAtom] {
			return false
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !isBlank(c) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

var voidElements = map[atom.Atom]bool{
	atom.Br: true, atom.Img: true, atom.Input: true,
	atom.Hr: true, atom.Wbr: true,
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
