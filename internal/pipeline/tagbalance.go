package pipeline

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// balancedTags are the container elements models most often leave open.
var balancedTags = map[atom.Atom]bool{
	atom.Div:     true,
	atom.Span:    true,
	atom.P:       true,
	atom.Section: true,
	atom.Article: true,
}

// BalanceTags appends closing tags for container elements left open in the
// prose regions of text. Nesting is tracked with a stack: a closing tag pops
// back to its matching opener, and stray closers are ignored. Fenced regions
// and inline code spans are skipped. It returns the text and the number of
// tags closed.
//
// Closers go after a blank line, one per line, so they can never continue
// a paragraph or an indented code block.
func BalanceTags(text string) (string, int) {
	var stack []atom.Atom

	pos := 0
	for _, s := range FenceSpans(text) {
		stack = scanTags(text[pos:s.Start], stack)
		pos = s.End
	}
	stack = scanTags(text[pos:], stack)

	if len(stack) == 0 {
		return text, 0
	}

	var sb strings.Builder
	sb.WriteString(text)
	switch {
	case text == "" || strings.HasSuffix(text, "\n\n"):
	case strings.HasSuffix(text, "\n"):
		sb.WriteByte('\n')
	default:
		sb.WriteString("\n\n")
	}
	for i := len(stack) - 1; i >= 0; i-- {
		sb.WriteString("</")
		sb.WriteString(stack[i].String())
		sb.WriteByte('>')
		if i > 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String(), len(stack)
}

// scanTags tokenizes one prose segment and updates the open-element stack.
func scanTags(segment string, stack []atom.Atom) []atom.Atom {
	z := html.NewTokenizer(strings.NewReader(maskCodeSpans(segment)))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return stack
		case html.StartTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); balancedTags[a] {
				stack = append(stack, a)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if !balancedTags[a] {
				continue
			}
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i] == a {
					stack = stack[:i]
					break
				}
			}
		}
	}
}

// maskCodeSpans blanks inline code spans: a run of backticks up to the next
// run of the same length in the same paragraph. A run without a matching
// closer is literal text.
func maskCodeSpans(segment string) string {
	if !strings.Contains(segment, "`") {
		return segment
	}

	b := []byte(segment)
	i := 0
	for i < len(b) {
		if b[i] != '`' {
			i++
			continue
		}
		n := backtickRun(b, i)
		end := -1
		for j := i + n; j < len(b); {
			if b[j] == '\n' && blankLineFollows(b, j+1) {
				break // spans end with their paragraph
			}
			if b[j] != '`' {
				j++
				continue
			}
			m := backtickRun(b, j)
			if m == n {
				end = j + m
				break
			}
			j += m
		}
		if end < 0 {
			i += n
			continue
		}
		for k := i; k < end; k++ {
			if b[k] != '\n' {
				b[k] = ' '
			}
		}
		i = end
	}
	return string(b)
}

func backtickRun(b []byte, i int) int {
	n := 0
	for i+n < len(b) && b[i+n] == '`' {
		n++
	}
	return n
}

func blankLineFollows(b []byte, i int) bool {
	for ; i < len(b); i++ {
		switch b[i] {
		case ' ', '\t':
		case '\n':
			return true
		default:
			return false
		}
	}
	return false
}
