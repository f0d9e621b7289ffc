package pipeline

import (
	"strings"

	"golang.org/x/net/html"
)

// ReservedPrefix is prepended to reserved class names in model markup.
const ReservedPrefix = "ai-"

// ClassRemapTable maps reserved host class names to their substitutes.
type ClassRemapTable map[string]string

// ReservedClasses are the class names the host document styles itself with.
var ReservedClasses = []string{
	"code-block",
	"code-header",
	"chat-box",
	"copy-btn",
	"copy-btn-ai",
	"content-area",
	"sidebar",
	"header",
}

// DefaultClassRemapTable maps each reserved class to ReservedPrefix + name.
func DefaultClassRemapTable() ClassRemapTable {
	t := make(ClassRemapTable, len(ReservedClasses))
	for _, c := range ReservedClasses {
		t[c] = ReservedPrefix + c
	}
	return t
}

// ownerAttrs link an element to a code block rendered in this call.
var ownerAttrs = []string{"data-block", "data-copy-target", "id"}

// Remap rewrites reserved class tokens in fragment. Elements that reference
// one of the owned block IDs are pipeline markup and keep their classes.
// Only class attributes change; every other byte passes through. Remap is
// idempotent as long as no substitute is itself reserved.
func (t ClassRemapTable) Remap(fragment string, owned ...string) string {
	if len(t) == 0 || !strings.Contains(fragment, "class") {
		return fragment
	}

	ownedSet := make(map[string]bool, len(owned))
	for _, id := range owned {
		ownedSet[id] = true
	}

	var sb strings.Builder
	sb.Grow(len(fragment))

	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			sb.Write(z.Raw())
			continue
		}

		raw := string(z.Raw())
		tok := z.Token()
		if isOwned(tok, ownedSet) || !t.remapToken(&tok) {
			sb.WriteString(raw)
			continue
		}
		sb.WriteString(tok.String())
	}
	return sb.String()
}

// remapToken rewrites the class attribute of tok in place and reports
// whether anything changed.
func (t ClassRemapTable) remapToken(tok *html.Token) bool {
	changed := false
	for i, a := range tok.Attr {
		if a.Namespace != "" || a.Key != "class" {
			continue
		}
		fields := strings.Fields(a.Val)
		for j, f := range fields {
			if sub, ok := t[f]; ok {
				fields[j] = sub
				changed = true
			}
		}
		if changed {
			tok.Attr[i].Val = strings.Join(fields, " ")
		}
	}
	return changed
}

func isOwned(tok html.Token, owned map[string]bool) bool {
	if len(owned) == 0 {
		return false
	}
	for _, a := range tok.Attr {
		for _, k := range ownerAttrs {
			if a.Key == k && owned[a.Val] {
				return true
			}
		}
	}
	return false
}
