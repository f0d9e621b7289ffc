package pipeline

import (
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// Display labels assigned to code blocks without a declared language.
const (
	LabelHTML       = "HTML"
	LabelJavaScript = "JAVASCRIPT"
	LabelText       = "TEXT"
)

// scriptSignals mark script-like content.
var scriptSignals = []string{"const ", "let ", "var ", "function", "=>"}

// LanguageSniffer assigns display labels to code blocks.
// Labels are advisory and never affect escaping.
type LanguageSniffer struct {
	plainLabel string
}

// NewLanguageSniffer returns a sniffer using plainLabel for unclassified
// content. An empty plainLabel selects LabelText.
func NewLanguageSniffer(plainLabel string) *LanguageSniffer {
	if plainLabel == "" {
		plainLabel = LabelText
	}
	return &LanguageSniffer{plainLabel: plainLabel}
}

// SniffLanguage labels content with the default sniffer.
func SniffLanguage(content, declared string) string {
	return NewLanguageSniffer("").Sniff(content, declared)
}

// Sniff returns the label for a block. A declared language is resolved
// through chroma's lexer registry so aliases read naturally ("js" becomes
// "JAVASCRIPT"); unknown names are kept as written. Both are upper-cased.
//
// Without a declaration, a doctype or closing html tag is decisive markup.
// A leading tag alone is weak evidence: combined with script signals the
// result is a tie, and ties resolve to the plain label.
func (s *LanguageSniffer) Sniff(content, declared string) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		return strings.ToUpper(resolveLanguage(declared))
	}

	lower := strings.ToLower(content)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "</html>") {
		return LabelHTML
	}

	markup := startsWithTag(strings.TrimSpace(content))
	script := false
	for _, sig := range scriptSignals {
		if strings.Contains(content, sig) {
			script = true
			break
		}
	}

	switch {
	case markup && !script:
		return LabelHTML
	case script && !markup:
		return LabelJavaScript
	default:
		return s.plainLabel
	}
}

func resolveLanguage(name string) string {
	if l := lexers.Get(name); l != nil {
		if cfg := l.Config(); cfg != nil && cfg.Name != "" {
			return cfg.Name
		}
	}
	return name
}

// startsWithTag reports whether s opens with something shaped like a tag:
// '<' followed by a letter, '/' or '!'.
func startsWithTag(s string) bool {
	if len(s) < 2 || s[0] != '<' {
		return false
	}
	c := s[1]
	return c == '/' || c == '!' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
