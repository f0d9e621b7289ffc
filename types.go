package chatfmt

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Result is the outcome of formatting one response.
type Result struct {
	// HTML is safe to assign as the inner markup of a container element.
	HTML string

	// Blocks lists the rendered code blocks in document order.
	// Empty when the message was neutralized.
	Blocks []CodeBlock

	Report Report
}

// CodeBlock describes one rendered code block.
type CodeBlock struct {
	ID      string // value of the <pre> id and of the copy trigger's data-copy-target
	Label   string // display label in the block header
	Content string // literal code text
}

// Report summarizes what the pipeline repaired or removed.
type Report struct {
	Duration      time.Duration
	DroppedRunes  int
	FenceRepaired bool
	TagsClosed    int
	CodeBlocks    int
	Neutralized   bool
	// NeutralizedBy names the element that triggered neutralization
	// ("form" or "style"), or "panic" when formatting fell back to text.
	NeutralizedBy string
}

// Observer receives a Report after every formatted response.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveFormat(Report)
}

// Labels customizes user-visible strings in code block headers.
type Labels struct {
	// Plain labels code blocks whose language is neither declared nor detected.
	Plain string
	// Copy is the text of the code block copy trigger.
	Copy string
}

// Label defaults.
const (
	DefaultPlainLabel = "TEXT"
	DefaultCopyLabel  = "COPY"

	maxLabelLength = 32
)

// Validate checks that labels are short single-line strings.
// Empty fields are valid and select the defaults.
func (l Labels) Validate() error {
	for name, v := range map[string]string{"plain": l.Plain, "copy": l.Copy} {
		if utf8.RuneCountInString(v) > maxLabelLength {
			return fmt.Errorf("%w: %s label too long (max %d characters)", ErrInvalidLabel, name, maxLabelLength)
		}
		for _, r := range v {
			if r == '\n' || r == '\r' {
				return fmt.Errorf("%w: %s label must be a single line", ErrInvalidLabel, name)
			}
		}
	}
	return nil
}

func (l Labels) withDefaults() Labels {
	if l.Plain == "" {
		l.Plain = DefaultPlainLabel
	}
	if l.Copy == "" {
		l.Copy = DefaultCopyLabel
	}
	return l
}
