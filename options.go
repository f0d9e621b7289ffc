package chatfmt

import "github.com/sirupsen/logrus"

// Option configures a Formatter.
type Option func(*Formatter)

// formatterConfig holds internal configuration for Formatter.
type formatterConfig struct {
	extraRanges  []string
	charsetOff   bool
	keepEntities bool
	labels       Labels
	newID        func() string
	logger       logrus.FieldLogger
	observer     Observer
}

// WithExtraRanges widens the character allow-list. Each spec is a code
// point or an inclusive range: "U+2764", "U+1F600-U+1F64F", "1F300-1F5FF".
// Invalid specs make NewFormatter fail with ErrInvalidCharRange.
func WithExtraRanges(specs ...string) Option {
	return func(f *Formatter) {
		f.cfg.extraRanges = append(f.cfg.extraRanges, specs...)
	}
}

// WithoutCharsetFilter disables the character allow-list.
// Input is still trimmed.
func WithoutCharsetFilter() Option {
	return func(f *Formatter) {
		f.cfg.charsetOff = true
	}
}

// WithoutEntityDecoding keeps pre-escaped entities such as &lt; as text
// instead of handing them back to the markdown parser as markup.
func WithoutEntityDecoding() Option {
	return func(f *Formatter) {
		f.cfg.keepEntities = true
	}
}

// WithLabels sets the code block header labels. Empty fields keep defaults.
func WithLabels(l Labels) Option {
	return func(f *Formatter) {
		f.cfg.labels = l
	}
}

// WithIDGenerator replaces the code block identifier source.
// Generated IDs must match "code-" followed by letters, digits or dashes,
// and must be unique within a response.
// Panics if gen is nil (programmer error).
func WithIDGenerator(gen func() string) Option {
	if gen == nil {
		panic("chatfmt: WithIDGenerator requires a non-nil generator")
	}
	return func(f *Formatter) {
		f.cfg.newID = gen
	}
}

// WithLogger sets the logger. The default is logrus.StandardLogger().
func WithLogger(l logrus.FieldLogger) Option {
	return func(f *Formatter) {
		if l != nil {
			f.cfg.logger = l
		}
	}
}

// WithObserver registers an observer notified after every response.
func WithObserver(o Observer) Option {
	return func(f *Formatter) {
		f.cfg.observer = o
	}
}
