package chatfmt

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"

	"github.com/alnah/go-chatfmt/internal/pipeline"
)

// Formatter turns raw model completions into safe HTML fragments.
// It is immutable after NewFormatter and safe for concurrent use.
type Formatter struct {
	cfg       formatterConfig
	charset   *pipeline.CharsetFilter
	pre       pipeline.Preprocessor
	converter *pipeline.MarkdownConverter
	policy    *bluemonday.Policy
	remap     pipeline.ClassRemapTable
}

// NewFormatter builds every pipeline stage once.
// Returns an error if an option carries an invalid character range or label.
func NewFormatter(opts ...Option) (*Formatter, error) {
	f := &Formatter{
		cfg: formatterConfig{
			newID:  pipeline.NewBlockID,
			logger: logrus.StandardLogger(),
		},
	}

	for _, opt := range opts {
		opt(f)
	}

	if err := f.cfg.labels.Validate(); err != nil {
		return nil, err
	}
	labels := f.cfg.labels.withDefaults()

	if f.cfg.charsetOff {
		f.charset = pipeline.NewPassthroughFilter()
	} else {
		extra := make([]pipeline.CharRange, 0, len(f.cfg.extraRanges))
		for _, spec := range f.cfg.extraRanges {
			r, err := pipeline.ParseCharRange(spec)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidCharRange, err)
			}
			extra = append(extra, r)
		}
		f.charset = pipeline.NewCharsetFilter(extra...)
	}

	f.pre = pipeline.Preprocessor{DecodeEntities: !f.cfg.keepEntities}
	f.converter = pipeline.NewMarkdownConverter(pipeline.ConverterOptions{
		Sniffer:   pipeline.NewLanguageSniffer(labels.Plain),
		NewID:     f.cfg.newID,
		CopyLabel: labels.Copy,
	})
	f.policy = pipeline.NewPolicy()
	f.remap = pipeline.DefaultClassRemapTable()

	return f, nil
}

// FormatResponse runs the full pipeline and returns the HTML fragment.
// Empty input yields an empty string.
func (f *Formatter) FormatResponse(raw string) string {
	return f.Format(raw).HTML
}

// Format runs the full pipeline and reports what it repaired.
// It never panics: an internal failure falls back to the escaped text of
// the filtered input.
func (f *Formatter) Format(raw string) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			f.cfg.logger.WithField("panic", r).Error("formatting failed, falling back to plain text")
			res = Result{HTML: f.fallback(raw)}
			res.Report.Neutralized = true
			res.Report.NeutralizedBy = "panic"
		}
		res.Report.Duration = time.Since(start)
		f.observe(res.Report)
	}()

	return f.run(raw)
}

func (f *Formatter) run(raw string) Result {
	var report Report

	text, dropped := f.charset.Filter(raw)
	report.DroppedRunes = dropped

	text = f.pre.Preprocess(text)
	if text == "" {
		return Result{Report: report}
	}

	text, report.FenceRepaired = pipeline.RepairFences(text)
	text, report.TagsClosed = pipeline.BalanceTags(text)

	untrusted, blocks, err := f.converter.ToHTML(text)
	if err != nil {
		f.cfg.logger.WithError(err).Error("markdown conversion failed, falling back to plain text")
		return Result{HTML: pipeline.TextToHTML(text), Report: report}
	}

	safe := pipeline.Sanitize(f.policy, untrusted)
	// Re-serialized from a parsed tree: every element is closed from here on.
	safe = pipeline.WrapOrphans(safe)

	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}
	safe = f.remap.Remap(safe, ids...)

	safe, component := pipeline.Neutralize(untrusted, safe)
	if component != "" {
		report.Neutralized = true
		report.NeutralizedBy = component
		f.cfg.logger.WithFields(logrus.Fields{
			"component":  component,
			"codeBlocks": len(blocks),
		}).Warn("live component in response, rendered as plain text")
		return Result{HTML: safe, Report: report}
	}

	report.CodeBlocks = len(blocks)
	return Result{
		HTML:   strings.TrimSpace(safe),
		Blocks: toCodeBlocks(blocks),
		Report: report,
	}
}

// fallback renders raw as escaped text. The charset filter still applies.
func (f *Formatter) fallback(raw string) string {
	text, _ := f.charset.Filter(raw)
	return pipeline.TextToHTML(text)
}

func (f *Formatter) observe(r Report) {
	f.cfg.logger.WithFields(logrus.Fields{
		"duration":      r.Duration,
		"droppedRunes":  r.DroppedRunes,
		"fenceRepaired": r.FenceRepaired,
		"tagsClosed":    r.TagsClosed,
		"codeBlocks":    r.CodeBlocks,
		"neutralized":   r.Neutralized,
	}).Debug("response formatted")

	if f.cfg.observer != nil {
		f.cfg.observer.ObserveFormat(r)
	}
}

// toCodeBlocks converts internal code blocks to the public type.
func toCodeBlocks(in []pipeline.CodeBlock) []CodeBlock {
	if len(in) == 0 {
		return nil
	}
	out := make([]CodeBlock, len(in))
	for i, b := range in {
		out[i] = CodeBlock(b)
	}
	return out
}

var (
	defaultOnce      sync.Once
	defaultFormatter *Formatter
)

// Default returns the shared Formatter with default options.
func Default() *Formatter {
	defaultOnce.Do(func() {
		f, err := NewFormatter()
		if err != nil {
			panic("chatfmt: default formatter: " + err.Error())
		}
		defaultFormatter = f
	})
	return defaultFormatter
}

// FormatResponse formats raw with the default Formatter.
func FormatResponse(raw string) string {
	return Default().FormatResponse(raw)
}
