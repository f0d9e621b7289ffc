package pipeline

import (
	"regexp"
	"strings"
)

// Precompiled regex patterns for performance.
var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Compress multiple blank lines to max 2
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)

	// Reasoning blocks emitted by "thinking" models. RE2 has no
	// backreferences, so each tag pair gets its own pattern.
	reasoningBlocks = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<thought>.*?</thought>`),
		regexp.MustCompile(`(?is)<reasoning>.*?</reasoning>`),
		regexp.MustCompile(`(?is)<think>.*?</think>`),
	}
)

// entityDecoder reverts the five entities models commonly pre-escape.
// &amp; is listed last so "&amp;lt;" yields "&lt;", not "<".
var entityDecoder = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&amp;", "&",
)

// Preprocessor prepares filtered model text for fence repair and parsing.
type Preprocessor struct {
	// DecodeEntities reverts pre-escaped entities so the markdown parser
	// alone decides what is markup.
	DecodeEntities bool
}

// Preprocess strips reasoning blocks, decodes entities, normalizes line
// endings and compresses blank lines outside fenced code.
func (p Preprocessor) Preprocess(content string) string {
	content = StripReasoning(content)
	if p.DecodeEntities {
		content = entityDecoder.Replace(content)
	}
	content = normalizeLineEndings(content)
	content = compressBlankLines(content)
	return content
}

// StripReasoning removes <thought>, <reasoning> and <think> blocks, then trims.
func StripReasoning(content string) string {
	for _, re := range reasoningBlocks {
		content = re.ReplaceAllString(content, "")
	}
	return strings.TrimSpace(content)
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// compressBlankLines limits consecutive blank lines to 2 maximum.
// Fenced regions are left untouched; code is literal.
func compressBlankLines(content string) string {
	spans := FenceSpans(content)
	if len(spans) == 0 {
		return multipleBlankLines.ReplaceAllString(content, "\n\n")
	}

	var sb strings.Builder
	sb.Grow(len(content))
	pos := 0
	for _, s := range spans {
		sb.WriteString(multipleBlankLines.ReplaceAllString(content[pos:s.Start], "\n\n"))
		sb.WriteString(content[s.Start:s.End])
		pos = s.End
	}
	sb.WriteString(multipleBlankLines.ReplaceAllString(content[pos:], "\n\n"))
	return sb.String()
}
