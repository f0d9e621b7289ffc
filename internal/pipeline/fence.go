package pipeline

import "strings"

// FenceMarker delimits fenced code regions.
const FenceMarker = "```"

// FenceSpan is a region of text delimited by fence marker lines.
// Start and End are byte offsets. End follows the closing marker line,
// excluding its newline, or is len(text) when the fence is unclosed.
type FenceSpan struct {
	Start  int
	End    int
	Info   string // language tag, possibly empty
	Closed bool
}

// RepairFences closes a dangling code fence. When the number of fence markers
// is odd, a closing marker is appended on its own line. It never opens a
// block: truncated streams end inside a block far more often than outside.
// The boolean reports whether a marker was appended.
func RepairFences(text string) (string, bool) {
	if strings.Count(text, FenceMarker)%2 == 0 {
		return text, false
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text + FenceMarker, true
}

// FenceSpans scans text line by line and returns its fenced regions.
// An opening line starts with the marker after optional indentation; the
// first later line starting with the marker closes it.
func FenceSpans(text string) []FenceSpan {
	var spans []FenceSpan
	var open *FenceSpan

	pos := 0
	for pos < len(text) {
		end := strings.IndexByte(text[pos:], '\n')
		next := len(text)
		if end >= 0 {
			next = pos + end + 1
		}
		line := strings.TrimRight(text[pos:next], "\r\n")
		trimmed := strings.TrimLeft(line, " \t")

		if strings.HasPrefix(trimmed, FenceMarker) {
			if open == nil {
				open = &FenceSpan{
					Start: pos,
					Info:  strings.TrimSpace(strings.TrimLeft(trimmed, "`")),
				}
			} else {
				open.End = pos + len(line)
				open.Closed = true
				spans = append(spans, *open)
				open = nil
			}
		}
		pos = next
	}

	if open != nil {
		open.End = len(text)
		spans = append(spans, *open)
	}
	return spans
}
