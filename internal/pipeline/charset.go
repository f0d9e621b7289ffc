package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalidCharRange indicates a character range specification could not be parsed.
var ErrInvalidCharRange = errors.New("invalid character range")

// CharRange is an inclusive interval of code points.
type CharRange struct {
	Lo rune
	Hi rune
}

// DefaultCharRanges is the Latin-script output policy: Latin letters with their
// diacritics, ASCII digits and punctuation, and a small set of typographic,
// currency, arrow, math and box-drawing symbols.
var DefaultCharRanges = []CharRange{
	{0x0009, 0x000A}, // tab, line feed
	{0x000D, 0x000D}, // carriage return
	{0x0020, 0x007E}, // ASCII printable
	{0x00A0, 0x00AC}, // Latin-1 Supplement up to the soft hyphen
	{0x00AE, 0x024F}, // rest of Latin-1 Supplement, Latin Extended-A and B
	{0x0300, 0x036F}, // combining diacritical marks
	{0x1E00, 0x1EFF}, // Latin Extended Additional
	{0x2010, 0x2027}, // dashes, curly quotes, bullet, ellipsis
	{0x2030, 0x205E}, // per mille, primes, single guillemets
	{0x20A0, 0x20C0}, // currency symbols
	{0x2100, 0x214F}, // letterlike symbols
	{0x2190, 0x21FF}, // arrows
	{0x2200, 0x22FF}, // mathematical operators
	{0x2500, 0x257F}, // box drawing
	{0x2713, 0x2717}, // check and cross marks
}

// CharsetFilter drops every rune outside an allow-list of code point ranges.
// It is immutable after construction and safe for concurrent use.
type CharsetFilter struct {
	ranges   []CharRange // sorted, merged
	disabled bool
}

// NewCharsetFilter builds a filter allowing DefaultCharRanges plus extra.
func NewCharsetFilter(extra ...CharRange) *CharsetFilter {
	all := make([]CharRange, 0, len(DefaultCharRanges)+len(extra))
	all = append(all, DefaultCharRanges...)
	all = append(all, extra...)
	return &CharsetFilter{ranges: mergeRanges(all)}
}

// NewPassthroughFilter returns a filter that keeps every rune. It still trims.
func NewPassthroughFilter() *CharsetFilter {
	return &CharsetFilter{disabled: true}
}

// Filter removes disallowed runes and trims surrounding whitespace.
// It returns the filtered text and the number of runes dropped.
// Invalid UTF-8 decodes to U+FFFD, which is never allowed, so malformed
// byte sequences are dropped too.
func (f *CharsetFilter) Filter(text string) (string, int) {
	var sb strings.Builder
	sb.Grow(len(text))
	dropped := 0

	for _, r := range text {
		if !f.Allows(r) {
			dropped++
			continue
		}
		sb.WriteRune(r)
	}

	return strings.TrimSpace(sb.String()), dropped
}

// Allows reports whether r is inside one of the allowed ranges.
func (f *CharsetFilter) Allows(r rune) bool {
	if f.disabled {
		return true
	}
	_, found := slices.BinarySearchFunc(f.ranges, r, func(cr CharRange, target rune) int {
		switch {
		case cr.Hi < target:
			return -1
		case cr.Lo > target:
			return 1
		default:
			return 0
		}
	})
	return found
}

// mergeRanges sorts ranges and coalesces overlapping or adjacent intervals.
func mergeRanges(in []CharRange) []CharRange {
	if len(in) == 0 {
		return nil
	}
	sorted := slices.Clone(in)
	slices.SortFunc(sorted, func(a, b CharRange) int {
		return int(a.Lo - b.Lo)
	})

	out := []CharRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if r.Lo <= last.Hi+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// ParseCharRange parses "U+1F600-U+1F64F", "1F600-1F64F" or a single code
// point such as "U+2764". Hex digits are case-insensitive.
func ParseCharRange(spec string) (CharRange, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return CharRange{}, fmt.Errorf("%w: empty", ErrInvalidCharRange)
	}

	loStr, hiStr, isRange := strings.Cut(spec, "-")
	lo, err := parseCodePoint(loStr)
	if err != nil {
		return CharRange{}, fmt.Errorf("%w: %q: %v", ErrInvalidCharRange, spec, err)
	}
	hi := lo
	if isRange {
		hi, err = parseCodePoint(hiStr)
		if err != nil {
			return CharRange{}, fmt.Errorf("%w: %q: %v", ErrInvalidCharRange, spec, err)
		}
	}
	if hi < lo {
		return CharRange{}, fmt.Errorf("%w: %q: end before start", ErrInvalidCharRange, spec)
	}
	return CharRange{Lo: lo, Hi: hi}, nil
}

func parseCodePoint(s string) (rune, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "U+"), "u+")
	if s == "" {
		return 0, errors.New("missing code point")
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	if v > 0x10FFFF {
		return 0, errors.New("code point out of range")
	}
	return rune(v), nil
}
