package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// DefaultCopyLabel is the text of the copy trigger in a code block header.
const DefaultCopyLabel = "COPY"

// CodeBlock is one fenced or indented block as rendered: its generated
// identifier, its display label and its literal content.
type CodeBlock struct {
	ID      string
	Label   string
	Content string
}

// Node attributes carrying block metadata from the AST walk to the renderer.
// The code renderer never writes node attributes, so they stay internal.
const (
	attrBlockID    = "chatfmt-block-id"
	attrBlockLabel = "chatfmt-block-label"
)

// NewBlockID returns "code-" followed by a random UUID.
func NewBlockID() string {
	return "code-" + uuid.NewString()
}

// ConverterOptions configures a MarkdownConverter.
type ConverterOptions struct {
	Sniffer   *LanguageSniffer // nil selects the default sniffer
	NewID     func() string    // nil selects NewBlockID
	CopyLabel string           // empty selects DefaultCopyLabel
}

// MarkdownConverter converts markdown to an HTML fragment using goldmark
// with GitHub-flavored extensions and a custom code block renderer.
// It holds no per-call state and is safe for concurrent use.
type MarkdownConverter struct {
	md      goldmark.Markdown
	sniffer *LanguageSniffer
	newID   func() string
}

// NewMarkdownConverter builds the goldmark instance once.
// Raw HTML is passed through (WithUnsafe) because every fragment goes
// through the sanitizer afterwards.
func NewMarkdownConverter(opts ConverterOptions) *MarkdownConverter {
	if opts.Sniffer == nil {
		opts.Sniffer = NewLanguageSniffer("")
	}
	if opts.NewID == nil {
		opts.NewID = NewBlockID
	}
	if opts.CopyLabel == "" {
		opts.CopyLabel = DefaultCopyLabel
	}

	code := &codeBlockRenderer{
		sniffer:   opts.Sniffer,
		newID:     opts.NewID,
		copyLabel: opts.CopyLabel,
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.NewTable(extension.WithTableCellAlignMethod(extension.TableCellAlignAttribute)),
			extension.Strikethrough,
			extension.Linkify,
			extension.TaskList,
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(code, 100)),
		),
	)
	return &MarkdownConverter{md: md, sniffer: opts.Sniffer, newID: opts.NewID}
}

// ToHTML converts markdown to an HTML fragment. It returns the code blocks
// in document order; their IDs appear in the fragment.
func (c *MarkdownConverter) ToHTML(content string) (string, []CodeBlock, error) {
	src := []byte(content)
	doc := c.md.Parser().Parse(text.NewReader(src))

	var blocks []CodeBlock
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var declared string
		switch node := n.(type) {
		case *ast.FencedCodeBlock:
			declared = string(node.Language(src))
		case *ast.CodeBlock:
		default:
			return ast.WalkContinue, nil
		}

		body := codeText(n, src)
		b := CodeBlock{
			ID:      c.newID(),
			Label:   c.sniffer.Sniff(body, declared),
			Content: body,
		}
		n.SetAttributeString(attrBlockID, b.ID)
		n.SetAttributeString(attrBlockLabel, b.Label)
		blocks = append(blocks, b)
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}

	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, src, doc); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	return buf.String(), blocks, nil
}

// codeText joins a code block's lines and drops the single trailing newline
// goldmark keeps, so the rendered text equals the block content.
func codeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// codeEscaper escapes the five characters significant in HTML.
var codeEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeText escapes & < > " and ' for literal embedding in HTML.
func EscapeText(s string) string {
	return codeEscaper.Replace(s)
}

// codeBlockRenderer renders fenced and indented code blocks as a header
// with a language label and copy trigger above an escaped <pre><code>.
// Every chrome element carries data-block so later stages can tell
// pipeline markup from model markup.
type codeBlockRenderer struct {
	sniffer   *LanguageSniffer
	newID     func() string
	copyLabel string
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderCode)
	reg.Register(ast.KindCodeBlock, r.renderCode)
}

func (r *codeBlockRenderer) renderCode(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	body := codeText(n, source)
	id, label := r.blockMeta(n, source, body)
	eid := EscapeText(id)

	_, _ = w.WriteString(`<div class="code-block" data-block="` + eid + `">`)
	_, _ = w.WriteString(`<div class="code-header" data-block="` + eid + `">`)
	_, _ = w.WriteString(`<span class="code-lang" data-block="` + eid + `">` + EscapeText(label) + `</span>`)
	_, _ = w.WriteString(`<button type="button" class="copy-btn" data-copy="code" data-copy-target="` + eid + `" data-block="` + eid + `">`)
	_, _ = w.WriteString(EscapeText(r.copyLabel) + `</button></div>`)
	_, _ = w.WriteString(`<pre id="` + eid + `"><code>` + EscapeText(body) + `</code></pre></div>` + "\n")
	return ast.WalkSkipChildren, nil
}

// blockMeta reads the metadata assigned during the AST walk, falling back
// to fresh values when the node was rendered without one.
func (r *codeBlockRenderer) blockMeta(n ast.Node, source []byte, body string) (string, string) {
	id, idOK := n.AttributeString(attrBlockID)
	label, labelOK := n.AttributeString(attrBlockLabel)
	if idOK && labelOK {
		if ids, ok := id.(string); ok {
			if labels, ok := label.(string); ok {
				return ids, labels
			}
		}
	}

	var declared string
	if fcb, ok := n.(*ast.FencedCodeBlock); ok {
		declared = string(fcb.Language(source))
	}
	return r.newID(), r.sniffer.Sniff(body, declared)
}
