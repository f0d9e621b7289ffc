// Package chatfmt turns raw language-model completions into HTML that is
// safe to insert into a live chat document.
//
// # Quick Start
//
// Format a response with the shared default formatter:
//
//	html := chatfmt.FormatResponse(completion)
//	container.SetInnerHTML(html)
//
// Or build a formatter with options and inspect what was repaired:
//
//	f, err := chatfmt.NewFormatter(
//	    chatfmt.WithExtraRanges("U+1F600-U+1F64F"),
//	    chatfmt.WithLabels(chatfmt.Labels{Copy: "COPIAR"}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res := f.Format(completion)
//	fmt.Println(res.Report.FenceRepaired, len(res.Blocks))
//
// # Pipeline
//
// Each response goes through these stages, strictly in order:
//
//  1. Charset filtering: runes outside the Latin-script allow-list are dropped
//  2. Preprocessing: reasoning blocks removed, pre-escaped entities decoded
//  3. Fence repair: an odd number of ``` markers gets a closing fence
//  4. Tag balancing: open div, span, p, section and article elements are closed
//  5. Markdown to HTML via goldmark (GFM, no hard wraps)
//  6. Sanitization via a bluemonday allow-list policy
//  7. Orphan inline text wrapped in paragraphs
//  8. Reserved host class names prefixed with "ai-" in model markup
//  9. Neutralization: a live form or style demotes the message to plain text
//
// Code blocks are rendered with a header holding the language label and a
// copy trigger:
//
//	<div class="code-block" data-block="code-…">
//	  <div class="code-header" data-block="code-…">
//	    <span class="code-lang" data-block="code-…">GO</span>
//	    <button type="button" class="copy-btn" data-copy="code" data-copy-target="code-…" data-block="code-…">COPY</button>
//	  </div>
//	  <pre id="code-…"><code>escaped content</code></pre>
//	</div>
//
// No inline event handler is ever emitted. Hosts attach one delegated click
// listener and dispatch on the data-copy attribute ("code" or "message").
//
// # Concurrency
//
// A Formatter is immutable after construction. One instance can serve any
// number of goroutines.
package chatfmt
