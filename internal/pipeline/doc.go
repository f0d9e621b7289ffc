// Package pipeline implements the stages that turn model output into a
// fragment safe to insert into a live chat document.
//
// The stages, in the order the root chatfmt package runs them:
//   - Charset filtering (Latin-script allow-list, trim)
//   - Preprocessing (reasoning blocks, pre-escaped entities, line endings)
//   - Fence repair and container tag balancing
//   - Markdown to HTML via goldmark with a custom code block renderer
//   - Allow-list sanitization via bluemonday
//   - Orphan inline wrapping, reserved class remapping
//   - Neutralization of residual form and style elements
//
// Every stage is a pure function of its input or a method on a value that
// is immutable after construction, so all of them are safe for concurrent
// use. Code block content is escaped by the renderer and is never parsed
// again as markup by any later stage.
package pipeline
