// Package clipboard implements the copy triggers of rendered responses.
//
// Both triggers read text from formatted HTML and hand it to a Writer.
// A missing target is not an error: the trigger does nothing and logs at
// debug level.
package clipboard

import (
	"strings"

	"github.com/atotto/clipboard"
	"github.com/k3a/html2text"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Copier copies code blocks and whole messages.
type Copier struct {
	// Writer receives the copied text. Defaults to the system clipboard.
	Writer func(string) error
	Logger logrus.FieldLogger
}

// New returns a Copier writing to the system clipboard.
func New(logger logrus.FieldLogger) *Copier {
	return &Copier{Writer: clipboard.WriteAll, Logger: logger}
}

// Available reports whether a system clipboard utility was found.
func Available() bool {
	return !clipboard.Unsupported
}

// CopyCode copies the literal text of the code block blockID.
func (c *Copier) CopyCode(fragment, blockID string) {
	log := c.logger().WithField("block", blockID)

	pre := findByID(fragment, blockID)
	if pre == nil || pre.DataAtom != atom.Pre {
		log.Debug("copy target not found")
		return
	}
	c.write(log, textContent(pre))
}

// CopyMessage copies the plain-text rendering of a whole message.
func (c *Copier) CopyMessage(fragment string) {
	log := c.logger().WithField("target", "message")

	text := strings.TrimSpace(html2text.HTML2TextWithOptions(fragment, html2text.WithUnixLineBreaks()))
	if text == "" {
		log.Debug("copy target empty")
		return
	}
	c.write(log, text)
}

func (c *Copier) write(log logrus.FieldLogger, text string) {
	w := c.Writer
	if w == nil {
		w = clipboard.WriteAll
	}
	if err := w(text); err != nil {
		log.WithError(err).Warn("clipboard write failed")
		return
	}
	log.WithField("bytes", len(text)).Debug("copied")
}

func (c *Copier) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

func findByID(fragment, id string) *html.Node {
	if id == "" {
		return nil
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return nil
	}

	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Namespace == "" && a.Key == "id" && a.Val == id {
					found = n
					return
				}
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return found
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return b.String()
}
