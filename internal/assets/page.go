package assets

import (
	"fmt"
	"html/template"
	"io"
)

// Page renders the chat page around formatted responses.
// It is safe for concurrent use.
type Page struct {
	tmpl *template.Template
	css  template.CSS
}

// PageData is the input of Page.Render.
type PageData struct {
	Title       string
	Lang        string // default "en"
	ChatID      string
	CopyLabel   string
	Interactive bool // sidebar, composer and warm-up controls
	Chats       []ChatLink
	Messages    []Message
}

// ChatLink is one entry of the sidebar.
type ChatLink struct {
	ID    string
	Title string
}

// Message is one rendered chat turn. User turns are escaped text; AI turns
// carry the formatter's sanitized fragment.
type Message struct {
	Role string // "user" or "ai"
	Text string
	HTML template.HTML
}

// NewPage loads and parses the named style and template.
func NewPage(loader AssetLoader, styleName, templateName string) (*Page, error) {
	css, err := loader.LoadStyle(styleName)
	if err != nil {
		return nil, err
	}
	src, err := loader.LoadTemplate(templateName)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(templateName).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	// #nosec G203 -- stylesheet comes from the binary or the operator's asset dir
	return &Page{tmpl: tmpl, css: template.CSS(css)}, nil
}

// Render writes the page to w.
func (p *Page) Render(w io.Writer, data PageData) error {
	if data.Lang == "" {
		data.Lang = "en"
	}
	return p.tmpl.Execute(w, struct {
		PageData
		CSS template.CSS
	}{data, p.css})
}

// TrustedFragment marks a formatter result as safe for the page template.
// Only pass strings produced by the chatfmt pipeline.
func TrustedFragment(fragment string) template.HTML {
	return template.HTML(fragment) // #nosec G203 -- sanitized by chatfmt
}
