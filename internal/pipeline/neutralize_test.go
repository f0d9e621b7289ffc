package pipeline

import (
	"strings"
	"testing"
)

func TestLiveComponent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "style element", input: "<p>x</p><style>p{}</style>", expected: "style"},
		{name: "form element", input: `<FORM action="/x"><input></FORM>`, expected: "form"},
		{name: "escaped form in code", input: "<pre><code>&lt;form&gt;&lt;/form&gt;</code></pre>", expected: ""},
		{name: "form word in prose", input: "<p>fill the form and style it</p>", expected: ""},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := LiveComponent(tt.input); got != tt.expected {
				t.Errorf("LiveComponent(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNeutralize(t *testing.T) {
	t.Parallel()

	t.Run("clean fragment unchanged", func(t *testing.T) {
		t.Parallel()

		in := "<p>Hi <strong>there</strong></p>"
		got, component := Neutralize(in, in)
		if got != in || component != "" {
			t.Errorf("Neutralize() = %q, %q, want %q, %q", got, component, in, "")
		}
	})

	t.Run("form in parser output demotes sanitized fragment", func(t *testing.T) {
		t.Parallel()

		untrusted := `<p>Hi <strong>there</strong></p><form action="/x"><input name="a"></form>`
		sanitized := "<p>Hi <strong>there</strong></p>"
		got, component := Neutralize(untrusted, sanitized)
		if component != "form" {
			t.Errorf("Neutralize() component = %q, want %q", component, "form")
		}
		if strings.Contains(got, "<strong>") {
			t.Errorf("Neutralize() = %q, formatting must be discarded", got)
		}
		if !strings.Contains(got, "Hi there") {
			t.Errorf("Neutralize() = %q, want text %q", got, "Hi there")
		}
	})

	t.Run("style in sanitized fragment demotes", func(t *testing.T) {
		t.Parallel()

		sanitized := "<p>a &lt;b&gt; c</p><style>p{}</style>"
		got, component := Neutralize("", sanitized)
		if component != "style" {
			t.Errorf("Neutralize() component = %q, want %q", component, "style")
		}
		if !strings.Contains(got, "a &lt;b&gt; c") {
			t.Errorf("Neutralize() = %q, text must stay escaped", got)
		}
		if strings.Contains(got, "<style") {
			t.Errorf("Neutralize() = %q, must not contain a style element", got)
		}
	})
}

func TestTextToHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "paragraphs and breaks", input: "a\nb\n\nc", expected: "<p>a<br>b</p><p>c</p>"},
		{name: "escaped", input: `x < y & "z"`, expected: "<p>x &lt; y &amp; &quot;z&quot;</p>"},
		{name: "CRLF normalized", input: "a\r\n\r\nb", expected: "<p>a</p><p>b</p>"},
		{name: "blank lines with spaces", input: "a\n  \n\nb", expected: "<p>a</p><p>b</p>"},
		{name: "empty", input: "  \n ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := TextToHTML(tt.input); got != tt.expected {
				t.Errorf("TextToHTML(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
