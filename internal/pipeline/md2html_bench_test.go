//go:build bench

package pipeline

import (
	"fmt"
	"strings"
	"testing"
)

// BenchmarkMarkdownToHTML benchmarks markdown to HTML conversion.
// This is the core conversion step in the pipeline.
func BenchmarkMarkdownToHTML(b *testing.B) {
	converter := NewMarkdownConverter(ConverterOptions{})

	inputs := []struct {
		name    string
		content string
	}{
		{"minimal", "# Hello\n\nWorld"},
		{"paragraph", strings.Repeat("This is a paragraph with some text.\n\n", 10)},
		{"headings", generateHeadingsMarkdown(20)},
		{"code_blocks", generateCodeBlocksMarkdown(10)},
		{"tables", generateTablesMarkdown(5)},
		{"mixed_small", generateMixedMarkdown(10)},
		{"mixed_medium", generateMixedMarkdown(50)},
		{"mixed_large", generateMixedMarkdown(200)},
	}

	for _, input := range inputs {
		b.Run(input.name, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				result, _, err := converter.ToHTML(input.content)
				if err != nil {
					b.Fatal(err)
				}
				_ = result
			}
		})
	}
}

// BenchmarkMarkdownToHTMLBySize benchmarks conversion scaling with input size.
func BenchmarkMarkdownToHTMLBySize(b *testing.B) {
	converter := NewMarkdownConverter(ConverterOptions{})

	sizes := []int{1, 10, 50, 100, 500}

	for _, size := range sizes {
		content := generateMixedMarkdown(size)
		b.Run(fmt.Sprintf("sections_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				result, _, err := converter.ToHTML(content)
				if err != nil {
					b.Fatal(err)
				}
				_ = result
			}
		})
	}
}

// BenchmarkMarkdownToHTMLParallel benchmarks concurrent HTML conversion
// against one shared converter.
func BenchmarkMarkdownToHTMLParallel(b *testing.B) {
	converter := NewMarkdownConverter(ConverterOptions{})
	content := generateMixedMarkdown(20)

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			result, _, err := converter.ToHTML(content)
			if err != nil {
				b.Fatal(err)
			}
			_ = result
		}
	})
}

// BenchmarkSanitize benchmarks the allow-list policy on converter output,
// with and without hostile raw HTML mixed in.
func BenchmarkSanitize(b *testing.B) {
	converter := NewMarkdownConverter(ConverterOptions{})
	policy := NewPolicy()

	inputs := []struct {
		name    string
		content string
	}{
		{"clean", generateMixedMarkdown(20)},
		{"hostile", generateHostileMarkdown(20)},
	}

	for _, input := range inputs {
		fragment, _, err := converter.ToHTML(input.content)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(input.name, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_ = Sanitize(policy, fragment)
			}
		})
	}
}

// BenchmarkPostSanitizeStages benchmarks wrapping, remapping and
// neutralization on a sanitized fragment.
func BenchmarkPostSanitizeStages(b *testing.B) {
	converter := NewMarkdownConverter(ConverterOptions{})
	policy := NewPolicy()
	table := DefaultClassRemapTable()

	untrusted, blocks, err := converter.ToHTML(generateHostileMarkdown(20))
	if err != nil {
		b.Fatal(err)
	}
	ids := make([]string, len(blocks))
	for i, blk := range blocks {
		ids[i] = blk.ID
	}
	safe := Sanitize(policy, untrusted)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		out := WrapOrphans(safe)
		out = table.Remap(out, ids...)
		out, _ = Neutralize(untrusted, out)
		_ = out
	}
}

// Helper functions for generating benchmark input

func generateHeadingsMarkdown(count int) string {
	var sb strings.Builder
	for i := 0; i < count; i++ {
		level := (i % 6) + 1
		sb.WriteString(strings.Repeat("#", level))
		sb.WriteString(fmt.Sprintf(" Heading %d\n\n", i+1))
		sb.WriteString("Some content under this heading.\n\n")
	}
	return sb.String()
}

func generateCodeBlocksMarkdown(count int) string {
	var sb strings.Builder
	code := `func example() {
    fmt.Println("Hello, World!")
    for i := 0; i < 10; i++ {
        process(i)
    }
}`
	for i := 0; i < count; i++ {
		sb.WriteString("## Code Example\n\n")
		sb.WriteString("```go\n")
		sb.WriteString(code)
		sb.WriteString("\n```\n\n")
	}
	return sb.String()
}

func generateTablesMarkdown(count int) string {
	var sb strings.Builder
	for i := 0; i < count; i++ {
		sb.WriteString("## Table Section\n\n")
		sb.WriteString("| Column 1 | Column 2 | Column 3 | Column 4 |\n")
		sb.WriteString("|----------|----------|----------|----------|\n")
		for j := 0; j < 10; j++ {
			sb.WriteString(fmt.Sprintf("| Cell %d-1 | Cell %d-2 | Cell %d-3 | Cell %d-4 |\n", j, j, j, j))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func generateMixedMarkdown(sections int) string {
	var sb strings.Builder
	sb.WriteString("# Document Title\n\n")
	sb.WriteString("Introduction paragraph with **bold** and *italic* text.\n\n")

	for i := 0; i < sections; i++ {
		sb.WriteString(fmt.Sprintf("## Section %d\n\n", i+1))
		sb.WriteString("This is a paragraph with some content. ")
		sb.WriteString("It includes [links](https://example.com) and `inline code`.\n\n")

		// Add a list
		sb.WriteString("- Item one\n")
		sb.WriteString("- Item two\n")
		sb.WriteString("- Item three\n\n")

		// Add code block every 3rd section
		if i%3 == 0 {
			sb.WriteString("```go\nfunc main() {\n    fmt.Println(\"Hello\")\n}\n```\n\n")
		}

		// Add table every 5th section
		if i%5 == 0 {
			sb.WriteString("| A | B | C |\n|---|---|---|\n| 1 | 2 | 3 |\n\n")
		}
	}

	return sb.String()
}

func generateHostileMarkdown(sections int) string {
	var sb strings.Builder
	for i := 0; i < sections; i++ {
		sb.WriteString(fmt.Sprintf("## Section %d\n\n", i+1))
		sb.WriteString("<div class=\"sidebar header\" onclick=\"steal()\">Boxed <span>text</span></div>\n\n")
		sb.WriteString("<script>alert(1)</script>Hola\n\n")
		sb.WriteString("[link](javascript:alert(1)) and <img src=x onerror=alert(1)>\n\n")
		sb.WriteString("```\n<!DOCTYPE html>\n<script>alert(1)</script>\n```\n\n")
	}
	return sb.String()
}
