package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var renderer = goldmark.New(goldmark.WithExtensions(extension.Table))

// ToHTML converts a rendered Markdown report to an HTML fragment. The table
// extension is required because every report section is table-heavy.
func ToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// CleanMarkdown strips outer wrapping code fences so pasted or templated
// fragments render as Markdown instead of a literal code block.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)
	if strings.HasPrefix(cleaned, "```") && strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```markdown")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned
}

// ValidateMarkdown checks that the input parses. Goldmark is permissive, so
// this only catches structurally broken documents.
func ValidateMarkdown(input string) bool {
	doc := goldmark.DefaultParser().Parse(text.NewReader([]byte(input)))
	return doc != nil
}
