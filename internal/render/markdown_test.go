package render

import (
	"strings"
	"testing"
)

func TestMarkdownHTML(t *testing.T) {
	md := NewMarkdown()

	got := md.HTML("**Try** this:\n\n- base case\n- recursive case")
	for _, want := range []string{"<strong>Try</strong>", "<li>base case</li>"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestMarkdownDropsRawHTML(t *testing.T) {
	got := NewMarkdown().HTML("hello <script>alert(1)</script>")
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML passed through: %s", got)
	}
}

func TestMarkdownTables(t *testing.T) {
	got := NewMarkdown().HTML("| a | b |\n|---|---|\n| 1 | 2 |")
	if !strings.Contains(got, "<table>") {
		t.Errorf("GFM table not rendered: %s", got)
	}
}
