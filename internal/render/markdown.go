// File: internal/render/markdown.go
package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Markdown renders message text to HTML. Raw HTML in the source is dropped,
// so model output cannot inject markup.
type Markdown struct {
	md goldmark.Markdown
}

func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// HTML renders src. On a rendering error the text is returned escaped.
func (m *Markdown) HTML(src string) string {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src), &buf); err != nil {
		buf.Reset()
		buf.WriteString("<p>")
		buf.Write(util.EscapeHTML([]byte(src)))
		buf.WriteString("</p>")
	}
	return buf.String()
}
