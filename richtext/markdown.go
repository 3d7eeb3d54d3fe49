package richtext

import (
	"html"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

const markdownExtensions = parser.CommonExtensions | parser.NoEmptyLineBeforeBlock

var htmlPolicy = newHTMLPolicy()

func newHTMLPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("strong", "em", "u", "del", "br", "span")
	p.AllowStyles("color").Matching(regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)).OnElements("span")
	return p
}

// namedColors maps the legacy named chat colors to CSS.
var namedColors = map[string]string{
	"black":        "#000000",
	"dark_blue":    "#0000aa",
	"dark_green":   "#00aa00",
	"dark_aqua":    "#00aaaa",
	"dark_red":     "#aa0000",
	"dark_purple":  "#aa00aa",
	"gold":         "#ffaa00",
	"gray":         "#aaaaaa",
	"dark_gray":    "#555555",
	"blue":         "#5555ff",
	"green":        "#55ff55",
	"aqua":         "#55ffff",
	"red":          "#ff5555",
	"light_purple": "#ff55ff",
	"yellow":       "#ffff55",
	"white":        "#ffffff",
}

func cssColor(c string) string {
	if hex, ok := namedColors[strings.ToLower(c)]; ok {
		return hex
	}
	if strings.HasPrefix(c, "#") && len(c) == 7 {
		return c
	}
	return ""
}

// FromMarkdown converts inline Markdown into a component. Emphasis, strong
// emphasis and strikethrough become style flags; paragraphs are joined with
// newlines. Everything else is kept as plain text.
func FromMarkdown(src string) Text {
	doc := parser.NewWithExtensions(markdownExtensions).Parse([]byte(norm.NFC.String(src)))

	b := &builder{}
	b.walk(doc, Text{})
	b.trim()

	switch len(b.runs) {
	case 0:
		return Text{}
	case 1:
		return b.runs[0]
	}
	return Text{Extra: b.runs}
}

type builder struct {
	runs []Text
}

func (b *builder) add(s string, style Text) {
	if s == "" {
		return
	}
	if n := len(b.runs); n > 0 && sameStyle(b.runs[n-1], style) {
		b.runs[n-1].Text += s
		return
	}
	style.Text = s
	style.Extra = nil
	b.runs = append(b.runs, style)
}

func (b *builder) block() {
	n := len(b.runs)
	if n == 0 || strings.HasSuffix(b.runs[n-1].Text, "\n") {
		return
	}
	b.add("\n", Text{})
}

func (b *builder) trim() {
	for n := len(b.runs); n > 0; n = len(b.runs) {
		last := &b.runs[n-1]
		last.Text = strings.TrimRight(last.Text, "\n")
		if last.Text != "" {
			return
		}
		b.runs = b.runs[:n-1]
	}
}

func (b *builder) walk(n ast.Node, style Text) {
	switch n := n.(type) {
	case *ast.Emph:
		style.Italic = true
	case *ast.Strong:
		style.Bold = true
	case *ast.Del:
		style.Strikethrough = true
	case *ast.Softbreak, *ast.Hardbreak:
		b.add("\n", style)
		return
	case *ast.Paragraph, *ast.Heading, *ast.ListItem, *ast.CodeBlock:
		b.block()
	case *ast.Text:
		b.add(string(n.Literal), style)
		return
	}

	if leaf := n.AsLeaf(); leaf != nil {
		b.add(strings.TrimRight(string(leaf.Literal), "\n"), style)
		return
	}
	for _, child := range n.GetChildren() {
		b.walk(child, style)
	}
}

func sameStyle(a, b Text) bool {
	return a.Color == b.Color && a.Bold == b.Bold && a.Italic == b.Italic &&
		a.Underlined == b.Underlined && a.Strikethrough == b.Strikethrough
}

// HTML renders t as sanitized HTML for display surfaces.
func (t Text) HTML() string {
	var b strings.Builder
	t.writeHTML(&b)
	return htmlPolicy.Sanitize(b.String())
}

func (t Text) writeHTML(b *strings.Builder) {
	var closers []string
	open := func(tag, attrs string) {
		b.WriteString("<" + tag + attrs + ">")
		closers = append(closers, "</"+tag+">")
	}

	if c := cssColor(t.Color); c != "" {
		open("span", ` style="color: `+c+`"`)
	}
	if t.Bold {
		open("strong", "")
	}
	if t.Italic {
		open("em", "")
	}
	if t.Underlined {
		open("u", "")
	}
	if t.Strikethrough {
		open("del", "")
	}

	b.WriteString(strings.ReplaceAll(html.EscapeString(t.Text), "\n", "<br>"))
	for _, c := range t.Extra {
		c.writeHTML(b)
	}

	for i := len(closers) - 1; i >= 0; i-- {
		b.WriteString(closers[i])
	}
}
