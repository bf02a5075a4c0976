package markdown

import (
	"bytes"
	"log/slog"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTML renders blocks as escaped markup: <h2>, <p> and <strong>.
func HTML(blocks []Block) string {
	var buf bytes.Buffer
	for _, b := range blocks {
		if err := html.Render(&buf, blockNode(b)); err != nil {
			// bytes.Buffer writes do not fail; keep whatever was rendered.
			slog.Debug("markdown: render block failed", "error", err)
		}
	}
	return buf.String()
}

// ToHTML renders text straight to markup.
func ToHTML(text string) string {
	return HTML(Render(text))
}

func blockNode(b Block) *html.Node {
	a := atom.P
	if b.Kind == Heading {
		a = atom.H2
	}
	n := element(a)
	for _, s := range b.Spans {
		text := &html.Node{Type: html.TextNode, Data: s.Text}
		if !s.Bold {
			n.AppendChild(text)
			continue
		}
		strong := element(atom.Strong)
		strong.AppendChild(text)
		n.AppendChild(strong)
	}
	return n
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}
