package view

import (
	"bytes"
	"log"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// goldmark drops raw HTML from the source unless WithUnsafe is set
var md = goldmark.New(goldmark.WithExtensions(extension.Linkify))

// Markdown renders src into a div. On failure the source is shown as plain text.
func Markdown(src string) *html.Node {
	box := Elem("div", Attrs("class", "markdown"))

	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		log.Printf("⚠️  Markdown render failed: %v", err)
		box.AppendChild(Elem("pre", nil, Text(src)))
		return box
	}

	nodes, err := html.ParseFragment(&buf, &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"})
	if err != nil {
		log.Printf("⚠️  Markdown parse failed: %v", err)
		box.AppendChild(Elem("pre", nil, Text(src)))
		return box
	}
	for _, n := range nodes {
		box.AppendChild(n)
	}
	return box
}
