// Package view builds dashboard pages as html.Node trees. Components take
// plain view models and never see the session or the data API, so their
// output is a pure function of the input.
package view

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Elem creates an element with the given attributes and children
func Elem(tag string, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
		Attr:     attrs,
	}
	for _, c := range children {
		if c != nil {
			n.AppendChild(c)
		}
	}
	return n
}

// Text creates a text node. Escaping happens in Render.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Attrs turns key/value pairs into attributes
func Attrs(kv ...string) []html.Attribute {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("view: odd attribute list %q", kv))
	}
	attrs := make([]html.Attribute, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		attrs = append(attrs, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return attrs
}

// Render serializes n as HTML
func Render(w io.Writer, n *html.Node) error {
	return html.Render(w, n)
}
