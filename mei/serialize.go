package mei

import (
	"fmt"
	"strings"

	"github.com/subchen/go-xmldom"
)

// serialize renders the DOM with the caller's indent string; the library
// pretty-printer has a fixed indent, and the indent is part of this
// encoder's contract.
func serialize(doc *xmldom.Document, opts Options) string {
	var b strings.Builder
	if opts.XMLDecl {
		b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	}
	writeNode(&b, doc.Root, opts.Indent, 0)
	return b.String()
}

func writeNode(b *strings.Builder, n *xmldom.Node, indent string, depth int) {
	pad := strings.Repeat(indent, depth)
	b.WriteString(pad)
	b.WriteByte('<')
	b.WriteString(n.Name)
	for _, a := range n.Attributes {
		fmt.Fprintf(b, " %s=\"%s\"", a.Name, escape(a.Value))
	}
	switch {
	case len(n.Children) == 0 && n.Text == "":
		b.WriteString("/>\n")
	case len(n.Children) == 0:
		b.WriteByte('>')
		b.WriteString(escape(n.Text))
		b.WriteString("</")
		b.WriteString(n.Name)
		b.WriteString(">\n")
	default:
		b.WriteString(">\n")
		for _, c := range n.Children {
			writeNode(b, c, indent, depth+1)
		}
		b.WriteString(pad)
		b.WriteString("</")
		b.WriteString(n.Name)
		b.WriteString(">\n")
	}
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
)

func escape(s string) string {
	return escaper.Replace(s)
}
