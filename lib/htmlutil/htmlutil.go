package htmlutil

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText returns the concatenated text content of a node, like
// goquery's Selection.Text but usable on a bare node.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// TextSegments returns the text content of a node split on <br> elements.
// Segments are trimmed of surrounding whitespace (nbsp included) and empty
// segments are dropped, so "B<br>87" yields ["B", "87"] and a cell of pure
// markup yields nil.
func TextSegments(node *html.Node) []string {
	var segments []string
	var current bytes.Buffer
	flush := func() {
		seg := TrimText(current.String())
		if seg != "" {
			segments = append(segments, seg)
		}
		current.Reset()
	}
	segmentsRecursive(node, &current, flush)
	flush()
	return segments
}

func segmentsRecursive(node *html.Node, current *bytes.Buffer, flush func()) {
	if node == nil {
		return
	}
	if node.Type == html.ElementNode && node.Data == "br" {
		flush()
		return
	}
	if node.Type == html.TextNode {
		current.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		segmentsRecursive(child, current, flush)
		child = child.NextSibling
	}
}

// TrimText trims ascii whitespace plus the non-breaking spaces that
// html entity decoding leaves behind.
func TrimText(s string) string {
	return strings.Trim(s, " \t\n\r ")
}

// Cell is the content of a table cell that holds either plain text or a
// single anchor. Href is empty for the plain text form.
type Cell struct {
	Text string
	Href string
}

// SplitCell decodes a text-or-anchor table cell.
func SplitCell(sel *goquery.Selection) Cell {
	anchor := sel.Find("a").First()
	if anchor.Length() > 0 {
		return Cell{
			Text: TrimText(anchor.Text()),
			Href: anchor.AttrOr("href", ""),
		}
	}
	return Cell{Text: TrimText(sel.Text())}
}
