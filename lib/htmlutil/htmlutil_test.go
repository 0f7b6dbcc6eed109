package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parseCell(t *testing.T, markup string) *goquery.Selection {
	doc, err := goquery.NewDocumentFromReader(
		strings.NewReader("<table><tr>" + markup + "</tr></table>"),
	)
	require.NoError(t, err)
	cell := doc.Find("td").First()
	require.Equal(t, 1, cell.Length())
	return cell
}

func TestTextSegments(t *testing.T) {
	for _, test := range []struct {
		markup   string
		expected []string
	}{
		{`<td>B<br>87</td>`, []string{"B", "87"}},
		{`<td>--</td>`, []string{"--"}},
		{`<td>ALGEBRA II&nbsp;<br>&nbsp;&nbsp;Email <a href="#">Gutierrez, Maria</a></td>`,
			[]string{"ALGEBRA II", "Email Gutierrez, Maria"}},
		{`<td>  surrounded  <br><br>  by noise  </td>`, []string{"surrounded", "by noise"}},
		{`<td><br></td>`, nil},
		{`<td></td>`, nil},
	} {
		cell := parseCell(t, test.markup)
		require.Equal(t, test.expected, TextSegments(cell.Nodes[0]), test.markup)
	}
}

func TestTrimText(t *testing.T) {
	require.Equal(t, "Rm: 204", TrimText(" Rm: 204 \n"))
	require.Equal(t, "", TrimText(" \t  "))
}

func TestSplitCell(t *testing.T) {
	plain := SplitCell(parseCell(t, `<td>3</td>`))
	require.Equal(t, Cell{Text: "3"}, plain)

	linked := SplitCell(parseCell(t, `<td><a href="attendance.html?frn=1">3</a></td>`))
	require.Equal(t, Cell{Text: "3", Href: "attendance.html?frn=1"}, linked)
}
