package powerschool

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"scoreportal-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// TermsNotFound means the landing page's grade table header could not be
// anchored, so no course data can be derived at all.
var TermsNotFound = fmt.Errorf("unable to find terms on the landing page")

// User is the parsed authenticated landing page: who the student is, which
// grading periods the table carries and one record per course row. The
// identity fields never change after parsing.
type User struct {
	client *Client

	Name       string
	SchoolName string
	// nil when the portal renders no numeric GPA
	Gpa *float64

	// Terms is the ordered grading-period roster from the table header,
	// shared read-only with every course.
	Terms   []string
	Courses []*Course
}

func parseUser(ctx context.Context, client *Client, landing []byte) (*User, error) {
	ctx, span := tracer.Start(ctx, "parseUser")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(landing))
	if err != nil {
		return nil, err
	}

	user := &User{
		client:     client,
		Name:       strings.TrimSpace(doc.Find("li#userName span").First().Text()),
		SchoolName: parseSchoolName(doc),
		Gpa:        parseGpa(doc),
	}

	headers := termHeaderCells(doc)
	start := -1
	headers.Each(func(i int, cell *goquery.Selection) {
		// the "Exp" column always leads the term listing
		if start == -1 && strings.TrimSpace(cell.Text()) == "Exp" {
			start = i
		}
	})
	if start == -1 {
		span.SetStatus(codes.Error, TermsNotFound.Error())
		return nil, TermsNotFound
	}

	// the fixed leading (Exp, course info) and trailing (attendance)
	// columns are trimmed symmetrically around the term labels
	for i := start + 2; i < headers.Length()-start-2; i++ {
		user.Terms = append(user.Terms, strings.TrimSpace(headers.Eq(i).Text()))
	}

	table := headers.First().Closest("table")
	var rowErr error
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if rowErr != nil {
			return
		}
		// rows without a scores link are separators, not courses
		if row.Find(`a[href*="scores.html"]`).Length() == 0 {
			return
		}
		course, err := parseCourseRow(client, row, user.Terms)
		if err != nil {
			rowErr = fmt.Errorf("row %d: %w", i, err)
			return
		}
		user.Courses = append(user.Courses, course)
	})
	if rowErr != nil {
		span.SetStatus(codes.Error, rowErr.Error())
		return nil, rowErr
	}

	return user, nil
}

// termHeaderCells picks the header cells holding the term columns. Two
// layout dialects exist: most deployments mark them up as th[rowspan=2],
// the SM skin uses td[rowspan=2]. The presence of any td[rowspan=2] on the
// page selects the alternate dialect.
func termHeaderCells(doc *goquery.Document) *goquery.Selection {
	alt := doc.Find(`td[rowspan="2"]`)
	if alt.Length() > 0 {
		return alt
	}
	return doc.Find(`th[rowspan="2"]`)
}

func parseSchoolName(doc *goquery.Document) string {
	block := doc.Find("div#print-school").First()
	if block.Length() == 0 {
		return ""
	}
	segments := htmlutil.TextSegments(block.Nodes[0])
	if len(segments) == 0 {
		return ""
	}
	return segments[0]
}

// parseGpa is best effort: a non-numeric match (letter GPA, placeholder
// dash) reports no GPA rather than failing the page.
func parseGpa(doc *goquery.Document) *float64 {
	var gpa *float64
	doc.Find(`td[align="center"]`).EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		text := cell.Text()
		if !strings.Contains(text, "GPA") {
			return true
		}
		colon := strings.LastIndex(text, ":")
		if colon == -1 {
			return true
		}
		value, err := strconv.ParseFloat(htmlutil.TrimText(text[colon+1:]), 64)
		if err != nil {
			return true
		}
		gpa = &value
		return false
	})
	return gpa
}

// FetchTranscript pulls the student's PESC HighSchoolTranscript document
// and returns it verbatim, no parsing.
func (u *User) FetchTranscript(ctx context.Context) ([]byte, error) {
	return u.client.Fetch(ctx, "guardian/studentdata.xml?ac=download", nil)
}

// FetchAssignmentList pulls the portal's cross-course assignment listing
// page (360 day window) and returns it verbatim.
func (u *User) FetchAssignmentList(ctx context.Context) ([]byte, error) {
	return u.client.Fetch(ctx, "guardian/ppstudentasmtlist.html?timeframe=360", nil)
}
