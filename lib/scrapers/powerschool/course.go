package powerschool

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"scoreportal-backend/lib/htmlutil"
	"scoreportal-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
	"golang.org/x/net/html"
)

var (
	// RowParseFailed means a landing-page row that looked like a course
	// could not be decoded. It is fatal to the whole landing-page parse,
	// a partially decoded user is worse than none.
	RowParseFailed = fmt.Errorf("unable to parse course row")
	// UnknownTerm is returned by term-scoped accessors when the requested
	// grading period does not exist on this course. Check with errors.Is,
	// it is a caller mistake, not a portal failure.
	UnknownTerm = fmt.Errorf("term does not exist on this course")
)

// Course is one row of the landing-page grade table. Identity, attendance
// and per-term score summaries are filled eagerly from the row markup;
// assignments, comments and category weights are fetched lazily from the
// term's detail page, at most once per term, cached for the lifetime of
// the record. The session is held by shared reference only.
type Course struct {
	client *Client

	Name       string
	Teacher    Teacher
	RoomNumber string
	Period     string
	Attendance Attendance

	// terms is the user-wide grading-period roster, read-only.
	terms []string

	// termOrder preserves insertion order of scores as first observed in
	// the row, scores is keyed by uppercase term label.
	termOrder []string
	scores    map[string]TermScore

	// per-term detail caches, all three filled together by one fetch.
	// fetchedTerms distinguishes "never fetched" from a legitimately nil
	// categories entry (unweighted term).
	fetchedTerms map[string]bool
	assignments  map[string][]Assignment
	comments     map[string]TermComments
	categories   map[string]map[string]CategoryWeight
}

func parseCourseRow(client *Client, row *goquery.Selection, terms []string) (*Course, error) {
	course := &Course{
		client:       client,
		terms:        terms,
		scores:       map[string]TermScore{},
		fetchedTerms: map[string]bool{},
		assignments:  map[string][]Assignment{},
		comments:     map[string]TermComments{},
		categories:   map[string]map[string]CategoryWeight{},
	}

	err := course.parseTitleCell(row)
	if err != nil {
		return nil, err
	}
	course.parsePlainCells(row)
	err = course.parseScoreLinks(row)
	if err != nil {
		return nil, err
	}
	if len(course.termOrder) == 0 {
		return nil, fmt.Errorf("%w: no term scores in row", RowParseFailed)
	}
	return course, nil
}

// parseTitleCell decodes the left-aligned title cell: course name on the
// first line, then a teacher link that is either a javascript messaging
// link (no email, no room) or a mailto link followed by a "- Rm:" suffix.
func (c *Course) parseTitleCell(row *goquery.Selection) error {
	cell := row.Find(`td[align="left"]`).First()
	if cell.Length() == 0 {
		return fmt.Errorf("%w: missing title cell", RowParseFailed)
	}
	segments := htmlutil.TextSegments(cell.Nodes[0])
	if len(segments) == 0 {
		return fmt.Errorf("%w: empty title cell", RowParseFailed)
	}
	c.Name = segments[0]

	anchor := cell.Find("a").First()
	if anchor.Length() == 0 {
		return fmt.Errorf("%w: missing teacher link", RowParseFailed)
	}
	link := anchor.AttrOr("href", anchor.AttrOr("onclick", ""))
	c.Teacher.Name = htmlutil.TrimText(anchor.Text())

	switch {
	case strings.HasPrefix(link, "javascript:"):
		// synchronous-messaging skin: no email, no room number
	case strings.HasPrefix(link, "mailto:"):
		c.Teacher.Email = strings.TrimPrefix(link, "mailto:")
		c.RoomNumber = roomSuffix(cell, anchor)
	default:
		return fmt.Errorf("%w: unrecognized teacher link %q", RowParseFailed, link)
	}
	return nil
}

// roomSuffix collects the text trailing the teacher anchor and strips the
// "- Rm:" decoration off it.
func roomSuffix(cell, anchor *goquery.Selection) string {
	var trailing strings.Builder
	seen := false
	for node := cell.Nodes[0].FirstChild; node != nil; node = node.NextSibling {
		if node.Type == html.ElementNode && node.Data == "a" && node == anchor.Nodes[0] {
			seen = true
			continue
		}
		if seen {
			trailing.WriteString(htmlutil.GetText(node))
		}
	}
	room := htmlutil.TrimText(trailing.String())
	room = htmlutil.TrimText(strings.TrimPrefix(room, "-"))
	room = htmlutil.TrimText(strings.TrimPrefix(room, "Rm:"))
	return room
}

// parsePlainCells reads the positional cells of the row: the first cell is
// the period, the last two are the absence and tardy summaries. Attendance
// cells are either a bare count or a count wrapped in a detail link.
func (c *Course) parsePlainCells(row *goquery.Selection) {
	cells := row.Find("td")
	c.Period = htmlutil.TrimText(cells.First().Text())
	if cells.Length() < 3 {
		return
	}

	absences := htmlutil.SplitCell(cells.Eq(cells.Length() - 2))
	c.Attendance.Absences = AttendanceCell{Count: absences.Text, Url: absences.Href}
	tardies := htmlutil.SplitCell(cells.Eq(cells.Length() - 1))
	c.Attendance.Tardies = AttendanceCell{Count: tardies.Text, Url: tardies.Href}
}

func (c *Course) parseScoreLinks(row *goquery.Selection) error {
	var linkErr error
	row.Find(`a[href*="scores.html"]`).Each(func(_ int, anchor *goquery.Selection) {
		if linkErr != nil {
			return
		}
		href := anchor.AttrOr("href", "")
		term, err := termFromScoresLink(href)
		if err != nil {
			linkErr = err
			return
		}

		score := TermScore{Url: href}
		segments := htmlutil.TextSegments(anchor.Nodes[0])
		switch {
		case len(segments) == 0 || segments[0] == "--":
			// no score posted yet
			score.Score = "0"
			score.Letter = "-"
		case !textutil.IsNumeric(segments[0]):
			// letter-graded school: letter first, numeric score after the
			// line break (which some terms omit entirely)
			score.Letter = segments[0]
			if len(segments) > 1 {
				score.Score = segments[1]
			}
		default:
			score.Score = segments[0]
		}

		if _, ok := c.scores[term]; !ok {
			c.termOrder = append(c.termOrder, term)
		}
		c.scores[term] = score
	})
	return linkErr
}

func termFromScoresLink(href string) (string, error) {
	q := strings.Index(href, "?")
	if q == -1 {
		return "", fmt.Errorf("%w: scores link %q has no query", RowParseFailed, href)
	}
	values, err := url.ParseQuery(href[q+1:])
	if err != nil {
		return "", fmt.Errorf("%w: scores link %q: %s", RowParseFailed, href, err)
	}
	term := textutil.NormalizeTerm(values.Get("fg"))
	if term == "" {
		return "", fmt.Errorf("%w: scores link %q has no term", RowParseFailed, href)
	}
	return term, nil
}

// Terms returns the course's term keys in the order they first appeared
// on the landing-page row.
func (c *Course) Terms() []string {
	out := make([]string, len(c.termOrder))
	copy(out, c.termOrder)
	return out
}

// Scores projects the per-term summaries to term -> numeric score.
func (c *Course) Scores() map[string]string {
	out := make(map[string]string, len(c.scores))
	for term, score := range c.scores {
		out[term] = score.Score
	}
	return out
}

// Letters projects the per-term summaries to term -> letter grade.
func (c *Course) Letters() map[string]string {
	out := make(map[string]string, len(c.scores))
	for term, score := range c.scores {
		out[term] = score.Letter
	}
	return out
}

// Score returns the summary for one term.
func (c *Course) Score(term string) (TermScore, bool) {
	score, ok := c.scores[textutil.NormalizeTerm(term)]
	return score, ok
}

// LatestTerm is the last term key in insertion order.
func (c *Course) LatestTerm() string {
	if len(c.termOrder) == 0 {
		return ""
	}
	return c.termOrder[len(c.termOrder)-1]
}

// Assignments returns the term's assignment list, fetching the detail page
// on first access. An empty list is a valid result. Returns UnknownTerm
// when the term has no score entry on this course.
func (c *Course) Assignments(ctx context.Context, term string) ([]Assignment, error) {
	term, err := c.ensureTerm(ctx, term)
	if err != nil {
		return nil, err
	}
	return c.assignments[term], nil
}

// Comments returns the term's teacher and section comments, fetching the
// detail page on first access.
func (c *Course) Comments(ctx context.Context, term string) (TermComments, error) {
	term, err := c.ensureTerm(ctx, term)
	if err != nil {
		return TermComments{}, err
	}
	return c.comments[term], nil
}

// CategoryDetails returns the term's grading-category weights keyed by
// category name, fetching the detail page on first access. A nil map with
// a nil error means the term uses unweighted total-points grading.
func (c *Course) CategoryDetails(ctx context.Context, term string) (map[string]CategoryWeight, error) {
	term, err := c.ensureTerm(ctx, term)
	if err != nil {
		return nil, err
	}
	return c.categories[term], nil
}

// ensureTerm normalizes a term key and runs the fill-once detail fetch if
// this term's caches are still empty.
func (c *Course) ensureTerm(ctx context.Context, term string) (string, error) {
	term = textutil.NormalizeTerm(term)
	if _, ok := c.scores[term]; !ok {
		return term, fmt.Errorf("%w: %q", UnknownTerm, term)
	}
	if c.fetchedTerms[term] {
		return term, nil
	}
	err := c.fetchTerm(ctx, term)
	if err != nil {
		return term, err
	}
	return term, nil
}

// MatchCategory snaps an assignment's category spelling onto the closest
// weight-category name, since the two tables routinely disagree on
// punctuation and abbreviations. Returns the assignment's own category
// when there is nothing to match against.
func MatchCategory(assignment Assignment, categories map[string]CategoryWeight) string {
	if _, ok := categories[assignment.Category]; ok || len(categories) == 0 {
		return assignment.Category
	}
	best := ""
	var bestSimilarity float64
	for name := range categories {
		similarity := matchr.JaroWinkler(assignment.Category, name, false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = name
		}
	}
	if best == "" {
		return assignment.Category
	}
	return best
}
