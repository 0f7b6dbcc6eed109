package powerschool

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// assignmentCellCount is the fixed cell layout of an assignment row:
// due date, category, name, four collection-code cells, an exclusion code
// cell, score, percent, letter grade.
const assignmentCellCount = 11

// fetchTerm pulls the term's detail page and fills all three per-term
// caches off the single response, even if only one was asked for. A term
// is fetched at most once per course lifetime, failures leave the caches
// unfilled so a later access can retry.
func (c *Course) fetchTerm(ctx context.Context, term string) error {
	ctx, span := tracer.Start(ctx, "fetchTerm", trace.WithAttributes(
		attribute.String("course", c.Name),
		attribute.String("term", term),
	))
	defer span.End()

	score := c.scores[term]
	body, err := c.client.Fetch(ctx, "guardian/"+score.Url, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch term detail page")
		return err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse term detail html")
		return err
	}

	c.assignments[term] = c.parseAssignments(ctx, doc, term)
	c.comments[term] = parseComments(doc)
	c.categories[term] = c.parseWeights(ctx, doc, term)
	c.fetchedTerms[term] = true
	return nil
}

// parseAssignments decodes the assignment table. A page without the table
// at all is an anomaly worth logging but not failing over, the term just
// degrades to zero assignments. A present-but-empty table is a perfectly
// normal start-of-term state.
func (c *Course) parseAssignments(ctx context.Context, doc *goquery.Document, term string) []Assignment {
	table := doc.Find(`table[align="center"][width="99%"]`).First()
	if table.Length() == 0 {
		slog.WarnContext(
			ctx, "assignment table missing from term detail page",
			"course", c.Name,
			"teacher", c.Teacher.Name,
			"term", term,
			"session", c.client.Fingerprint(),
		)
		return []Assignment{}
	}

	assignments := []Assignment{}
	table.Find("tr[bgcolor]").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < assignmentCellCount {
			slog.WarnContext(
				ctx, "skipping short assignment row",
				"course", c.Name,
				"term", term,
				"cells", cells.Length(),
			)
			return
		}
		assignments = append(assignments, Assignment{
			Due:      strings.TrimSpace(cells.Eq(0).Text()),
			Category: strings.TrimSpace(cells.Eq(1).Text()),
			Name:     strings.TrimSpace(cells.Eq(2).Text()),
			Flags: AssignmentFlags{
				Collected: flagCell(cells.Eq(3)),
				Late:      flagCell(cells.Eq(4)),
				Missing:   flagCell(cells.Eq(5)),
				Exempt:    flagCell(cells.Eq(6)),
				Excluded:  flagCell(cells.Eq(7)),
			},
			Score:   strings.TrimSpace(cells.Eq(8).Text()),
			Percent: strings.TrimSpace(cells.Eq(9).Text()),
			Grade:   strings.TrimSpace(cells.Eq(10).Text()),
		})
	})
	return assignments
}

// flagCell decodes the boolean-code cells: the portal leaves the cell
// empty for false and drops an icon or code into it for true.
func flagCell(cell *goquery.Selection) bool {
	inner, err := cell.Html()
	if err != nil {
		return false
	}
	return strings.TrimSpace(inner) != ""
}

// parseComments reads the first two comment blocks, which the portal
// always emits in teacher-then-section order. Fewer than two blocks just
// leaves the remainder empty.
func parseComments(doc *goquery.Document) TermComments {
	blocks := doc.Find("div.comment pre")
	comments := TermComments{}
	if blocks.Length() > 0 {
		comments.Teacher = blocks.Eq(0).Text()
	}
	if blocks.Length() > 1 {
		comments.Section = blocks.Eq(1).Text()
	}
	return comments
}

// parseWeights decodes the grading-category table for the term, anchored
// on the literal "Term <label>" header row. Nil means unweighted: either
// the table says "Total Points" outright, or it could not be located at
// all, which is logged so genuinely malformed pages stay visible.
func (c *Course) parseWeights(ctx context.Context, doc *goquery.Document, term string) map[string]CategoryWeight {
	var anchor *goquery.Selection
	doc.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if strings.TrimSpace(th.Text()) == "Term "+term {
			anchor = th
			return false
		}
		return true
	})
	if anchor == nil {
		slog.WarnContext(
			ctx, "weights table missing from term detail page",
			"course", c.Name,
			"teacher", c.Teacher.Name,
			"term", term,
			"session", c.client.Fingerprint(),
		)
		return nil
	}

	var categories map[string]CategoryWeight
	unweighted := false
	started := false
	headerRow := anchor.Closest("tr")

	anchor.Closest("table").Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if row.Nodes[0] == headerRow.Nodes[0] {
			started = true
			return true
		}
		if !started {
			return true
		}
		// a later term's section begins, stop before bleeding into it
		if th := row.Find("th").First(); th.Length() > 0 &&
			strings.HasPrefix(strings.TrimSpace(th.Text()), "Term ") {
			return false
		}

		cells := row.Find("td")
		if cells.Length() == 0 {
			// column header row
			return true
		}
		label := strings.TrimSpace(cells.First().Text())
		switch label {
		case "Total Points":
			// unweighted term, drop counts are not published for these
			unweighted = true
			categories = nil
			return false
		case "Category Based":
			if cells.Length() < 4 {
				return true
			}
			if categories == nil {
				categories = map[string]CategoryWeight{}
			}
			name := strings.TrimSpace(cells.Eq(1).Text())
			categories[name] = CategoryWeight{
				Weight: strings.TrimSpace(cells.Eq(2).Text()),
				Drops:  strings.TrimSpace(cells.Eq(3).Text()),
			}
		}
		return true
	})

	if categories == nil && !unweighted {
		slog.WarnContext(
			ctx, "weights table matched no rows, treating term as unweighted",
			"course", c.Name,
			"term", term,
			"session", c.client.Fingerprint(),
		)
	}
	return categories
}
