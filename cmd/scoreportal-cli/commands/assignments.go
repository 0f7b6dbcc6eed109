package commands

import (
	"fmt"
	"os"
	"scoreportal-backend/lib/osutil"
	"scoreportal-backend/lib/scrapers/powerschool"
	"scoreportal-backend/lib/textutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	assignmentsCourse *string
	assignmentsTerm   *string
)

func init() {
	assignmentsCourse = assignmentsCmd.Flags().String("course", "", "The course to list assignments for.")
	assignmentsTerm = assignmentsCmd.Flags().String("term", "", "The grading period, defaults to the latest one.")
	assignmentsCmd.MarkFlagRequired("course")
	rootCmd.AddCommand(assignmentsCmd)
}

func flagCodes(flags powerschool.AssignmentFlags) string {
	codes := ""
	appendCode := func(set bool, code string) {
		if set {
			codes += code
		}
	}
	appendCode(flags.Collected, "C")
	appendCode(flags.Late, "L")
	appendCode(flags.Missing, "M")
	appendCode(flags.Exempt, "X")
	appendCode(flags.Excluded, "E")
	return codes
}

var assignmentsCmd = &cobra.Command{
	Use:   "assignments --course <name> [--term <term>]",
	Short: "Prints a course's assignments and category weights for a grading period.",
	Run: func(cmd *cobra.Command, args []string) {
		user := login(cmd.Context(), readConfig())

		var course *powerschool.Course
		for _, c := range user.Courses {
			if textutil.MatchName(c.Name, []string{*assignmentsCourse}) {
				course = c
				break
			}
		}
		if course == nil {
			osutil.Fatal("no such course", fmt.Errorf("%q", *assignmentsCourse))
		}

		term := *assignmentsTerm
		if term == "" {
			term = course.LatestTerm()
		}

		assignments, err := course.Assignments(cmd.Context(), term)
		if err != nil {
			osutil.Fatal("failed to fetch assignments", err)
		}
		categories, err := course.CategoryDetails(cmd.Context(), term)
		if err != nil {
			osutil.Fatal("failed to fetch category weights", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Due", "Category", "Assignment", "Codes", "Score", "%", "Grade"})
		for _, a := range assignments {
			t.AppendRow(table.Row{
				a.Due,
				powerschool.MatchCategory(a, categories),
				a.Name,
				flagCodes(a.Flags),
				a.Score,
				a.Percent,
				a.Grade,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		if categories == nil {
			fmt.Printf("%s %s: unweighted (total points)\n", course.Name, term)
			return
		}
		w := table.NewWriter()
		w.SetOutputMirror(os.Stdout)
		w.AppendHeader(table.Row{"Category", "Weight", "Drops"})
		for name, weight := range categories {
			w.AppendRow(table.Row{name, weight.Weight, weight.Drops})
		}
		w.SetStyle(table.StyleRounded)
		w.Render()

		comments, err := course.Comments(cmd.Context(), term)
		if err != nil {
			osutil.Fatal("failed to fetch comments", err)
		}
		if comments.Teacher != "" {
			fmt.Printf("Teacher comment: %s\n", comments.Teacher)
		}
	},
}
