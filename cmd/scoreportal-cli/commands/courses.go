package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(coursesCmd)
}

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Logs in and prints the landing-page course table.",
	Run: func(cmd *cobra.Command, args []string) {
		user := login(cmd.Context(), readConfig())

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{
			"Period", "Course", "Teacher", "Room", "Term", "Grade", "Absences", "Tardies",
		})
		for _, course := range user.Courses {
			term := course.LatestTerm()
			score, _ := course.Score(term)

			grade := score.Score
			if score.Letter != "" {
				grade = fmt.Sprintf("%s (%s)", score.Letter, score.Score)
			}
			t.AppendRow(table.Row{
				course.Period,
				course.Name,
				course.Teacher.Name,
				course.RoomNumber,
				term,
				grade,
				course.Attendance.Absences.Count,
				course.Attendance.Tardies.Count,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		fmt.Printf("%s @ %s\n", user.Name, user.SchoolName)
		if user.Gpa != nil {
			fmt.Printf("GPA: %.2f\n", *user.Gpa)
		}
	},
}
