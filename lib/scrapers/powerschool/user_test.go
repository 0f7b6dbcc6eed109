package powerschool

import (
	"context"
	"testing"
	"scoreportal-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestParseLandingPage(t *testing.T) {
	defer telemetry.SetupForTesting(t, "powerschool-test")()

	portal := newFakePortal(t, homePage)
	user := portal.login(t)

	require.Equal(t, "Aiden Reynolds", user.Name)
	require.Equal(t, "Jefferson High School", user.SchoolName)
	require.NotNil(t, user.Gpa)
	require.Equal(t, 3.85, *user.Gpa)
	require.Equal(t, []string{"Q1", "Q2", "S1"}, user.Terms)
	require.Len(t, user.Courses, 2)

	algebra := user.Courses[0]
	require.Equal(t, "ALGEBRA II", algebra.Name)
	require.Equal(t, "Gutierrez, Maria", algebra.Teacher.Name)
	require.Equal(t, "gutierrez.m@jhs.example.org", algebra.Teacher.Email)
	require.Equal(t, "204", algebra.RoomNumber)
	require.Equal(t, "1(A-E)", algebra.Period)
	require.Equal(t, "3", algebra.Attendance.Absences.Count)
	require.Equal(t, "attendance.html?frn=004123&dcid=18", algebra.Attendance.Absences.Url)
	require.Equal(t, "0", algebra.Attendance.Tardies.Count)
	require.Empty(t, algebra.Attendance.Tardies.Url)

	require.Equal(t, []string{"Q1", "Q2", "S1"}, algebra.Terms())
	require.Equal(t, "S1", algebra.LatestTerm())

	q1, ok := algebra.Score("Q1")
	require.True(t, ok)
	require.Equal(t, TermScore{Score: "87", Letter: "B", Url: "scores.html?frn=004123&fg=Q1"}, q1)

	// an unposted score renders as "--" and decodes to the zero placeholders
	q2, ok := algebra.Score("Q2")
	require.True(t, ok)
	require.Equal(t, "0", q2.Score)
	require.Equal(t, "-", q2.Letter)

	// a bare numeric cell carries no letter at all
	s1, ok := algebra.Score("S1")
	require.True(t, ok)
	require.Equal(t, "92", s1.Score)
	require.Empty(t, s1.Letter)

	history := user.Courses[1]
	require.Equal(t, "AP US HISTORY", history.Name)
	require.Equal(t, "Whitfield, James", history.Teacher.Name)
	// messaging-skin teachers expose neither an email nor a room number
	require.Empty(t, history.Teacher.Email)
	require.Empty(t, history.RoomNumber)
	require.Equal(t, "3", history.Attendance.Absences.Count)
	require.Empty(t, history.Attendance.Absences.Url)
	require.Equal(t, "1", history.Attendance.Tardies.Count)

	require.Equal(t, map[string]string{"Q1": "95", "Q2": "0", "S1": "95"}, history.Scores())
	require.Equal(t, map[string]string{"Q1": "", "Q2": "-", "S1": "A"}, history.Letters())
}

func TestParseLandingPageAltDialect(t *testing.T) {
	defer telemetry.SetupForTesting(t, "powerschool-test")()

	portal := newFakePortal(t, homePageAlt)
	user := portal.login(t)

	require.Equal(t, "Priya Natarajan", user.Name)
	require.Equal(t, "Santa Monica High School", user.SchoolName)
	// "N/A" is not a number, the page still parses
	require.Nil(t, user.Gpa)
	require.Equal(t, []string{"Q1", "Q2"}, user.Terms)
	require.Len(t, user.Courses, 1)

	chemistry := user.Courses[0]
	require.Equal(t, "CHEMISTRY", chemistry.Name)
	require.Equal(t, "Okafor, Daniel", chemistry.Teacher.Name)
	require.Empty(t, chemistry.Teacher.Email)
	require.Equal(t, "3(A)", chemistry.Period)

	q1, ok := chemistry.Score("Q1")
	require.True(t, ok)
	require.Equal(t, "A-", q1.Letter)
	require.Equal(t, "91", q1.Score)
}

func TestScoreLookupNormalizesTerm(t *testing.T) {
	defer telemetry.SetupForTesting(t, "powerschool-test")()

	portal := newFakePortal(t, homePage)
	user := portal.login(t)

	lower, ok := user.Courses[0].Score("q1")
	require.True(t, ok)
	upper, ok := user.Courses[0].Score("Q1")
	require.True(t, ok)
	require.Equal(t, upper, lower)
}

func TestRawDocumentFetches(t *testing.T) {
	defer telemetry.SetupForTesting(t, "powerschool-test")()

	portal := newFakePortal(t, homePage)
	user := portal.login(t)
	ctx := context.Background()

	transcript, err := user.FetchTranscript(ctx)
	require.NoError(t, err)
	require.Equal(t, transcriptDocument, string(transcript))

	listing, err := user.FetchAssignmentList(ctx)
	require.NoError(t, err)
	require.Equal(t, assignmentListDocument, string(listing))
}

func TestParseLandingPageWithoutTerms(t *testing.T) {
	defer telemetry.SetupForTesting(t, "powerschool-test")()

	portal := newFakePortal(t, []byte(`<html><body>
		<h1>Grades and Attendance</h1>
		<table><tr><th>Course</th></tr></table>
	</body></html>`))

	client, err := NewClient(portal.URL)
	require.NoError(t, err)
	_, err = Authenticate(context.Background(), client, "aiden.reynolds", "hunter2")
	require.ErrorIs(t, err, TermsNotFound)
}
