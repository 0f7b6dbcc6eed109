package powerschool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTermFromScoresLink(t *testing.T) {
	term, err := termFromScoresLink("scores.html?frn=004123&fg=Q1")
	require.NoError(t, err)
	require.Equal(t, "Q1", term)

	// term keys come out uppercase no matter how the portal spells them
	term, err = termFromScoresLink("scores.html?frn=004123&fg=s1")
	require.NoError(t, err)
	require.Equal(t, "S1", term)

	_, err = termFromScoresLink("scores.html")
	require.ErrorIs(t, err, RowParseFailed)

	_, err = termFromScoresLink("scores.html?frn=004123")
	require.ErrorIs(t, err, RowParseFailed)
}

func TestMatchCategory(t *testing.T) {
	categories := map[string]CategoryWeight{
		"Homework & Practice": {Weight: "20", Drops: "2"},
		"Assessments":         {Weight: "80", Drops: "0"},
	}

	// exact names pass straight through
	require.Equal(
		t, "Assessments",
		MatchCategory(Assignment{Category: "Assessments"}, categories),
	)
	// the assignment table routinely abbreviates the weight table's names
	require.Equal(
		t, "Homework & Practice",
		MatchCategory(Assignment{Category: "Homework"}, categories),
	)
	require.Equal(
		t, "Assessments",
		MatchCategory(Assignment{Category: "Assessment"}, categories),
	)
	// with no weight table there is nothing to snap onto
	require.Equal(
		t, "Homework",
		MatchCategory(Assignment{Category: "Homework"}, nil),
	)
}
