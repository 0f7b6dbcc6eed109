package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTerm(t *testing.T) {
	require.Equal(t, "Q1", NormalizeTerm("q1"))
	require.Equal(t, "Q1", NormalizeTerm(" Q1 "))
	require.Equal(t, "S2", NormalizeTerm("s2"))
}

func TestMatchName(t *testing.T) {
	require.True(t, MatchName("ALGEBRA II", []string{"algebra"}))
	require.True(t, MatchName("AP US History", []string{"ap  us history"}))
	require.False(t, MatchName("CHEMISTRY", []string{"physics"}))
	require.False(t, MatchName("CHEMISTRY", nil))
}

func TestIsNumeric(t *testing.T) {
	require.True(t, IsNumeric("87"))
	require.True(t, IsNumeric("92.5"))
	require.False(t, IsNumeric("B"))
	require.False(t, IsNumeric("--"))
	require.False(t, IsNumeric(""))
}
