package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeTerm maps the various spellings of a grading period label
// ("q1", " Q1 ") onto the canonical uppercase key used by the portal.
func NormalizeTerm(term string) string {
	return strings.ToUpper(strings.TrimSpace(term))
}

// NormalizeName lowercases and strips all whitespace, for fuzzy
// "does this course name refer to that one" comparisons.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	return whitespaceRegex.ReplaceAllString(name, "")
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, NormalizeName(m)) {
			return true
		}
	}
	return false
}

// IsNumeric reports whether s parses as a (possibly fractional) number,
// the same test the portal markup forces on score cells.
func IsNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
