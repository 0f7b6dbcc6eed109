package powerschool

// Teacher is the instructor attached to a course row. Email is empty when
// the portal renders a javascript messaging link instead of a mailto link.
type Teacher struct {
	Name  string
	Email string
}

// AttendanceCell is one attendance summary cell, either a bare count or a
// count linking to a detail page.
type AttendanceCell struct {
	Count string
	Url   string
}

type Attendance struct {
	Absences AttendanceCell
	Tardies  AttendanceCell
}

// TermScore is the current score summary for one grading period, parsed
// eagerly off the landing page row. An unposted grade is stored as the
// sentinel pair score "0" / letter "-". Url is the relative scores.html
// link used to fetch the term's detail page.
type TermScore struct {
	Score  string
	Letter string
	Url    string
}

type AssignmentFlags struct {
	Collected bool
	Late      bool
	Missing   bool
	Exempt    bool
	Excluded  bool
}

type Assignment struct {
	Due      string
	Category string
	Name     string
	Flags    AssignmentFlags
	Score    string
	Percent  string
	Grade    string
}

// CategoryWeight is one grading bucket of a weighted term. Values are kept
// as the portal renders them.
type CategoryWeight struct {
	Weight string
	Drops  string
}

// TermComments are the two free-form comment blocks on a term detail page,
// in the fixed order the portal emits them.
type TermComments struct {
	Teacher string
	Section string
}
