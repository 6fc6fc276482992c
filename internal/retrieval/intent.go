package retrieval

import "strings"

// Intent classifies what a query is about: course content, or the
// administrative structure of the course itself.
type Intent string

const (
	// Conceptual queries ask about subject matter and lean on the
	// reference book.
	Conceptual Intent = "conceptual"
	// Structural queries ask about logistics (schedule, marks, syllabus)
	// and are answered from course notes.
	Structural Intent = "structural"
)

// structuralKeywords flags administrative queries. Two sets, one per
// query language, both consulted regardless of detected language since
// code-switched queries mix them freely.
var structuralKeywords = []string{
	// English
	"schedule", "routine", "syllabus", "module", "course outline",
	"instructor", "teacher", "credit", "marks", "grading", "attendance",
	"exam date", "class test", "midterm", "final exam", "assignment",
	"deadline", "lecture plan",
	// Bangla
	"রুটিন", "সিলেবাস", "মডিউল", "শিক্ষক", "ক্রেডিট", "নম্বর",
	"পরীক্ষার তারিখ", "ক্লাস টেস্ট", "অ্যাসাইনমেন্ট",
}

// ClassifyIntent is a pure function over the normalized query text.
func ClassifyIntent(query string) Intent {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, kw := range structuralKeywords {
		if strings.Contains(q, kw) {
			return Structural
		}
	}
	return Conceptual
}
