package extract

import (
	"encoding/json"
	"strings"

	"github.com/pathshala-ai/pathshala/models"
)

// rawDiagnosticLimit caps how much backend output a ParseError carries.
const rawDiagnosticLimit = 1000

// ParseError reports that no strategy could recover records. Raw holds
// the head of the backend output so the failure can be diagnosed without
// re-querying. Records are never synthesized on failure.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return "could not extract structured records from backend output"
}

// Defaults backfills fields the backend omitted, taken from the caller's
// request rather than rejecting an otherwise-valid record.
type Defaults struct {
	Type       string
	Difficulty string
	Module     string
}

// Extract recovers a JSON array of records from noncompliant backend
// text. Three strategies run in order; the first success wins:
// fence-stripped array extraction, whole-text parse, then a scan for
// loose question/answer objects.
func Extract(raw string, defaults Defaults) ([]models.StructuredRecord, error) {
	stripped := stripFences(raw)

	if records, ok := parseArraySpan(stripped); ok {
		return backfill(records, defaults), nil
	}
	if records, ok := parseWholeText(stripped); ok {
		return backfill(records, defaults), nil
	}
	if records, ok := scanObjects(raw); ok {
		return backfill(records, defaults), nil
	}

	return nil, &ParseError{Raw: truncateRunes(raw, rawDiagnosticLimit)}
}

// stripFences removes leading/trailing code-fence markers, with or
// without a language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseArraySpan locates the largest [ ... ] span and parses it.
func parseArraySpan(s string) ([]models.StructuredRecord, bool) {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start == -1 || end <= start {
		return nil, false
	}
	return parseRecordArray(s[start : end+1])
}

// parseWholeText parses the fence-stripped text directly, accepting only
// an array result.
func parseWholeText(s string) ([]models.StructuredRecord, bool) {
	return parseRecordArray(s)
}

func parseRecordArray(s string) ([]models.StructuredRecord, bool) {
	var records []models.StructuredRecord
	if err := json.Unmarshal([]byte(s), &records); err != nil {
		return nil, false
	}
	records = keepValid(records)
	if len(records) == 0 {
		return nil, false
	}
	return records, true
}

// scanObjects walks the raw text for brace-delimited objects carrying
// both a question and an answer key, parsing each independently and
// silently skipping only the individually unparseable ones.
func scanObjects(s string) ([]models.StructuredRecord, bool) {
	var records []models.StructuredRecord
	for _, span := range jsonObjectSpans(s) {
		if !strings.Contains(span, `"question"`) || !strings.Contains(span, `"answer"`) {
			continue
		}
		var rec models.StructuredRecord
		if err := json.Unmarshal([]byte(span), &rec); err != nil {
			continue
		}
		if rec.Question == "" || rec.Answer == "" {
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, false
	}
	return records, true
}

// jsonObjectSpans returns every flat {...} span in order. A later '{'
// restarts the candidate span, so a truncated object never swallows the
// valid one that follows it.
func jsonObjectSpans(s string) []string {
	var spans []string
	start := -1
	for i, ch := range s {
		switch ch {
		case '{':
			start = i
		case '}':
			if start != -1 {
				spans = append(spans, s[start:i+1])
				start = -1
			}
		}
	}
	return spans
}

func keepValid(records []models.StructuredRecord) []models.StructuredRecord {
	out := records[:0]
	for _, rec := range records {
		if rec.Question != "" && rec.Answer != "" {
			out = append(out, rec)
		}
	}
	return out
}

func backfill(records []models.StructuredRecord, defaults Defaults) []models.StructuredRecord {
	qType := defaults.Type
	if qType == "" {
		qType = "short-answer"
	}
	module := defaults.Module
	if module == "" || strings.EqualFold(module, "all") {
		module = "General"
	}
	for i := range records {
		if records[i].Type == "" {
			records[i].Type = qType
		}
		if records[i].Difficulty == "" {
			records[i].Difficulty = defaults.Difficulty
		}
		if records[i].Module == "" {
			records[i].Module = module
		}
	}
	return records
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
