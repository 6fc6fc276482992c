package extract

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/pathshala-ai/pathshala/models"
)

func TestExtractFencedArrayRoundTrip(t *testing.T) {
	records := []models.StructuredRecord{
		{Question: "What is a heap?", Answer: "A tree-shaped priority structure.", Type: "short-answer", Difficulty: "easy", Module: "2"},
		{Question: "State quicksort's worst case.", Answer: "O(n^2).", Type: "short-answer", Difficulty: "medium", Module: "3"},
	}
	payload, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	raw := "Sure! Here are the questions you asked for:\n```json\n" + string(payload) + "\n```"

	got, err := Extract(raw, Defaults{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("got %d records, want %d", len(got), len(records))
	}
	for i := range records {
		if got[i] != records[i] {
			t.Fatalf("record %d = %+v, want %+v", i, got[i], records[i])
		}
	}
}

func TestExtractWholeTextArray(t *testing.T) {
	raw := `[{"question":"Q1","answer":"A1"}]`
	got, err := Extract(raw, Defaults{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 1 || got[0].Question != "Q1" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestExtractLooseObjectsInSourceOrder(t *testing.T) {
	raw := `Here is the first question:
{"question":"Q1","answer":"A1"}
and another one,
{"question":"Q2","answer":"A2"} followed by a broken one
{"question":"Q3","answer": and finally
{"question":"Q4","answer":"A4"}`

	got, err := Extract(raw, Defaults{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []string{"Q1", "Q2", "Q4"}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d: %+v", len(got), len(want), got)
	}
	for i, q := range want {
		if got[i].Question != q {
			t.Fatalf("record %d = %s, want %s", i, got[i].Question, q)
		}
	}
}

func TestExtractSkipsObjectsWithoutBothKeys(t *testing.T) {
	raw := `{"question":"orphan"} {"answer":"orphan"} {"question":"Q","answer":"A"}`
	got, err := Extract(raw, Defaults{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 1 || got[0].Question != "Q" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestExtractFailureCarriesRawHead(t *testing.T) {
	raw := strings.Repeat("garbage output ", 200)
	_, err := Extract(raw, Defaults{})
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if len([]rune(perr.Raw)) != 1000 {
		t.Fatalf("diagnostic should carry first 1000 chars, got %d", len([]rune(perr.Raw)))
	}
	if !strings.HasPrefix(perr.Raw, "garbage output") {
		t.Fatalf("diagnostic should be the head of the raw output")
	}
}

func TestExtractNeverSynthesizesRecords(t *testing.T) {
	if got, err := Extract("", Defaults{}); err == nil {
		t.Fatalf("empty input should fail, got %+v", got)
	}
	if got, err := Extract(`{"not":"a question"}`, Defaults{}); err == nil {
		t.Fatalf("irrelevant object should fail, got %+v", got)
	}
}

func TestBackfillDefaults(t *testing.T) {
	raw := `[{"question":"Q","answer":"A"},{"question":"Q2","answer":"A2","type":"mcq","difficulty":"hard","module":"3"}]`

	got, err := Extract(raw, Defaults{Difficulty: "medium", Module: "all"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got[0].Type != "short-answer" || got[0].Difficulty != "medium" || got[0].Module != "General" {
		t.Fatalf("defaults not applied: %+v", got[0])
	}
	// Present fields are never overwritten.
	if got[1].Type != "mcq" || got[1].Difficulty != "hard" || got[1].Module != "3" {
		t.Fatalf("explicit fields clobbered: %+v", got[1])
	}
}
