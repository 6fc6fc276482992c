package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/pathshala-ai/pathshala/models"
)

func TestQuestionsGenerate(t *testing.T) {
	raw := "```json\n[{\"question\":\"What is merge sort?\",\"answer\":\"A divide and conquer sort.\"}]\n```"
	h := &QuestionsHandler{
		Retriever: &stubRetriever{results: someResults()},
		Generator: &stubGenerator{text: raw, model: "qwen2:1.5b"},
	}

	rec := postJSON(t, h.generate, `{"topic":"sorting","count":1,"module":"module-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Questions []models.StructuredRecord `json:"questions"`
		Model     string                    `json:"model"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Questions) != 1 || resp.Model != "qwen2:1.5b" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	q := resp.Questions[0]
	if q.Question != "What is merge sort?" {
		t.Fatalf("question = %q", q.Question)
	}
	if q.Type != "short-answer" || q.Difficulty != "medium" || q.Module != "module-1" {
		t.Fatalf("defaults not backfilled: %+v", q)
	}
}

func TestQuestionsGenerateUnparseable(t *testing.T) {
	h := &QuestionsHandler{
		Retriever: &stubRetriever{results: someResults()},
		Generator: &stubGenerator{text: "I'm sorry, I cannot do that.", model: "m"},
	}
	rec := postJSON(t, h.generate, `{"topic":"sorting"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["raw"] == "" {
		t.Fatal("diagnostic raw output missing")
	}
}

func TestQuestionsRejectsEmptyTopic(t *testing.T) {
	h := &QuestionsHandler{Retriever: &stubRetriever{}, Generator: &stubGenerator{}}
	rec := postJSON(t, h.generate, `{"topic":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
