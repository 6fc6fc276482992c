package generate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pathshala-ai/pathshala/models"
)

// MaxContextChars bounds the context section of a prompt. Small local
// models degrade sharply past this.
const MaxContextChars = 2000

// QueryKind shapes the prompt preamble to the question's flavor.
type QueryKind string

const (
	KindDefinition QueryKind = "definition"
	KindProcess    QueryKind = "process"
	KindComplexity QueryKind = "complexity"
	KindPurpose    QueryKind = "purpose"
	KindGeneral    QueryKind = "general"
)

var kindPreambles = map[QueryKind]string{
	KindDefinition: "Give a precise definition first, then elaborate briefly.",
	KindProcess:    "Explain the steps in order.",
	KindComplexity: "State the asymptotic bounds and justify them briefly.",
	KindPurpose:    "Explain what it is used for and why.",
	KindGeneral:    "Answer concisely using only the provided materials.",
}

// DetectQueryKind keys off common phrasings in either language.
func DetectQueryKind(query string) QueryKind {
	q := strings.ToLower(query)
	// "কীভাবে" (how) contains "কী" (what), so process is checked first.
	switch {
	case strings.Contains(q, "complexity") || strings.Contains(q, "running time") || strings.Contains(q, "big-o") || strings.Contains(q, "জটিলতা"):
		return KindComplexity
	case strings.Contains(q, "how does") || strings.Contains(q, "how do") || strings.Contains(q, "steps") || strings.Contains(q, "কীভাবে"):
		return KindProcess
	case strings.Contains(q, "what is") || strings.Contains(q, "define") || strings.Contains(q, "কী") || strings.Contains(q, "কাকে বলে"):
		return KindDefinition
	case strings.Contains(q, "why") || strings.Contains(q, "purpose") || strings.Contains(q, "কেন"):
		return KindPurpose
	default:
		return KindGeneral
	}
}

// languageInstruction is the caller's requested answer language, which
// is independent of the detected query language.
func languageInstruction(answerLanguage string) string {
	switch answerLanguage {
	case "bn", "target":
		return "Answer in Bengali (বাংলা)."
	default:
		return "Answer in English."
	}
}

// BuildPrompt assembles the generation prompt from ranked chunks,
// highest score first, truncated to the character budget.
func BuildPrompt(results []models.RetrievalResult, query, answerLanguage string) string {
	var ctxParts []string
	remaining := MaxContextChars
	for _, r := range results {
		text := r.Chunk.Content
		if r.Chunk.Page > 0 {
			text = fmt.Sprintf("%s (Page %d)", text, r.Chunk.Page)
		}
		if len(text) > remaining {
			if remaining < 100 {
				break
			}
			text = truncateRunes(text, remaining)
		}
		ctxParts = append(ctxParts, text)
		remaining -= len(text)
		if remaining <= 0 {
			break
		}
	}

	return fmt.Sprintf(`Based on the following course materials, answer the question.

Context:
%s

Question: %s

%s %s
Answer:`,
		strings.Join(ctxParts, "\n\n"),
		query,
		kindPreambles[DetectQueryKind(query)],
		languageInstruction(answerLanguage))
}

// truncateRunes cuts to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
