package server

import "github.com/pathshala-ai/pathshala/internal/stream"

// ChatRequest is the payload for both blocking and streaming chat.
type ChatRequest struct {
	Query    string `json:"query"`
	K        int    `json:"k"`
	Language string `json:"language"` // answer language: primary (en) or target (bn)
}

// ChatResponse is the blocking chat answer with its citations.
type ChatResponse struct {
	Answer  string          `json:"answer"`
	Sources []stream.Source `json:"sources"`
	Model   string          `json:"model"`
}

// QuestionsRequest asks for generated practice questions on a topic.
type QuestionsRequest struct {
	Topic      string `json:"topic"`
	Count      int    `json:"count"`
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
	Module     string `json:"module"`
}

// ModelsResponse lists backend models and the one currently serving.
type ModelsResponse struct {
	Models []string `json:"models"`
	Active string   `json:"active"`
}

type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
