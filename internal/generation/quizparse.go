package generation

import (
	"encoding/json"
	"regexp"
	"strings"

	"docuchat/internal/apperr"
	"docuchat/internal/models"
)

var codeFenceRe = regexp.MustCompile("```(?:json)?\n?")

// ParseQuiz extracts quiz questions from free-form model output. The model
// is asked for a bare JSON array but does not always comply, so this strips
// markdown code fences, takes the widest bracketed span, and decodes that.
// It never panics: any failure returns an empty result and a ParseError.
func ParseQuiz(raw string) ([]models.QuizQuestion, error) {
	text := strings.TrimSpace(codeFenceRe.ReplaceAllString(raw, ""))

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, &apperr.ParseError{Msg: "no JSON array found in model output"}
	}

	var questions []models.QuizQuestion
	if err := json.Unmarshal([]byte(text[start:end+1]), &questions); err != nil {
		return nil, &apperr.ParseError{Msg: "failed to decode quiz questions: " + err.Error()}
	}
	return questions, nil
}
