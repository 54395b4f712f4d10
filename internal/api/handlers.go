// Package api exposes the HTTP surface consumed by the UI.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"docuchat/internal/apperr"
	"docuchat/internal/generation"
	"docuchat/internal/ingest"
	"docuchat/internal/models"
)

// maxBodyBytes caps uploads and JSON bodies at 10 MB.
const maxBodyBytes = 10 << 20

type Ingestor interface {
	Ingest(ctx context.Context, filename string, data []byte) (*ingest.Result, error)
}

type Generator interface {
	AnswerQuestion(ctx context.Context, namespace, question, language string) (*generation.Answer, error)
	GenerateSummary(ctx context.Context, namespace, language string) (string, error)
	GenerateQuiz(ctx context.Context, namespace, language string, numQuestions int) ([]models.QuizQuestion, error)
}

// Handler holds the dependencies for the HTTP handlers.
type Handler struct {
	ingestor  Ingestor
	generator Generator
}

func NewHandler(ingestor Ingestor, generator Generator) *Handler {
	return &Handler{ingestor: ingestor, generator: generator}
}

// HandleUpload handles POST /api/upload (multipart file).
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		sendJSON(w, http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	result, err := h.ingestor.Ingest(r.Context(), header.Filename, data)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

type chatRequest struct {
	DocID    string `json:"docId"`
	Question string `json:"question"`
	Language string `json:"language"`
}

// HandleChat handles POST /api/chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, r, err)
		return
	}
	if req.DocID == "" || req.Question == "" {
		h.sendError(w, r, &apperr.ValidationError{Msg: "docId and question are required"})
		return
	}

	answer, err := h.generator.AnswerQuestion(r.Context(), req.DocID, req.Question, req.Language)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, answer)
}

type summaryRequest struct {
	DocID    string `json:"docId"`
	Language string `json:"language"`
}

// HandleSummary handles POST /api/summary.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, r, err)
		return
	}
	if req.DocID == "" {
		h.sendError(w, r, &apperr.ValidationError{Msg: "docId is required"})
		return
	}

	summary, err := h.generator.GenerateSummary(r.Context(), req.DocID, req.Language)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

type quizRequest struct {
	DocID        string `json:"docId"`
	Language     string `json:"language"`
	NumQuestions int    `json:"numQuestions"`
}

type quizResponse struct {
	Questions []models.QuizQuestion `json:"questions"`
	Error     string                `json:"error,omitempty"`
}

// HandleQuiz handles POST /api/quiz. A quiz whose model output could not be
// parsed is still a 200, with an empty list and an error field.
func (h *Handler) HandleQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, r, err)
		return
	}
	if req.DocID == "" {
		h.sendError(w, r, &apperr.ValidationError{Msg: "docId is required"})
		return
	}

	questions, err := h.generator.GenerateQuiz(r.Context(), req.DocID, req.Language, req.NumQuestions)
	if err != nil {
		var parseErr *apperr.ParseError
		if errors.As(err, &parseErr) {
			sendJSON(w, http.StatusOK, quizResponse{
				Questions: []models.QuizQuestion{},
				Error:     "Failed to parse quiz questions",
			})
			return
		}
		h.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, quizResponse{Questions: questions})
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &apperr.ValidationError{Msg: "invalid JSON body"}
	}
	return nil
}

// sendError maps validation failures to a 400 with their message; every
// other error is logged in full and surfaced as a sanitized 500.
func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *apperr.ValidationError
	if errors.As(err, &vErr) {
		sendJSON(w, http.StatusBadRequest, map[string]string{"error": vErr.Msg})
		return
	}
	log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	sendJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
}

func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
