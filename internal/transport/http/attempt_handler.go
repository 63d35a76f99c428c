package http

import (
	"net/http"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"

	"github.com/go-chi/chi/v5"
)

type AttemptHandler struct {
	service *app.AttemptService
}

func NewAttemptHandler(service *app.AttemptService) *AttemptHandler {
	return &AttemptHandler{service: service}
}

type startRequest struct {
	QuizID string `json:"quiz_id"`
	Name   string `json:"name"`
}

type startResponse struct {
	AttemptID string    `json:"attempt_id"`
	StartedAt time.Time `json:"started_at"`
}

type answerRequest struct {
	QuestionID string  `json:"question_id"`
	OptionID   *string `json:"option_id"`
}

type attemptResponse struct {
	ID          string              `json:"id"`
	QuizID      string              `json:"quiz_id"`
	Name        string              `json:"name"`
	Status      string              `json:"status"`
	StartedAt   time.Time           `json:"started_at"`
	SubmittedAt *time.Time          `json:"submitted_at"`
	Score       *float64            `json:"score"`
	Result      *domain.ScoreResult `json:"result"`
}

func (h *AttemptHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	attempt, err := h.service.Start(r.Context(), req.QuizID, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, startResponse{AttemptID: attempt.ID, StartedAt: attempt.StartedAt})
}

// Answer records a choice; a null option_id clears the question.
func (h *AttemptHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	optionID := ""
	if req.OptionID != nil {
		optionID = *req.OptionID
	}
	if err := h.service.RecordAnswer(r.Context(), chi.URLParam(r, "id"), req.QuestionID, optionID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AttemptHandler) Submit(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AttemptHandler) Get(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.service.GetAttempt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := attemptResponse{
		ID:          attempt.ID,
		QuizID:      attempt.QuizID,
		Name:        attempt.Name,
		Status:      attempt.Status(),
		StartedAt:   attempt.StartedAt,
		SubmittedAt: attempt.SubmittedAt,
		Result:      attempt.Result,
	}
	if attempt.Result != nil {
		score := attempt.Result.Score
		resp.Score = &score
	}
	writeJSON(w, http.StatusOK, resp)
}
