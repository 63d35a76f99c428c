package http

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/report"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// AdminTokenHeader carries the shared admin secret.
const AdminTokenHeader = "X-Admin-Token"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var validate = validator.New()

// AdminAuth checks the shared secret against a bcrypt hash when one is set and
// against the plain token otherwise.
type AdminAuth struct {
	token []byte
	hash  []byte
}

func NewAdminAuth(token, tokenHash string) *AdminAuth {
	a := &AdminAuth{token: []byte(token)}
	if tokenHash != "" {
		a.hash = []byte(tokenHash)
	}
	return a
}

func (a *AdminAuth) Verify(presented string) bool {
	if presented == "" {
		return false
	}
	if a.hash != nil {
		return bcrypt.CompareHashAndPassword(a.hash, []byte(presented)) == nil
	}
	if len(a.token) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(a.token, []byte(presented)) == 1
}

func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Verify(r.Header.Get(AdminTokenHeader)) {
			writeError(w, r, domain.ErrInvalidAdminToken)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type AdminHandler struct {
	catalog  *app.CatalogService
	attempts *app.AttemptService
}

func NewAdminHandler(catalog *app.CatalogService, attempts *app.AttemptService) *AdminHandler {
	return &AdminHandler{catalog: catalog, attempts: attempts}
}

type createQuizRequest struct {
	Title           string                  `json:"title" validate:"required"`
	Subject         string                  `json:"subject" validate:"required"`
	DurationMinutes int                     `json:"duration_minutes" validate:"omitempty,min=1"`
	NegativeMarking float64                 `json:"negative_marking" validate:"min=0"`
	Questions       []createQuestionRequest `json:"questions" validate:"dive"`
}

type createQuestionRequest struct {
	Statement string                `json:"statement" validate:"required"`
	Options   []createOptionRequest `json:"options" validate:"min=1,dive"`
}

type createOptionRequest struct {
	Label     string `json:"label" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

func (req createQuizRequest) toDomain() domain.Quiz {
	quiz := domain.Quiz{
		Title:           req.Title,
		Subject:         req.Subject,
		DurationMinutes: req.DurationMinutes,
		NegativeMarking: req.NegativeMarking,
		Questions:       make([]domain.Question, 0, len(req.Questions)),
	}
	for _, q := range req.Questions {
		question := domain.Question{Statement: q.Statement}
		for _, opt := range q.Options {
			question.Options = append(question.Options, domain.Option{Label: opt.Label, Correct: opt.IsCorrect})
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz
}

func (h *AdminHandler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, validationError(err))
		return
	}
	quiz, err := h.catalog.Create(r.Context(), req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": quiz.ID})
}

// AttemptsReport streams every attempt of the quiz as an XLSX workbook.
func (h *AdminHandler) AttemptsReport(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "id")
	quiz, err := h.catalog.Quiz(r.Context(), quizID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	attempts, err := h.attempts.ListAttempts(r.Context(), quizID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := report.AttemptsExcel(quiz.Summary(), attempts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "attempts-"+quizID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.InvalidInput(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return domain.InvalidInput(strings.Join(msgs, "; "))
}
