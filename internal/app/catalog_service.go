package app

import (
	"context"
	"log"
	"strings"

	"quiz-attempt-service/internal/domain"

	"github.com/google/uuid"
)

// DefaultDurationMinutes applies to quizzes created without a duration.
const DefaultDurationMinutes = 15

// Catalog stores quiz definitions (authoring side).
type Catalog interface {
	ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error)
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
}

// CatalogService exposes read-only quiz views to participants and quiz
// creation to admins.
type CatalogService struct {
	catalog Catalog
	quizzes QuizRepository
	newID   func() string
}

func NewCatalogService(catalog Catalog, quizzes QuizRepository) *CatalogService {
	return &CatalogService{catalog: catalog, quizzes: quizzes, newID: uuid.NewString}
}

// List returns quiz summaries.
func (s *CatalogService) List(ctx context.Context) ([]domain.QuizSummary, error) {
	return s.catalog.ListQuizzes(ctx)
}

// Get returns the participant view of a quiz, without correctness flags.
func (s *CatalogService) Get(ctx context.Context, quizID string) (domain.PublicQuiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.PublicQuiz{}, err
	}
	return quiz.Public(), nil
}

// Quiz returns the full quiz including the answer key. Admin use only.
func (s *CatalogService) Quiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// Create assigns fresh ids to the quiz, its questions and options and stores it.
// Quizzes are never edited afterwards, which keeps running attempts consistent.
func (s *CatalogService) Create(ctx context.Context, draft domain.Quiz) (domain.Quiz, error) {
	quiz := draft
	quiz.Title = strings.TrimSpace(quiz.Title)
	quiz.Subject = strings.TrimSpace(quiz.Subject)
	if quiz.Title == "" || quiz.Subject == "" {
		return domain.Quiz{}, domain.InvalidInput("title and subject required")
	}
	if quiz.NegativeMarking < 0 {
		return domain.Quiz{}, domain.InvalidInput("negative_marking must not be negative")
	}
	if quiz.DurationMinutes <= 0 {
		quiz.DurationMinutes = DefaultDurationMinutes
	}

	quiz.ID = s.newID()
	quiz.Questions = make([]domain.Question, 0, len(draft.Questions))
	for _, q := range draft.Questions {
		if len(q.Options) == 0 {
			return domain.Quiz{}, domain.InvalidInput("every question needs at least one option")
		}
		question := domain.Question{
			ID:        s.newID(),
			Statement: q.Statement,
			Options:   make([]domain.Option, 0, len(q.Options)),
		}
		for _, opt := range q.Options {
			question.Options = append(question.Options, domain.Option{
				ID:      s.newID(),
				Label:   opt.Label,
				Correct: opt.Correct,
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	if err := s.catalog.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// SeedIfEmpty creates the given quizzes when the catalog holds none.
func (s *CatalogService) SeedIfEmpty(ctx context.Context, quizzes ...domain.Quiz) error {
	existing, err := s.catalog.ListQuizzes(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, q := range quizzes {
		created, err := s.Create(ctx, q)
		if err != nil {
			return err
		}
		log.Printf("seeded quiz %q (%s)", created.Title, created.ID)
	}
	return nil
}
