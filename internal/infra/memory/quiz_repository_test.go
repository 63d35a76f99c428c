package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewCatalog(sampleQuiz())}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.CorrectOptions(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("correct options: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryReloadsAfterExpiry(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewCatalog(sampleQuiz())}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryCorrectOptions(t *testing.T) {
	repo := NewQuizRepository(NewCatalog(sampleQuiz()), time.Minute)

	key, err := repo.CorrectOptions(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("correct options: %v", err)
	}
	if len(key) != 1 || key["q1"] != "o2" {
		t.Fatalf("unexpected answer key %+v", key)
	}

	// callers get their own copy
	key["q1"] = "tampered"
	again, _ := repo.CorrectOptions(context.Background(), "quiz-1")
	if again["q1"] != "o2" {
		t.Fatalf("cached key was mutated: %+v", again)
	}
}

func TestQuizRepositoryUnknownQuiz(t *testing.T) {
	repo := NewQuizRepository(NewCatalog(), time.Minute)
	_, err := repo.GetQuiz(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:              "quiz-1",
		Title:           "Arithmetic",
		Subject:         "Math",
		DurationMinutes: 10,
		Questions: []domain.Question{
			{
				ID:        "q1",
				Statement: "What is 2 + 2?",
				Options: []domain.Option{
					{ID: "o1", Label: "3", Correct: false},
					{ID: "o2", Label: "4", Correct: true},
				},
			},
			{
				ID:        "q2",
				Statement: "Opinion poll, no right answer",
				Options: []domain.Option{
					{ID: "o3", Label: "yes"},
					{ID: "o4", Label: "no"},
				},
			},
		},
	}
}
