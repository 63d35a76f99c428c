package postgres

import (
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func TestAttemptModelToDomain(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))

	open := attemptModel{ID: "a1", QuizID: "quiz-1", Name: "Alice", StartedAt: started}
	got := open.toDomain()
	if got.Submitted() || got.Result != nil {
		t.Fatalf("expected in-progress attempt, got %+v", got)
	}
	if got.StartedAt.Location() != time.UTC || !got.StartedAt.Equal(started) {
		t.Fatalf("expected started_at normalized to UTC, got %v", got.StartedAt)
	}

	submitted := started.Add(5 * time.Minute)
	total, correct, wrong, score := 3, 2, 1, 7.75
	done := attemptModel{
		ID: "a1", QuizID: "quiz-1", Name: "Alice", StartedAt: started,
		SubmittedAt: &submitted, Total: &total, Correct: &correct, Wrong: &wrong, Score: &score,
	}
	got = done.toDomain()
	if got.Status() != domain.StatusSubmitted {
		t.Fatalf("expected submitted attempt, got %s", got.Status())
	}
	want := domain.ScoreResult{Total: 3, Correct: 2, Wrong: 1, Score: 7.75}
	if got.Result == nil || *got.Result != want {
		t.Fatalf("result mismatch got=%+v want=%+v", got.Result, want)
	}
}
