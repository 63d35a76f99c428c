package report

import (
	"bytes"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/xuri/excelize/v2"
)

func TestAttemptsExcel(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	submitted := started.Add(7 * time.Minute)
	attempts := []domain.Attempt{
		{
			ID: "a1", QuizID: "quiz-1", Name: "Alice", StartedAt: started,
			SubmittedAt: &submitted,
			Result:      &domain.ScoreResult{Total: 5, Correct: 3, Wrong: 2, Score: 11.5},
		},
		{ID: "a2", QuizID: "quiz-1", Name: "Bob", StartedAt: started.Add(time.Minute)},
	}

	data, err := AttemptsExcel(domain.QuizSummary{ID: "quiz-1", Title: "Kinematics", Subject: "Physics", DurationMinutes: 10}, attempts)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Attempts")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected title, header and 2 attempt rows, got %d", len(rows))
	}
	if rows[0][0] != "Kinematics" || rows[1][0] != "attempt_id" {
		t.Fatalf("unexpected leading rows %v", rows[:2])
	}
	alice := rows[2]
	if alice[1] != "Alice" || alice[2] != domain.StatusSubmitted || alice[4] != "2026-03-01 09:07:00" || alice[8] != "11.5" {
		t.Fatalf("unexpected submitted row %v", alice)
	}
	bob := rows[3]
	if bob[2] != domain.StatusInProgress || len(bob) != 4 {
		t.Fatalf("expected in-progress row without result columns, got %v", bob)
	}
}
