package memory

import (
	"context"
	"testing"

	"quiz-attempt-service/internal/domain"
)

func TestCatalogListSortedByTitle(t *testing.T) {
	c := NewCatalog(
		domain.Quiz{ID: "b", Title: "Optics", Subject: "Physics", DurationMinutes: 5},
		domain.Quiz{ID: "a", Title: "Kinematics", Subject: "Physics", DurationMinutes: 10},
	)
	if err := c.CreateQuiz(context.Background(), domain.Quiz{ID: "c", Title: "Algebra", Subject: "Math"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := c.ListQuizzes(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 quizzes, got %d", len(list))
	}
	if list[0].Title != "Algebra" || list[1].Title != "Kinematics" || list[2].Title != "Optics" {
		t.Fatalf("unexpected order %+v", list)
	}
	if list[1].DurationMinutes != 10 {
		t.Fatalf("expected duration carried into summary, got %+v", list[1])
	}
}
