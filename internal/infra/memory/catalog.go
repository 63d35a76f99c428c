package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// Catalog is an in-memory quiz catalog (useful for tests/demos and single-node runs).
type Catalog struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewCatalog(quizzes ...domain.Quiz) *Catalog {
	c := &Catalog{quizzes: make(map[string]domain.Quiz, len(quizzes))}
	for _, q := range quizzes {
		c.quizzes[q.ID] = q
	}
	return c
}

func (c *Catalog) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if quiz, ok := c.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (c *Catalog) ListQuizzes(_ context.Context) ([]domain.QuizSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.QuizSummary, 0, len(c.quizzes))
	for _, q := range c.quizzes {
		out = append(out, q.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (c *Catalog) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quizzes[quiz.ID] = quiz
	return nil
}
