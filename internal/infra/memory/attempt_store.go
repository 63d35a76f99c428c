package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptStore. A single
// mutex makes the state check and the write of every operation one step.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]*attemptRecord
}

type attemptRecord struct {
	attempt domain.Attempt
	answers domain.Answers
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[string]*attemptRecord)}
}

func (s *AttemptStore) CreateAttempt(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.ID] = &attemptRecord{
		attempt: attempt,
		answers: make(domain.Answers),
	}
	return nil
}

func (s *AttemptStore) GetAttempt(_ context.Context, attemptID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return copyAttempt(rec.attempt), nil
}

func (s *AttemptStore) UpsertAnswer(_ context.Context, attemptID, questionID, optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.attempts[attemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if rec.attempt.Submitted() {
		return domain.ErrAttemptSubmitted
	}
	rec.answers[questionID] = optionID
	return nil
}

func (s *AttemptStore) GetAnswers(_ context.Context, attemptID string) (domain.Answers, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.attempts[attemptID]
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	out := make(domain.Answers, len(rec.answers))
	for q, o := range rec.answers {
		out[q] = o
	}
	return out, nil
}

func (s *AttemptStore) FinalizeAttempt(_ context.Context, attemptID string, submittedAt time.Time, result domain.ScoreResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.attempts[attemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if rec.attempt.Submitted() {
		return domain.ErrAttemptSubmitted
	}
	rec.attempt.SubmittedAt = &submittedAt
	rec.attempt.Result = &result
	return nil
}

func (s *AttemptStore) ListAttempts(_ context.Context, quizID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Attempt, 0)
	for _, rec := range s.attempts {
		if rec.attempt.QuizID == quizID {
			out = append(out, copyAttempt(rec.attempt))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

// copyAttempt detaches the pointer fields so callers cannot mutate stored state.
func copyAttempt(a domain.Attempt) domain.Attempt {
	if a.SubmittedAt != nil {
		t := *a.SubmittedAt
		a.SubmittedAt = &t
	}
	if a.Result != nil {
		r := *a.Result
		a.Result = &r
	}
	return a
}
