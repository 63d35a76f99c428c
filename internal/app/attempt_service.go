package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/google/uuid"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	// CorrectOptions returns question id -> correct option id for the quiz.
	CorrectOptions(ctx context.Context, quizID string) (map[string]string, error)
}

// AttemptStore persists attempts and their answers (in-memory, Redis, Postgres).
//
// UpsertAnswer and FinalizeAttempt must check that the attempt is still in
// progress in the same atomic step as the write and return
// domain.ErrAttemptSubmitted otherwise. Answers are keyed by (attempt, question),
// so concurrent writes for different questions never interfere and writes for the
// same question are last-write-wins.
type AttemptStore interface {
	CreateAttempt(ctx context.Context, attempt domain.Attempt) error
	GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error)
	UpsertAnswer(ctx context.Context, attemptID, questionID, optionID string) error
	GetAnswers(ctx context.Context, attemptID string) (domain.Answers, error)
	FinalizeAttempt(ctx context.Context, attemptID string, submittedAt time.Time, result domain.ScoreResult) error
	ListAttempts(ctx context.Context, quizID string) ([]domain.Attempt, error)
}

// AttemptService owns the attempt lifecycle: start, record answers, submit.
// It keeps no per-attempt state between calls.
type AttemptService struct {
	attempts AttemptStore
	quizzes  QuizRepository
	now      func() time.Time
	newID    func() string
}

func NewAttemptService(attempts AttemptStore, quizzes QuizRepository) *AttemptService {
	return NewAttemptServiceWithClock(attempts, quizzes, time.Now)
}

// NewAttemptServiceWithClock is test-only for deterministic timestamps.
func NewAttemptServiceWithClock(attempts AttemptStore, quizzes QuizRepository, now func() time.Time) *AttemptService {
	return &AttemptService{
		attempts: attempts,
		quizzes:  quizzes,
		now:      now,
		newID:    uuid.NewString,
	}
}

// Start opens a new in-progress attempt for the participant.
func (s *AttemptService) Start(ctx context.Context, quizID, name string) (domain.Attempt, error) {
	quizID = strings.TrimSpace(quizID)
	name = strings.TrimSpace(name)
	if quizID == "" {
		return domain.Attempt{}, domain.ErrQuizRequired
	}
	if name == "" {
		return domain.Attempt{}, domain.ErrNameRequired
	}
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.Attempt{}, err
	}

	attempt := domain.Attempt{
		ID:        s.newID(),
		QuizID:    quizID,
		Name:      name,
		StartedAt: s.now().UTC(),
	}
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return domain.Attempt{}, err
	}
	return attempt, nil
}

// RecordAnswer upserts the chosen option for one question. An empty optionID
// clears a previous choice. The option is not checked against the question; an
// unknown option is simply scored as wrong.
func (s *AttemptService) RecordAnswer(ctx context.Context, attemptID, questionID, optionID string) error {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return err
	}
	if questionID == "" {
		return domain.ErrQuestionRequired
	}
	if attempt.Submitted() {
		return domain.ErrAttemptSubmitted
	}

	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return err
	}
	if !quiz.HasQuestion(questionID) {
		return domain.ErrQuestionNotInQuiz
	}
	return s.attempts.UpsertAnswer(ctx, attemptID, questionID, optionID)
}

// Submit scores the attempt and moves it to the submitted state. Submitting an
// already submitted attempt returns the stored result unchanged.
func (s *AttemptService) Submit(ctx context.Context, attemptID string) (domain.ScoreResult, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return domain.ScoreResult{}, err
	}
	if attempt.Submitted() {
		return storedResult(attempt)
	}

	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return domain.ScoreResult{}, err
	}
	key, err := s.quizzes.CorrectOptions(ctx, attempt.QuizID)
	if err != nil {
		return domain.ScoreResult{}, err
	}
	answers, err := s.attempts.GetAnswers(ctx, attemptID)
	if err != nil {
		return domain.ScoreResult{}, err
	}

	result := Score(quiz.NegativeMarking, key, answers)
	err = s.attempts.FinalizeAttempt(ctx, attemptID, s.now().UTC(), result)
	if errors.Is(err, domain.ErrAttemptSubmitted) {
		// A concurrent submit finalized first; its result is the one that counts.
		attempt, err = s.attempts.GetAttempt(ctx, attemptID)
		if err != nil {
			return domain.ScoreResult{}, err
		}
		return storedResult(attempt)
	}
	if err != nil {
		return domain.ScoreResult{}, err
	}

	log.Printf("attempt %s submitted: total=%d correct=%d wrong=%d score=%v",
		attemptID, result.Total, result.Correct, result.Wrong, result.Score)
	return result, nil
}

// GetAttempt returns the attempt record.
func (s *AttemptService) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	return s.attempts.GetAttempt(ctx, attemptID)
}

// ListAttempts returns every attempt of a quiz, oldest first.
func (s *AttemptService) ListAttempts(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	return s.attempts.ListAttempts(ctx, quizID)
}

func storedResult(attempt domain.Attempt) (domain.ScoreResult, error) {
	if attempt.Result == nil {
		return domain.ScoreResult{}, fmt.Errorf("attempt %s submitted without a stored result", attempt.ID)
	}
	return *attempt.Result, nil
}
