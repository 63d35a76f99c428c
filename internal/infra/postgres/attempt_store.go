package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/uptrace/bun"
)

type attemptModel struct {
	bun.BaseModel `bun:"table:attempts"`

	ID          string     `bun:"id,pk"`
	QuizID      string     `bun:"quiz_id,notnull"`
	Name        string     `bun:"name,notnull"`
	StartedAt   time.Time  `bun:"started_at,notnull"`
	SubmittedAt *time.Time `bun:"submitted_at"`
	Total       *int       `bun:"total"`
	Correct     *int       `bun:"correct"`
	Wrong       *int       `bun:"wrong"`
	Score       *float64   `bun:"score"`
}

type answerModel struct {
	bun.BaseModel `bun:"table:answers"`

	AttemptID  string  `bun:"attempt_id,pk"`
	QuestionID string  `bun:"question_id,pk"`
	OptionID   *string `bun:"option_id"`
}

// AttemptStore persists attempts through bun. Answer writes hold a share lock on
// the attempt row and finalize only updates rows whose submitted_at is still
// NULL, so an answer can never be stored after the attempt was scored.
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) CreateAttempt(ctx context.Context, attempt domain.Attempt) error {
	m := &attemptModel{
		ID:        attempt.ID,
		QuizID:    attempt.QuizID,
		Name:      attempt.Name,
		StartedAt: attempt.StartedAt.UTC(),
	}
	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	m := new(attemptModel)
	err := s.db.NewSelect().Model(m).Where("id = ?", attemptID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	return m.toDomain(), nil
}

func (s *AttemptStore) UpsertAnswer(ctx context.Context, attemptID, questionID, optionID string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		m := new(attemptModel)
		err := tx.NewSelect().
			Model(m).
			Column("id", "submitted_at").
			Where("id = ?", attemptID).
			For("SHARE").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrAttemptNotFound
		}
		if err != nil {
			return fmt.Errorf("lock attempt: %w", err)
		}
		if m.SubmittedAt != nil {
			return domain.ErrAttemptSubmitted
		}

		answer := &answerModel{AttemptID: attemptID, QuestionID: questionID}
		if optionID != "" {
			answer.OptionID = &optionID
		}
		_, err = tx.NewInsert().
			Model(answer).
			On("CONFLICT (attempt_id, question_id) DO UPDATE").
			Set("option_id = EXCLUDED.option_id").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert answer: %w", err)
		}
		return nil
	})
}

func (s *AttemptStore) GetAnswers(ctx context.Context, attemptID string) (domain.Answers, error) {
	if err := s.ensureExists(ctx, attemptID); err != nil {
		return nil, err
	}
	var rows []answerModel
	if err := s.db.NewSelect().Model(&rows).Where("attempt_id = ?", attemptID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("get answers: %w", err)
	}
	answers := make(domain.Answers, len(rows))
	for _, r := range rows {
		if r.OptionID != nil {
			answers[r.QuestionID] = *r.OptionID
		} else {
			answers[r.QuestionID] = ""
		}
	}
	return answers, nil
}

func (s *AttemptStore) FinalizeAttempt(ctx context.Context, attemptID string, submittedAt time.Time, result domain.ScoreResult) error {
	res, err := s.db.NewUpdate().
		Model((*attemptModel)(nil)).
		Set("submitted_at = ?", submittedAt.UTC()).
		Set("total = ?", result.Total).
		Set("correct = ?", result.Correct).
		Set("wrong = ?", result.Wrong).
		Set("score = ?", result.Score).
		Where("id = ?", attemptID).
		Where("submitted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("finalize attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize attempt: %w", err)
	}
	if n == 1 {
		return nil
	}
	if err := s.ensureExists(ctx, attemptID); err != nil {
		return err
	}
	return domain.ErrAttemptSubmitted
}

func (s *AttemptStore) ListAttempts(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	var rows []attemptModel
	err := s.db.NewSelect().
		Model(&rows).
		Where("quiz_id = ?", quizID).
		Order("started_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.Attempt, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (s *AttemptStore) ensureExists(ctx context.Context, attemptID string) error {
	exists, err := s.db.NewSelect().
		Model((*attemptModel)(nil)).
		Where("id = ?", attemptID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("check attempt: %w", err)
	}
	if !exists {
		return domain.ErrAttemptNotFound
	}
	return nil
}

func (m *attemptModel) toDomain() domain.Attempt {
	attempt := domain.Attempt{
		ID:        m.ID,
		QuizID:    m.QuizID,
		Name:      m.Name,
		StartedAt: m.StartedAt.UTC(),
	}
	if m.SubmittedAt == nil {
		return attempt
	}
	submittedAt := m.SubmittedAt.UTC()
	attempt.SubmittedAt = &submittedAt
	result := domain.ScoreResult{}
	if m.Total != nil {
		result.Total = *m.Total
	}
	if m.Correct != nil {
		result.Correct = *m.Correct
	}
	if m.Wrong != nil {
		result.Wrong = *m.Wrong
	}
	if m.Score != nil {
		result.Score = *m.Score
	}
	attempt.Result = &result
	return attempt
}
