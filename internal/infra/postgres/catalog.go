package postgres

import (
	"context"
	"errors"
	"fmt"

	"quiz-attempt-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Catalog stores quizzes relationally: quizzes, questions and options, each
// ordered by a position column.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

// LoadQuiz reads the quiz with its questions and options in authored order.
func (c *Catalog) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := c.pool.QueryRow(ctx,
		`SELECT id, title, subject, duration_minutes, negative_marking FROM quizzes WHERE id=$1`,
		quizID,
	).Scan(&quiz.ID, &quiz.Title, &quiz.Subject, &quiz.DurationMinutes, &quiz.NegativeMarking)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := c.pool.Query(ctx, `
		SELECT q.id, q.statement, o.id, o.label, o.is_correct
		FROM questions q
		LEFT JOIN options o ON o.question_id = q.id
		WHERE q.quiz_id = $1
		ORDER BY q.position, q.id, o.position, o.id`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	quiz.Questions = []domain.Question{}
	for rows.Next() {
		var (
			questionID, statement string
			optionID, label       *string
			correct               *bool
		)
		if err := rows.Scan(&questionID, &statement, &optionID, &label, &correct); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan question: %w", err)
		}
		n := len(quiz.Questions)
		if n == 0 || quiz.Questions[n-1].ID != questionID {
			quiz.Questions = append(quiz.Questions, domain.Question{
				ID:        questionID,
				Statement: statement,
				Options:   []domain.Option{},
			})
			n++
		}
		if optionID == nil {
			continue
		}
		opt := domain.Option{ID: *optionID}
		if label != nil {
			opt.Label = *label
		}
		if correct != nil {
			opt.Correct = *correct
		}
		quiz.Questions[n-1].Options = append(quiz.Questions[n-1].Options, opt)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	return quiz, nil
}

func (c *Catalog) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, title, subject, duration_minutes FROM quizzes ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QuizSummary, 0)
	for rows.Next() {
		var s domain.QuizSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Subject, &s.DurationMinutes); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateQuiz inserts the quiz and all of its children in one transaction.
func (c *Catalog) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	err := c.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO quizzes (id, title, subject, duration_minutes, negative_marking) VALUES ($1, $2, $3, $4, $5)`,
			quiz.ID, quiz.Title, quiz.Subject, quiz.DurationMinutes, quiz.NegativeMarking,
		); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for qi, q := range quiz.Questions {
			batch.Queue(`INSERT INTO questions (id, quiz_id, position, statement) VALUES ($1, $2, $3, $4)`,
				q.ID, quiz.ID, qi, q.Statement)
			for oi, opt := range q.Options {
				batch.Queue(`INSERT INTO options (id, question_id, position, label, is_correct) VALUES ($1, $2, $3, $4, $5)`,
					opt.ID, q.ID, oi, opt.Label, opt.Correct)
			}
		}
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return err
			}
		}
		return br.Close()
	})
	if err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}
