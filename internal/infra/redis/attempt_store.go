package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Attempt layout:
//
//	HSET attempt:{id}          quiz_id name started_at [submitted_at total correct wrong score]
//	HSET attempt:{id}:answers  {questionID} {optionID}
//	SADD quiz:{quizID}:attempts {id}
//
// Upsert and finalize run as Lua scripts so the submitted check and the write are atomic.

const (
	scriptMissing   = -1
	scriptSubmitted = 0
)

var upsertAnswerScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
if redis.call('HEXISTS', KEYS[1], 'submitted_at') == 1 then return 0 end
redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
local ttl = redis.call('PTTL', KEYS[1])
if ttl > 0 then redis.call('PEXPIRE', KEYS[2], ttl) end
return 1
`)

var finalizeAttemptScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
if redis.call('HEXISTS', KEYS[1], 'submitted_at') == 1 then return 0 end
redis.call('HSET', KEYS[1], 'submitted_at', ARGV[1], 'total', ARGV[2], 'correct', ARGV[3], 'wrong', ARGV[4], 'score', ARGV[5])
return 1
`)

// AttemptStore persists attempts in Redis. A zero ttl keeps attempts forever.
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{client: client, ttl: ttl}
}

func (s *AttemptStore) CreateAttempt(ctx context.Context, attempt domain.Attempt) error {
	key := attemptKey(attempt.ID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"quiz_id", attempt.QuizID,
			"name", attempt.Name,
			"started_at", attempt.StartedAt.UTC().Format(time.RFC3339Nano),
		)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		pipe.SAdd(ctx, quizAttemptsKey(attempt.QuizID), attempt.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	fields, err := s.client.HGetAll(ctx, attemptKey(attemptID)).Result()
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	if len(fields) == 0 {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return decodeAttempt(attemptID, fields)
}

func (s *AttemptStore) UpsertAnswer(ctx context.Context, attemptID, questionID, optionID string) error {
	keys := []string{attemptKey(attemptID), answersKey(attemptID)}
	res, err := upsertAnswerScript.Run(ctx, s.client, keys, questionID, optionID).Int()
	if err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}
	return scriptResult(res)
}

func (s *AttemptStore) GetAnswers(ctx context.Context, attemptID string) (domain.Answers, error) {
	exists, err := s.client.Exists(ctx, attemptKey(attemptID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get answers: %w", err)
	}
	if exists == 0 {
		return nil, domain.ErrAttemptNotFound
	}
	answers, err := s.client.HGetAll(ctx, answersKey(attemptID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get answers: %w", err)
	}
	return domain.Answers(answers), nil
}

func (s *AttemptStore) FinalizeAttempt(ctx context.Context, attemptID string, submittedAt time.Time, result domain.ScoreResult) error {
	res, err := finalizeAttemptScript.Run(ctx, s.client, []string{attemptKey(attemptID)},
		submittedAt.UTC().Format(time.RFC3339Nano),
		result.Total,
		result.Correct,
		result.Wrong,
		strconv.FormatFloat(result.Score, 'f', -1, 64),
	).Int()
	if err != nil {
		return fmt.Errorf("finalize attempt: %w", err)
	}
	return scriptResult(res)
}

// ListAttempts skips ids whose attempt hash already expired.
func (s *AttemptStore) ListAttempts(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	ids, err := s.client.SMembers(ctx, quizAttemptsKey(quizID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.Attempt, 0, len(ids))
	for _, id := range ids {
		attempt, err := s.GetAttempt(ctx, id)
		if errors.Is(err, domain.ErrAttemptNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attempt)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

func scriptResult(res int) error {
	switch res {
	case scriptMissing:
		return domain.ErrAttemptNotFound
	case scriptSubmitted:
		return domain.ErrAttemptSubmitted
	}
	return nil
}

func decodeAttempt(id string, fields map[string]string) (domain.Attempt, error) {
	startedAt, err := time.Parse(time.RFC3339Nano, fields["started_at"])
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("decode attempt %s: %w", id, err)
	}
	attempt := domain.Attempt{
		ID:        id,
		QuizID:    fields["quiz_id"],
		Name:      fields["name"],
		StartedAt: startedAt,
	}
	raw, ok := fields["submitted_at"]
	if !ok {
		return attempt, nil
	}
	submittedAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("decode attempt %s: %w", id, err)
	}
	result, err := decodeResult(fields)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("decode attempt %s: %w", id, err)
	}
	attempt.SubmittedAt = &submittedAt
	attempt.Result = &result
	return attempt, nil
}

func decodeResult(fields map[string]string) (domain.ScoreResult, error) {
	var (
		res domain.ScoreResult
		err error
	)
	if res.Total, err = strconv.Atoi(fields["total"]); err != nil {
		return res, err
	}
	if res.Correct, err = strconv.Atoi(fields["correct"]); err != nil {
		return res, err
	}
	if res.Wrong, err = strconv.Atoi(fields["wrong"]); err != nil {
		return res, err
	}
	if res.Score, err = strconv.ParseFloat(fields["score"], 64); err != nil {
		return res, err
	}
	return res, nil
}

func attemptKey(attemptID string) string {
	return "attempt:" + attemptID
}

func answersKey(attemptID string) string {
	return "attempt:" + attemptID + ":answers"
}

func quizAttemptsKey(quizID string) string {
	return "quiz:" + quizID + ":attempts"
}
