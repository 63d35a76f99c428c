package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches quiz content from a backing store (catalog).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository caches quizzes in Redis and falls back to a loader on cache miss.
// The quiz document is stored as JSON:   SET  quiz:{quizID} {json}
// The answer key is stored as a hash:    HSET quiz:{quizID}:answers {questionID} {optionID}
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.cached(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.cached(ctx, quizID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		r.store(ctx, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// CorrectOptions reads the cached answer key and loads the quiz when it is absent.
func (r *QuizRepository) CorrectOptions(ctx context.Context, quizID string) (map[string]string, error) {
	key, err := r.client.HGetAll(ctx, r.answersKey(quizID)).Result()
	if err == nil && len(key) > 0 {
		return key, nil
	}
	quiz, err := r.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return quiz.CorrectOptions(), nil
}

func (r *QuizRepository) cached(ctx context.Context, quizID string) (domain.Quiz, bool) {
	raw, err := r.client.Get(ctx, r.quizKey(quizID)).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

// store writes the quiz and its answer key. Cache writes are best effort.
func (r *QuizRepository) store(ctx context.Context, quiz domain.Quiz) {
	raw, err := json.Marshal(quiz)
	if err != nil {
		return
	}
	ttl := r.ttlWithJitter()
	answersKey := r.answersKey(quiz.ID)

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.quizKey(quiz.ID), raw, ttl)
	pipe.Del(ctx, answersKey)
	if key := quiz.CorrectOptions(); len(key) > 0 {
		pipe.HSet(ctx, answersKey, key)
		if ttl > 0 {
			pipe.Expire(ctx, answersKey, ttl)
		}
	}
	_, _ = pipe.Exec(ctx)
}

func (r *QuizRepository) quizKey(quizID string) string {
	return fmt.Sprintf("quiz:%s", quizID)
}

func (r *QuizRepository) answersKey(quizID string) string {
	return "quiz:" + quizID + ":answers"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
