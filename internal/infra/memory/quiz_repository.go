package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches quiz content from a backing store (catalog).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository caches quizzes with TTL to avoid repeated catalog hits.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	key       map[string]string
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	entry, err := r.get(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	return entry.quiz, nil
}

func (r *QuizRepository) CorrectOptions(ctx context.Context, quizID string) (map[string]string, error) {
	entry, err := r.get(ctx, quizID)
	if err != nil {
		return nil, err
	}
	key := make(map[string]string, len(entry.key))
	for q, o := range entry.key {
		key[q] = o
	}
	return key, nil
}

func (r *QuizRepository) get(ctx context.Context, quizID string) (cachedQuiz, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry, nil
		}
		r.mu.RUnlock()

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return cachedQuiz{}, err
		}

		r.mu.Lock()
		entry := cachedQuiz{
			quiz:      quiz,
			key:       quiz.CorrectOptions(),
			expiresAt: now.Add(r.ttlWithJitterLocked()),
		}
		r.cache[quizID] = entry
		r.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return cachedQuiz{}, err
	}
	return result.(cachedQuiz), nil
}

func (r *QuizRepository) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
