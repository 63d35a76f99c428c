package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/postgres"
	pgmigrations "quiz-attempt-service/internal/infra/postgres/migrations"
	infraredis "quiz-attempt-service/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestAttemptLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := migrateDB(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	catalogStore := postgres.NewCatalog(pool)
	quizRepo := infraredis.NewQuizRepository(redisClient, catalogStore, 5*time.Minute)
	catalog := app.NewCatalogService(catalogStore, quizRepo)

	quiz, err := catalog.Create(ctx, sampleQuiz())
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	loaded, err := catalog.Quiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	if len(loaded.Questions) != 2 || loaded.Questions[0].Statement != "What is 2 + 2?" || len(loaded.Questions[0].Options) != 3 {
		t.Fatalf("quiz did not round trip through postgres: %+v", loaded)
	}

	stores := map[string]app.AttemptStore{
		"postgres": postgres.NewAttemptStore(db),
		"redis":    infraredis.NewAttemptStore(redisClient, time.Hour),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			service := app.NewAttemptService(store, quizRepo)
			runLifecycle(t, ctx, service, loaded)
			runSubmitRace(t, ctx, service, loaded)
		})
	}
}

func runLifecycle(t *testing.T, ctx context.Context, service *app.AttemptService, quiz domain.Quiz) {
	t.Helper()
	q1, q2 := quiz.Questions[0], quiz.Questions[1]

	attempt, err := service.Start(ctx, quiz.ID, "Alice")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	// q1: wrong, then corrected. q2: answered then cleared.
	mustAnswer(t, ctx, service, attempt.ID, q1.ID, q1.Options[0].ID)
	mustAnswer(t, ctx, service, attempt.ID, q1.ID, q1.Options[1].ID)
	mustAnswer(t, ctx, service, attempt.ID, q2.ID, q2.Options[0].ID)
	mustAnswer(t, ctx, service, attempt.ID, q2.ID, "")

	result, err := service.Submit(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := domain.ScoreResult{Total: 2, Correct: 1, Score: 4}
	if result != want {
		t.Fatalf("result mismatch got=%+v want=%+v", result, want)
	}

	if err := service.RecordAnswer(ctx, attempt.ID, q2.ID, q2.Options[1].ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state after submit, got %v", err)
	}
	again, err := service.Submit(ctx, attempt.ID)
	if err != nil || again != result {
		t.Fatalf("expected idempotent resubmit, got %+v err=%v", again, err)
	}

	stored, err := service.GetAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if stored.Status() != domain.StatusSubmitted || stored.Result == nil || *stored.Result != result {
		t.Fatalf("unexpected stored attempt %+v", stored)
	}
}

func runSubmitRace(t *testing.T, ctx context.Context, service *app.AttemptService, quiz domain.Quiz) {
	t.Helper()
	q1 := quiz.Questions[0]
	attempt, err := service.Start(ctx, quiz.ID, "Racer")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	mustAnswer(t, ctx, service, attempt.ID, q1.ID, q1.Options[1].ID)

	results := make([]domain.ScoreResult, 8)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := service.Submit(ctx, attempt.ID)
			if err != nil {
				t.Errorf("submit %d: %v", i, err)
			}
			results[i] = res
		}(i)
	}
	wg.Wait()
	for i := range results {
		if results[i] != results[0] {
			t.Fatalf("concurrent submits disagree: %+v", results)
		}
	}
}

func mustAnswer(t *testing.T, ctx context.Context, service *app.AttemptService, attemptID, questionID, optionID string) {
	t.Helper()
	if err := service.RecordAnswer(ctx, attemptID, questionID, optionID); err != nil {
		t.Fatalf("answer %s=%q: %v", questionID, optionID, err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		Title:           "Arithmetic",
		Subject:         "Math",
		DurationMinutes: 5,
		NegativeMarking: 0.5,
		Questions: []domain.Question{
			{
				Statement: "What is 2 + 2?",
				Options: []domain.Option{
					{Label: "3"},
					{Label: "4", Correct: true},
					{Label: "5"},
				},
			},
			{
				Statement: "What is 3 + 3?",
				Options: []domain.Option{
					{Label: "5"},
					{Label: "6", Correct: true},
				},
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
