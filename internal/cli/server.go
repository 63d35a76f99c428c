package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/infra/memory"
	"quiz-attempt-service/internal/infra/postgres"
	infraredis "quiz-attempt-service/internal/infra/redis"
	"quiz-attempt-service/internal/observability"
	transport "quiz-attempt-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// catalogStore is what both catalog backends provide.
type catalogStore interface {
	app.Catalog
	memory.QuizLoader
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var (
		pool  *pgxpool.Pool
		bunDB *bun.DB
	)
	if cfg.Postgres.URL != "" {
		bunDB = openBunDB(cfg.Postgres.URL)
		defer bunDB.Close()
		if err := migrateDB(ctx, bunDB); err != nil {
			return err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var catalogBackend catalogStore = memory.NewCatalog()
	if pool != nil {
		catalogBackend = postgres.NewCatalog(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = infraredis.NewQuizRepository(redisClient, catalogBackend, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(catalogBackend, quizTTL)
	}

	var store app.AttemptStore
	switch {
	case bunDB != nil:
		store = postgres.NewAttemptStore(bunDB)
	case redisClient != nil:
		store = infraredis.NewAttemptStore(redisClient, config.TTLDuration(cfg.Redis.AttemptTTL, 0))
	default:
		store = memory.NewAttemptStore()
	}

	attempts := app.NewAttemptService(store, quizRepo)
	catalog := app.NewCatalogService(catalogBackend, quizRepo)
	if cfg.SeedEnabled() {
		if err := catalog.SeedIfEmpty(ctx, sampleQuizzes()...); err != nil {
			return err
		}
	}

	if cfg.Admin.TokenHash == "" && cfg.Admin.Token == config.DefaultAdminToken {
		log.Printf("warning: admin token is the default value, set ADMIN_TOKEN or admin.token_hash")
	}

	router := transport.NewRouter(transport.RouterConfig{
		Attempts:  attempts,
		Catalog:   catalog,
		Admin:     transport.NewAdminAuth(cfg.Admin.Token, cfg.Admin.TokenHash),
		Collector: observability.NewCollector(pool),
		StaticDir: cfg.Server.StaticDir,
		Tick:      config.TTLDuration(cfg.Quiz.Tick, time.Second),
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// websocket sessions outlive a single write timeout
		WriteTimeout: 0,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
