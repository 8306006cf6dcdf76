package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quiz-session/internal/app"
	"quiz-session/internal/config"
	"quiz-session/internal/infra/file"
	"quiz-session/internal/infra/memory"
	pgloader "quiz-session/internal/infra/postgres"
	rediscache "quiz-session/internal/infra/redis"
	"quiz-session/internal/infra/sqlite"
	transport "quiz-session/internal/transport/http"
)

const (
	defaultQuizTTL  = 10 * time.Minute
	defaultRedisTTL = 30 * time.Minute
	shutdownTimeout = 5 * time.Second
)

// NewServeCmd builds the CLI subcommand that runs the question endpoint and
// the WebSocket session server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", "", "port to listen on (overrides config)")
	return cmd
}

// backends groups the stores chosen from config so they can be released together.
type backends struct {
	loader  memory.QuestionLoader
	redis   *redis.Client
	closers []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackends picks the question loader by priority: postgres, sqlite,
// a JSON file, then the built-in sample set.
func openBackends(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{}

	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		b.loader = pgloader.NewQuestionLoader(pool)
		logger.Info("questions from postgres")
	case cfg.SQLite.Path != "":
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() {
			if err := db.Close(); err != nil {
				logger.Warn("close sqlite", "error", err)
			}
		})
		b.loader = db
		logger.Info("questions from sqlite", "path", cfg.SQLite.Path)
	case cfg.Quiz.QuestionsFile != "":
		b.loader = file.NewQuestionLoader(cfg.Quiz.QuestionsFile)
		logger.Info("questions from file", "path", cfg.Quiz.QuestionsFile)
	default:
		b.loader = memory.NewStaticQuestionLoader(memory.SampleQuestions())
		logger.Info("questions from built-in sample set")
	}

	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = b.redis.Close() })
	}
	return b, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.close()

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, defaultQuizTTL)
	var questions app.QuestionRepository
	var store app.SessionRepository
	if b.redis != nil {
		questions = rediscache.NewQuestionRepository(b.redis, b.loader, quizTTL, logger)
		store = rediscache.NewSessionStore(b.redis, config.TTLDuration(cfg.Redis.TTL, defaultRedisTTL), logger)
	} else {
		questions = memory.NewQuestionRepository(b.loader, quizTTL)
		store = memory.NewSessionStore()
	}
	service := app.NewQuizService(store, questions, logger)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, logger, cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting quiz server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down quiz server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Sessions first: their subscriptions close, which ends the WebSocket loops.
		if err := service.Shutdown(shutdownCtx); err != nil {
			logger.Warn("session shutdown incomplete", "error", err)
		}
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
