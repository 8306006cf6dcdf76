package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-session/internal/config"
	"quiz-session/internal/domain"
	"quiz-session/internal/infra/file"
	pgloader "quiz-session/internal/infra/postgres"
	rediscache "quiz-session/internal/infra/redis"
	"quiz-session/internal/infra/sqlite"
)

// NewSeedCmd replaces the stored question set with the contents of a JSON file.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <questions.json>",
		Short: "Load questions from a JSON file into postgres or sqlite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, args[0])
		},
	}
}

type questionWriter interface {
	ReplaceQuestions(ctx context.Context, questions []domain.Question) error
}

func runSeed(ctx context.Context, configPath, path string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	questions, err := file.NewQuestionLoader(path).LoadQuestions(ctx)
	if err != nil {
		return err
	}

	var writer questionWriter
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		writer = pgloader.NewQuestionLoader(pool)
	case cfg.SQLite.Path != "":
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		writer = db
	default:
		return fmt.Errorf("no question store configured: set postgres.url or sqlite.path")
	}

	if err := writer.ReplaceQuestions(ctx, questions); err != nil {
		return err
	}
	logger.Info("questions seeded", "count", len(questions), "source", path)

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		cache := rediscache.NewQuestionRepository(client, nil, 0, logger)
		if err := cache.Invalidate(ctx); err != nil {
			logger.Warn("question cache not invalidated", "error", err)
		}
	}
	return nil
}
