package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"quiz-session/internal/config"
	"quiz-session/internal/infra/httpsource"
	"quiz-session/internal/session"
	"quiz-session/internal/transport/terminal"
)

// NewPlayCmd plays one quiz session in the terminal against a questions endpoint.
func NewPlayCmd(configPath *string) *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), *configPath, url)
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "questions endpoint (default "+httpsource.DefaultURL+")")
	return cmd
}

func runPlay(ctx context.Context, configPath, urlFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	logger := newLogger(cfg, os.Stderr)

	url := urlFlag
	if url == "" {
		url = cfg.Quiz.QuestionsURL
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	machine := session.NewMachine(session.WithLogger(logger))
	go func() {
		if err := machine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("session stopped", "error", err)
		}
	}()
	machine.Load(ctx, httpsource.NewClient(nil, url))

	err = terminal.NewPlayer(machine, os.Stdin, os.Stdout, logger).Run(ctx)
	cancel()
	<-machine.Done()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
