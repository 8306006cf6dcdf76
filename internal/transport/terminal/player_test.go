package terminal

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"quiz-session/internal/session"
)

type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func waitOutput(t *testing.T, out *syncBuffer, want string, times int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Count(out.String(), want) >= times {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %q %d times in output:\n%s", want, times, out.String())
}

func TestPlayerFullRound(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	machine := session.NewMachine(session.WithLogger(logger))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = machine.Run(ctx) }()

	if err := machine.Dispatch(ctx, session.DataReceived{Questions: sampleQuestions()}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	in, input := io.Pipe()
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- NewPlayer(machine, in, out, logger).Run(ctx) }()

	steps := []struct {
		line, expect string
		times        int
	}{
		{"s", "Question 1/2", 1},
		{"4", "10/30 points", 1},
		{"n", "Question 2/2", 1},
		{"1", "[n] finish", 1},
		{"n", "You scored 10 out of 30", 1},
		{"r", "let's start", 2},
	}
	waitOutput(t, out, "2 questions", 1)
	for _, step := range steps {
		if _, err := io.WriteString(input, step.line+"\n"); err != nil {
			t.Fatalf("write %q: %v", step.line, err)
		}
		waitOutput(t, out, step.expect, step.times)
	}

	if _, err := io.WriteString(input, "q\n"); err != nil {
		t.Fatalf("write quit: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("player returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("player did not quit")
	}
	_ = input.Close()

	if s := machine.State(); s.Status != session.StatusReady || s.HighScore != 10 {
		t.Fatalf("expected ready session with high score 10, got %s %d", s.Status, s.HighScore)
	}
}

func TestPlayerStopsOnEndOfInput(t *testing.T) {
	machine := session.NewMachine(session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = machine.Run(ctx) }()

	err := NewPlayer(machine, strings.NewReader(""), io.Discard, nil).Run(ctx)
	if err != nil {
		t.Fatalf("expected clean exit, got %v", err)
	}
}
