package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"quiz-session/internal/app"
	"quiz-session/internal/domain"
	"quiz-session/internal/infra/memory"
	"quiz-session/internal/session"
)

func TestOpenLoadsQuestions(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)

	sess, err := service.Open(ctx)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if sess.ID == "" {
		t.Fatalf("expected session id")
	}
	if store.Len() != 1 {
		t.Fatalf("expected session tracked, got %d", store.Len())
	}

	ch, cancel, err := service.Subscribe(ctx, sess.ID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	state := waitStatus(t, ch, session.StatusReady)
	if state.NumQuestions() != 1 {
		t.Fatalf("expected 1 question, got %d", state.NumQuestions())
	}
}

func TestDispatchScoresAnswer(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	sess, _ := service.Open(ctx)
	ch, cancel, _ := service.Subscribe(ctx, sess.ID)
	defer cancel()
	waitStatus(t, ch, session.StatusReady)

	for _, ev := range []session.Event{session.Start{}, session.NewAnswer{Choice: 1}, session.Finish{}} {
		if err := service.Dispatch(ctx, sess.ID, ev); err != nil {
			t.Fatalf("dispatch %s: %v", ev.Kind(), err)
		}
	}

	state := waitStatus(t, ch, session.StatusFinished)
	if state.Points != 5 || state.HighScore != 5 {
		t.Fatalf("expected 5 points, got points=%d high=%d", state.Points, state.HighScore)
	}
}

func TestUnknownSession(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	if err := service.Dispatch(ctx, "missing", session.Start{}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session error, got %v", err)
	}
	if _, _, err := service.Subscribe(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session error, got %v", err)
	}
	if _, err := service.State(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session error, got %v", err)
	}
	service.Close(ctx, "missing")
}

func TestCloseStopsSession(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)

	sess, _ := service.Open(ctx)
	service.Close(ctx, sess.ID)

	select {
	case <-sess.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("session loop still running")
	}
	if store.Len() != 0 {
		t.Fatalf("expected session removed, got %d", store.Len())
	}
	if err := service.Dispatch(ctx, sess.ID, session.Start{}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session error after close, got %v", err)
	}
}

func TestShutdownStopsAllSessions(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	first, _ := service.Open(ctx)
	second, _ := service.Open(ctx)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := service.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	for _, sess := range []*app.Session{first, second} {
		select {
		case <-sess.Done():
		default:
			t.Fatalf("session %s still running", sess.ID)
		}
	}
	if _, err := service.Open(ctx); err == nil {
		t.Fatalf("expected open to fail after shutdown")
	}
}

func waitStatus(t *testing.T, ch <-chan session.State, want session.Status) session.State {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				t.Fatalf("subscription closed waiting for %s", want)
			}
			if s.Status == want {
				return s
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func newTestService(t *testing.T) (*app.QuizService, *memory.SessionStore) {
	t.Helper()
	store := memory.NewSessionStore()
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader([]domain.Question{
		{
			Text:          "Select the right option",
			Options:       []string{"Wrong", "Right", "Wrong", "Wrong"},
			CorrectOption: 1,
			Points:        5,
		},
	}), 5*time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := app.NewQuizService(store, questions, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = service.Shutdown(ctx)
	})
	return service, store
}
