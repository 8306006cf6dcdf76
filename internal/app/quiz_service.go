package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-session/internal/domain"
	"quiz-session/internal/session"
)

// SessionRepository abstracts where open quiz sessions are tracked (in-memory, Redis, etc).
type SessionRepository interface {
	Put(s *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuestionRepository serves the question set (from cache/backing store).
type QuestionRepository interface {
	GetQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuizService opens and drives independent quiz sessions.
type QuizService struct {
	sessions    SessionRepository
	questions   QuestionRepository
	logger      *slog.Logger
	now         func() time.Time
	machineOpts []session.Option

	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

func NewQuizService(store SessionRepository, questions QuestionRepository, logger *slog.Logger, machineOpts ...session.Option) *QuizService {
	if logger == nil {
		logger = slog.Default()
	}
	base, stop := context.WithCancel(context.Background())
	return &QuizService{
		sessions:    store,
		questions:   questions,
		logger:      logger,
		now:         time.Now,
		machineOpts: machineOpts,
		base:        base,
		stop:        stop,
	}
}

// Open starts a new session and kicks off its question load.
func (s *QuizService) Open(ctx context.Context) (*Session, error) {
	if err := s.base.Err(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	logger := s.logger.With("session_id", id)
	opts := append([]session.Option{session.WithLogger(logger)}, s.machineOpts...)

	runCtx, cancel := context.WithCancel(s.base)
	sess := &Session{
		ID:        id,
		CreatedAt: s.now(),
		machine:   session.NewMachine(opts...),
		cancel:    cancel,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := sess.machine.Run(runCtx); err != nil && runCtx.Err() == nil {
			logger.Error("session loop exited", "error", err)
		}
	}()
	sess.machine.Load(runCtx, questionSource{s.questions})

	s.sessions.Put(sess)
	logger.Info("session opened")
	return sess, nil
}

// Questions returns the question set served to clients.
func (s *QuizService) Questions(ctx context.Context) ([]domain.Question, error) {
	return s.questions.GetQuestions(ctx)
}

// Dispatch forwards an event to a session.
func (s *QuizService) Dispatch(ctx context.Context, sessionID string, ev session.Event) error {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return sess.machine.Dispatch(ctx, ev)
}

// State returns the latest snapshot of a session.
func (s *QuizService) State(_ context.Context, sessionID string) (session.State, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return session.State{}, domain.ErrSessionNotFound
	}
	return sess.machine.State(), nil
}

// Subscribe returns a channel that receives state snapshots for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan session.State, func(), error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := sess.machine.Subscribe()
	return ch, cancel, nil
}

// Close stops a session's loop, tearing down its timer, and forgets it.
func (s *QuizService) Close(ctx context.Context, sessionID string) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	sess.cancel()
	select {
	case <-sess.machine.Done():
	case <-ctx.Done():
	}
	s.sessions.Delete(sessionID)
	s.logger.Info("session closed", "session_id", sessionID)
}

// Shutdown stops every open session and waits for their loops to exit.
func (s *QuizService) Shutdown(ctx context.Context) error {
	s.stop()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Session is one player's quiz run hosted by a state machine.
type Session struct {
	ID        string
	CreatedAt time.Time
	machine   *session.Machine
	cancel    context.CancelFunc
}

// Done is closed once the session loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.machine.Done()
}

type questionSource struct {
	repo QuestionRepository
}

func (q questionSource) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	return q.repo.GetQuestions(ctx)
}
