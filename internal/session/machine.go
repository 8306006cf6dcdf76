package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"quiz-session/internal/domain"
)

var (
	// ErrMachineStopped is returned when dispatching to a machine whose Run loop has exited.
	ErrMachineStopped = errors.New("session machine stopped")
	// ErrMachineRunning is returned when Run is called a second time.
	ErrMachineRunning = errors.New("session machine already running")
)

// QuestionSource loads the question set for a session.
type QuestionSource interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// Ticker is the subset of *time.Ticker the machine needs; tests swap it out.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Option configures a Machine.
type Option func(*Machine)

// WithTicker replaces the ticker factory used for the quiz timer.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(m *Machine) { m.newTicker = newTicker }
}

// WithInterval sets the timer period. Defaults to one second.
func WithInterval(d time.Duration) Option {
	return func(m *Machine) { m.interval = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) { m.logger = logger }
}

// Machine hosts one session. All events, including timer ticks, go through a
// single Run loop, so transitions never interleave. The timer only runs while
// the state is active.
type Machine struct {
	events    chan Event
	done      chan struct{}
	running   atomic.Bool
	newTicker func(time.Duration) Ticker
	interval  time.Duration
	logger    *slog.Logger

	mu          sync.RWMutex
	state       State
	stopped     bool
	subscribers map[chan State]struct{}
}

func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		events:      make(chan Event, 16),
		done:        make(chan struct{}),
		newTicker:   newTimeTicker,
		interval:    time.Second,
		logger:      slog.Default(),
		state:       Initial(),
		subscribers: make(map[chan State]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run applies events until ctx is canceled. The timer is torn down and all
// subscriptions are closed before it returns.
func (m *Machine) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrMachineRunning
	}

	var (
		ticker Ticker
		tickC  <-chan time.Time
	)
	stopTimer := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tickC = nil, nil
		}
	}
	defer func() {
		stopTimer()
		m.shutdown()
	}()

	for {
		var ev Event
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev = <-m.events:
		case <-tickC:
			ev = Tick{}
		}

		next := m.apply(ev)
		switch {
		case next.Status == StatusActive && ticker == nil:
			ticker = m.newTicker(m.interval)
			tickC = ticker.C()
			m.logger.Debug("quiz timer started", "seconds_left", *next.SecondsLeft)
		case next.Status != StatusActive && ticker != nil:
			stopTimer()
			m.logger.Debug("quiz timer stopped", "status", next.Status)
		}
	}
}

// Dispatch queues ev for the Run loop. Events are applied in the order they
// are queued. A nil event is a programming error and panics.
func (m *Machine) Dispatch(ctx context.Context, ev Event) error {
	if ev == nil {
		panic("session: dispatch of nil event")
	}
	select {
	case <-m.done:
		return ErrMachineStopped
	default:
	}
	select {
	case m.events <- ev:
		return nil
	case <-m.done:
		return ErrMachineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Load fetches questions in the background and dispatches exactly one of
// DataReceived or DataFailed.
func (m *Machine) Load(ctx context.Context, source QuestionSource) {
	go func() {
		var ev Event
		questions, err := source.LoadQuestions(ctx)
		if err == nil {
			err = domain.ValidateQuestions(questions)
		}
		if err != nil {
			m.logger.Warn("question load failed", "error", err)
			ev = DataFailed{Err: err}
		} else {
			m.logger.Info("questions loaded", "count", len(questions))
			ev = DataReceived{Questions: questions}
		}
		if err := m.Dispatch(ctx, ev); err != nil {
			m.logger.Debug("question load outcome dropped", "event", ev.Kind(), "error", err)
		}
	}()
}

// State returns the latest snapshot.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Done is closed once Run has returned.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

// Subscribe returns a channel of state snapshots, starting with the current
// one. A slow reader only misses intermediate snapshots, never the latest.
// The channel is closed when the machine stops or cancel is called.
func (m *Machine) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 8)

	m.mu.Lock()
	ch <- m.state
	if m.stopped {
		close(ch)
		m.mu.Unlock()
		return ch, func() {}
	}
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		if _, ok := m.subscribers[ch]; ok {
			delete(m.subscribers, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
	return ch, cancel
}

func (m *Machine) apply(ev Event) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.state
	m.state = Reduce(m.state, ev)
	if prev.Status != m.state.Status {
		m.logger.Debug("session transition",
			"event", ev.Kind(),
			"from", prev.Status,
			"to", m.state.Status,
		)
	}
	m.broadcastLocked()
	return m.state
}

func (m *Machine) broadcastLocked() {
	for ch := range m.subscribers {
		select {
		case ch <- m.state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- m.state
		}
	}
}

func (m *Machine) shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	for ch := range m.subscribers {
		delete(m.subscribers, ch)
		close(ch)
	}
	close(m.done)
}
