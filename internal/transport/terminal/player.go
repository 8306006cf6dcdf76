package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"quiz-session/internal/session"
)

// clockEvery controls how often the running clock is reprinted between screens.
const clockEvery = 10

// Dispatcher is the part of a session machine the player drives.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev session.Event) error
	Subscribe() (<-chan session.State, func())
}

// Player renders session states to out and turns lines read from in into events.
type Player struct {
	machine Dispatcher
	in      io.Reader
	out     io.Writer
	logger  *slog.Logger
}

func NewPlayer(machine Dispatcher, in io.Reader, out io.Writer, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{machine: machine, in: in, out: out, logger: logger}
}

// Run plays until the user quits, input ends, the session stops or ctx is canceled.
func (p *Player) Run(ctx context.Context) error {
	states, cancel := p.machine.Subscribe()
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(p.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	var (
		current  session.State
		lastView string
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case s, ok := <-states:
			if !ok {
				return nil
			}
			current = s
			if view := viewKey(s); view != lastView {
				lastView = view
				if err := Render(p.out, s); err != nil {
					return err
				}
			} else if seconds, ok := s.Remaining(); ok && seconds%clockEvery == 0 {
				fmt.Fprintf(p.out, "⏱ %s\n", FormatClock(seconds))
			}

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			ev, quit := Command(current, line)
			if quit {
				return nil
			}
			if ev == nil {
				continue
			}
			if err := p.machine.Dispatch(ctx, ev); err != nil {
				return err
			}
			p.logger.Debug("command dispatched", "event", ev.Kind())
		}
	}
}

// Command maps a typed line to the event it triggers in state s. It returns
// a nil event for input that does nothing on the current screen.
func Command(s session.State, line string) (session.Event, bool) {
	cmd := strings.ToLower(strings.TrimSpace(line))
	if cmd == "q" || cmd == "quit" {
		return nil, true
	}

	switch s.Status {
	case session.StatusReady:
		if cmd == "s" || cmd == "" {
			return session.Start{}, false
		}
	case session.StatusActive:
		if cmd == "n" {
			switch {
			case !s.HasAnswer():
				return nil, false
			case s.IsLastQuestion():
				return session.Finish{}, false
			default:
				return session.NextQuestion{}, false
			}
		}
		if n, err := strconv.Atoi(cmd); err == nil && !s.HasAnswer() {
			return session.NewAnswer{Choice: n - 1}, false
		}
	case session.StatusFinished:
		if cmd == "r" {
			return session.Restart{}, false
		}
	}
	return nil, false
}

func viewKey(s session.State) string {
	answer := -1
	if s.Answer != nil {
		answer = *s.Answer
	}
	return fmt.Sprintf("%s/%d/%d/%d", s.Status, s.Index, answer, s.HighScore)
}
